//go:build !js

package pipeline

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type sampleParquetRow struct {
	LapIndex   int64   `parquet:"name=lap_index, type=INT64"`
	TSUTCISO   string  `parquet:"name=ts_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ElapsedS   float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	Lat        float64 `parquet:"name=lat, type=DOUBLE"`
	Lon        float64 `parquet:"name=lon, type=DOUBLE"`
	DistanceM  float64 `parquet:"name=distance_m, type=DOUBLE"`
	HRBPM      float64 `parquet:"name=hr_bpm, type=DOUBLE"`
	SpeedMPS   float64 `parquet:"name=speed_mps, type=DOUBLE"`
	CadenceSPM float64 `parquet:"name=cadence_spm, type=DOUBLE"`
	EconomyCM  float64 `parquet:"name=economy_cm_per_beat, type=DOUBLE"`
}

func marshalSamplesParquet(samples []Sample) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(sampleParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range samples {
		row := sampleParquetRow{
			LapIndex:   int64(s.LapIndex),
			TSUTCISO:   s.TSUTCISO,
			ElapsedS:   s.ElapsedS,
			Lat:        s.Lat,
			Lon:        s.Lon,
			DistanceM:  s.DistanceM,
			HRBPM:      valueOrNaN(s.HRBPM),
			SpeedMPS:   valueOrNaN(s.SpeedMPS),
			CadenceSPM: valueOrNaN(s.CadenceSPM),
			EconomyCM:  valueOrNaN(s.EconomyCM),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
