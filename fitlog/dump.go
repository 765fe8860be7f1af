package fitlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tormoder/fit"
)

// WriteJSONL writes one JSON object per decoded message, in file order.
func (l *Log) WriteJSONL(w io.Writer) error {
	buf := bufio.NewWriterSize(w, 1<<20)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	for i := range l.Messages {
		if err := enc.Encode(&l.Messages[i]); err != nil {
			return fmt.Errorf("encode message %d: %w", i, err)
		}
	}
	return buf.Flush()
}

// ProjectFileID returns the file_id projection decoded by the fit profile
// decoder, or nil when the header or file_id cannot be read.
func ProjectFileID(data []byte) *FileIDInfo {
	_, id, err := fit.DecodeHeaderAndFileID(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	info := &FileIDInfo{
		Type:         fmt.Sprint(id.Type),
		Manufacturer: fmt.Sprint(id.Manufacturer),
		Product:      fmt.Sprint(id.GetProduct()),
		SerialNumber: id.SerialNumber,
	}
	if !id.TimeCreated.IsZero() {
		info.TimeCreated = id.TimeCreated.UTC()
	}
	return info
}

// Kinds returns message counts keyed by kind.
func (l *Log) Kinds() map[string]int {
	out := make(map[string]int)
	for i := range l.Messages {
		out[l.Messages[i].Name]++
	}
	return out
}
