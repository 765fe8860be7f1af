//go:build js && wasm

package main

import (
	"encoding/json"
	"log/slog"
	"syscall/js"

	"github.com/lucasjlepore/footpod"
	"github.com/lucasjlepore/footpod/pipeline"
)

func main() {
	js.Global().Set("convertFootpod", js.FuncOf(convertFootpod))
	select {}
}

func convertFootpod(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return failure("expected arguments: fitBytes(Uint8Array), routeBytes(Uint8Array), options(object)")
	}
	fitBytes, ok := copyBytes(args[0])
	if !ok {
		return failure("fit file bytes are required")
	}
	routeBytes, ok := copyBytes(args[1])
	if !ok {
		return failure("route file bytes are required")
	}
	optsArg := js.Undefined()
	if len(args) > 2 {
		optsArg = args[2]
	}

	result, err := pipeline.ConvertBytes(pipeline.BytesOptions{
		FitData:       fitBytes,
		RouteData:     routeBytes,
		SkipCRC:       getBool(optsArg, "skip_crc"),
		SamplesFormat: samplesFormat(getBool(optsArg, "samples")),
		Logger:        slog.New(slog.DiscardHandler),
	})
	if err != nil {
		return failure(err.Error())
	}

	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return failure(err.Error())
	}
	out := map[string]any{
		"ok":       true,
		"tcx":      toUint8Array(result.TCX),
		"warnings": stringsToAny(result.Warnings),
		"summary":  string(summary),
		"notes":    footpod.BuildNotes(result.Summary),
	}
	if result.Samples != nil {
		out["samples_csv"] = toUint8Array(result.Samples)
	}
	return out
}

func failure(msg string) map[string]any {
	return map[string]any{
		"ok":    false,
		"error": msg,
	}
}

func copyBytes(v js.Value) ([]byte, bool) {
	if v.IsUndefined() || v.IsNull() || v.Get("length").Int() == 0 {
		return nil, false
	}
	out := make([]byte, v.Get("length").Int())
	if n := js.CopyBytesToGo(out, v); n == 0 {
		return nil, false
	}
	return out, true
}

func toUint8Array(data []byte) js.Value {
	payload := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(payload, data)
	return payload
}

// samplesFormat picks CSV; the browser build has no Parquet writer.
func samplesFormat(enabled bool) string {
	if enabled {
		return pipeline.FormatCSV
	}
	return ""
}

func getBool(v js.Value, key string) bool {
	if v.IsUndefined() || v.IsNull() {
		return false
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() || out.Type() != js.TypeBoolean {
		return false
	}
	return out.Bool()
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
