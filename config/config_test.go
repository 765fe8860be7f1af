package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Output != "-" || cfg.Overwrite || cfg.SkipCRC || cfg.Summary {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("unexpected log defaults %+v", cfg.Log)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "footpod.yaml")
	file := "output: from-file.tcx\nsamples_format: parquet\nlog:\n  level: warn\n  format: json\n"
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FOOTPOD_LOG_LEVEL", "debug")

	fs := pflag.NewFlagSet("footpod", pflag.ContinueOnError)
	RegisterFlags(fs)
	RegisterGlobalFlags(fs)
	if err := fs.Parse([]string{"--output", "from-flag.tcx", "--overwrite"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	v := New()
	if err := BindFlags(v, fs); err != nil {
		t.Fatalf("BindFlags error: %v", err)
	}

	cfg, err := Load(v, path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Output != "from-flag.tcx" || !cfg.Overwrite {
		t.Fatalf("flags did not win: %+v", cfg)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("environment did not override file: %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" || cfg.SamplesFormat != "parquet" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"FOOTPOD_SAMPLES_FORMAT": "xlsx",
		"FOOTPOD_LOG_LEVEL":      "loud",
		"FOOTPOD_LOG_FORMAT":     "xml",
	}
	for env, value := range cases {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, value)
			if _, err := Load(New(), ""); err == nil || !strings.Contains(err.Error(), "invalid config") {
				t.Fatalf("expected invalid config error, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestYAML(t *testing.T) {
	cfg := &Config{Output: "run.tcx", SamplesFormat: "csv", Log: LogConfig{Level: "info", Format: "text"}}
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML error: %v", err)
	}
	for _, want := range []string{"output: run.tcx", "samples_format: csv", "log:\n    level: info"} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("YAML missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(string(out), "samples:") {
		t.Fatalf("empty samples path should be omitted:\n%s", out)
	}
}
