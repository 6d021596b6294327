// Package config defines the JSON-serializable configuration of a
// calibration run. A config file is optional: Default returns a usable
// configuration and command-line flags override whatever a file sets.
//
// Example:
//
//	{
//	  "job":     "day1",
//	  "input":   { "path": "input.txt" },
//	  "runtime": { "workers": 4 },
//	  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://localhost:9091" },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "runs.db", "table": "calibration_runs", "auto_create_table": true } },
//	  "watch":   { "enabled": false, "debounce_ms": 250 }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Defaults applied by Default.
const (
	DefaultJob            = "calibrate"
	DefaultInputPath      = "input.txt"
	DefaultTable          = "calibration_runs"
	DefaultPushgatewayURL = "http://localhost:9091"
	DefaultDatadogAddr    = "127.0.0.1:8125"
	DefaultDebounceMS     = 250
)

// Run is the top-level object decoded from a config file.
type Run struct {
	// Job names the run in metrics and stored history.
	Job     string        `json:"job"`
	Input   Input         `json:"input"`
	Runtime RuntimeConfig `json:"runtime"`
	Metrics Metrics       `json:"metrics"`
	Storage Storage       `json:"storage"`
	Watch   Watch         `json:"watch"`
}

// Input identifies the calibration document.
type Input struct {
	// Path is the local filesystem path to the document.
	Path string `json:"path"`
}

// RuntimeConfig controls concurrency.
type RuntimeConfig struct {
	// Workers is the number of goroutines per part; 0 or 1 is sequential.
	Workers int `json:"workers"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is one of "none", "pushgateway", "datadog". Empty means "none".
	Backend        string   `json:"backend"`
	PushgatewayURL string   `json:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr"`
	Tags           []string `json:"tags"`
}

// Storage selects the optional run history sink.
type Storage struct {
	// Kind is empty (no history) or a registered storage kind such as
	// "sqlite", "postgres", "mssql", "mysql".
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the history table.
type DBConfig struct {
	DSN   string `json:"dsn"`
	Table string `json:"table"`
	// AutoCreateTable creates the history table when it is missing.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Watch configures re-running on input changes.
type Watch struct {
	Enabled    bool `json:"enabled"`
	DebounceMS int  `json:"debounce_ms"`
}

// Default returns the built-in configuration.
func Default() Run {
	return Run{
		Job:     DefaultJob,
		Input:   Input{Path: DefaultInputPath},
		Metrics: Metrics{Backend: "none"},
		Storage: Storage{DB: DBConfig{Table: DefaultTable}},
		Watch:   Watch{DebounceMS: DefaultDebounceMS},
	}
}

// Load decodes the config file at path on top of Default, so fields absent
// from the file keep their defaults.
func Load(path string) (Run, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Getenv returns the value of the first set environment variable among keys,
// or def.
func Getenv(def string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}
