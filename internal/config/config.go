// Package config defines the canonical, JSON-serializable configuration
// model for an indexing run. It is intentionally small and explicit so that
// run files can be loaded from disk and passed through the program without
// additional glue code.
//
// Decoding is performed by the standard library, with a light Options helper
// for typed access to parser-specific settings; environment overrides for
// the engine connection are layered on top (12-factor style).
//
// Example (trimmed):
//
//	{
//	  "job":    "obitos_2020",
//	  "source": { "path": "dados_obitos.csv" },
//	  "parser": { "kind": "csv", "options": { "trim_space": true } },
//	  "mapping":{ "mode": "sim" },
//	  "index":  { "name": "obitos" },
//	  "sink":   { "kind": "elasticsearch", "addresses": ["http://localhost:9200"] }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"simindex/internal/normalizer"
)

// Pipeline describes one full indexing run, decoded from a JSON run file.
type Pipeline struct {
	// Job is the logical run name, used for metrics grouping. Defaults to
	// the index name when empty.
	Job string `json:"job"`

	// Source describes where the input CSV comes from.
	Source Source `json:"source"`

	// Parser configures how raw bytes become records.
	Parser Parser `json:"parser"`

	// Normalize declares the per-field coercion rules. Left empty in "sim"
	// mapping mode, the curated SIM rules apply.
	Normalize normalizer.Rules `json:"normalize"`

	// Mapping selects how the index mapping is produced.
	Mapping MappingConfig `json:"mapping"`

	// Index identifies the target index.
	Index IndexConfig `json:"index"`

	// Sink configures the index engine connection.
	Sink SinkConfig `json:"sink"`

	// Runtime controls batching and buffering.
	Runtime RuntimeConfig `json:"runtime"`
}

// Source identifies the input file.
type Source struct {
	// Path is the local filesystem path to the input CSV.
	Path string `json:"path"`

	// Encoding forces a charset (e.g. "ISO-8859-1"). Empty means detect
	// from a sample, falling back to UTF-8.
	Encoding string `json:"encoding"`
}

// Parser selects how to parse the raw source into rows.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys: comma (string), trim_space (bool),
	// header_map (object).
	Options Options `json:"options"`
}

// Mapping modes.
const (
	MappingDynamic = "dynamic"
	MappingSIM     = "sim"
)

// MappingConfig selects the mapping builder.
type MappingConfig struct {
	// Mode is "dynamic" (derive text mapping from the first document) or
	// "sim" (curated SIM mortality table).
	Mode string `json:"mode"`
}

// IndexConfig identifies the target index.
type IndexConfig struct {
	// Name is the index identifier. An existing index of this name is
	// deleted and recreated on every run.
	Name string `json:"name"`
}

// SinkConfig configures the index engine connection.
type SinkConfig struct {
	// Kind selects the sink implementation. Current value: "elasticsearch".
	Kind string `json:"kind"`

	// Addresses are the engine endpoints.
	Addresses []string `json:"addresses"`

	// TimeoutSeconds bounds the liveness probe and each bulk round-trip.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Timeout returns the configured sink timeout as a duration, zero when
// unset (the sink applies its own default).
func (s SinkConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// RuntimeConfig controls batching and channel buffer sizes.
type RuntimeConfig struct {
	// BatchSize is the number of documents per bulk round-trip.
	BatchSize int `json:"batch_size"`

	// ChannelBuffer sizes the document channel between the normalize and
	// load stages.
	ChannelBuffer int `json:"channel_buffer"`
}

// envOverrides are the connection settings that may be supplied or
// overridden through the environment.
type envOverrides struct {
	Addresses      []string `env:"SIMINDEX_ES_ADDRESSES"`
	TimeoutSeconds int      `env:"SIMINDEX_ES_TIMEOUT_SECONDS"`
	BatchSize      int      `env:"SIMINDEX_BATCH_SIZE"`
}

// Load reads, decodes, and environment-overlays a run file.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var p Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	if err := p.ApplyEnv(); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

// ApplyEnv overlays environment variables onto the decoded pipeline. Set
// variables win over file values.
func (p *Pipeline) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env overrides: %w", err)
	}
	if len(o.Addresses) > 0 {
		p.Sink.Addresses = o.Addresses
	}
	if o.TimeoutSeconds > 0 {
		p.Sink.TimeoutSeconds = o.TimeoutSeconds
	}
	if o.BatchSize > 0 {
		p.Runtime.BatchSize = o.BatchSize
	}
	return nil
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns provided defaults when
// a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def when
// missing or empty. Used for single-character settings such as the CSV
// delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object decodes to a non-nil, empty Options map, removing the
// need to nil-check at call sites.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
