// Package config provides configuration models and helpers for indexing runs.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests. Per the
// error-handling policy, configuration problems must be raised here, before
// the first sink call, rather than discovered mid-batch.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "index.name",
// "normalize.int_fields"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the list is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue
// values; callers may decide whether to treat warnings as fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateNormalize(p)...)
	issues = append(issues, validateMapping(p.Mapping)...)
	issues = append(issues, validateIndex(p.Index)...)
	issues = append(issues, validateSink(p.Sink)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.path",
			Message:  "source requires a non-empty path",
		})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	kind := p.Kind
	if strings.TrimSpace(kind) == "" {
		kind = "csv" // the only implementation; empty is a usable default
	}
	if kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q (supported: csv)", p.Kind),
		})
	}
	if comma := p.Options.String("comma", ","); len([]rune(comma)) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", comma),
		})
	}
	return issues
}

// validateNormalize rejects rule sets where one field is claimed by more
// than one coercion kind, which would make the result depend on rule order.
func validateNormalize(p Pipeline) []Issue {
	var issues []Issue

	claimed := map[string]string{}
	claim := func(fields []string, kind, path string) {
		for _, f := range fields {
			if prev, ok := claimed[f]; ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path,
					Message:  fmt.Sprintf("field %q already declared as %s", f, prev),
				})
				continue
			}
			claimed[f] = kind
		}
	}
	claim(p.Normalize.DateFields, "date", "normalize.date_fields")
	claim(p.Normalize.IntFields, "int", "normalize.int_fields")
	claim(p.Normalize.FloatFields, "float", "normalize.float_fields")

	for src, dst := range p.Normalize.DateCompanions {
		if dst == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "normalize.date_companions",
				Message:  fmt.Sprintf("companion for %q has an empty target name", src),
			})
		}
		if claimed[src] != "date" && p.Mapping.Mode != MappingSIM {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "normalize.date_companions",
				Message:  fmt.Sprintf("companion source %q is not declared in date_fields; the derived field will always be null", src),
			})
		}
	}

	return issues
}

func validateMapping(m MappingConfig) []Issue {
	var issues []Issue
	switch m.Mode {
	case "", MappingDynamic, MappingSIM:
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "mapping.mode",
			Message:  fmt.Sprintf("unknown mapping mode %q (supported: %s, %s)", m.Mode, MappingDynamic, MappingSIM),
		})
	}
	return issues
}

func validateIndex(i IndexConfig) []Issue {
	var issues []Issue
	if strings.TrimSpace(i.Name) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "index.name",
			Message:  "index.name must not be empty",
		})
	} else if i.Name != strings.ToLower(i.Name) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "index.name",
			Message:  "index names must be lowercase",
		})
	}
	return issues
}

func validateSink(s SinkConfig) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Kind) == "" {
		// The caller defaults to elasticsearch; surface it as a warning only.
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "sink.kind",
			Message:  "sink.kind is empty; defaulting to elasticsearch",
		})
	}
	if s.TimeoutSeconds < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.timeout_seconds",
			Message:  "timeout_seconds must not be negative",
		})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}
	return issues
}
