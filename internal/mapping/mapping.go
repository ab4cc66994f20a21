// Package mapping builds the field-to-type mapping installed on the target
// index before bulk loading.
//
// Two builders implement the same capability, selected by configuration:
// Dynamic derives a generic text mapping from one sample document, Static
// returns the curated table for SIM mortality records. Both are pure and
// idempotent for the same input.
package mapping

import (
	"encoding/json"
	"fmt"
	"sort"

	"simindex/internal/records"
)

// KeywordIgnoreAbove is the byte threshold past which the exact-match
// sub-field stops indexing. Values longer than this only support prefix
// exact match; that is a limit of the engine's keyword fields, not a bug.
const KeywordIgnoreAbove = 256

// Property describes how one field is stored and indexed.
type Property struct {
	Type        string              `json:"type"`
	Format      string              `json:"format,omitempty"`
	IgnoreAbove int                 `json:"ignore_above,omitempty"`
	Fields      map[string]Property `json:"fields,omitempty"`
}

// Mapping is the full field→Property table for an index.
type Mapping struct {
	Properties map[string]Property
}

// Body renders the engine's create-index request body.
func (m Mapping) Body() ([]byte, error) {
	type props struct {
		Properties map[string]Property `json:"properties"`
	}
	body := struct {
		Mappings props `json:"mappings"`
	}{Mappings: props{Properties: m.Properties}}
	return json.Marshal(body)
}

// Unmapped returns the document fields with no entry in the mapping, sorted.
// Such fields are passed through to the engine's own default inference; the
// caller is expected to warn once per field.
func (m Mapping) Unmapped(doc records.Doc) []string {
	var missing []string
	for name := range doc {
		if _, ok := m.Properties[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Builder produces a field mapping given a sample document. Implementations
// must be idempotent: the same sample yields the same mapping.
type Builder interface {
	Build(sample records.Doc) (Mapping, error)
}

// Property constructors shared by both builders.

// Text is an analyzed text field with an exact-match keyword sub-field,
// truncated at KeywordIgnoreAbove bytes.
func Text() Property {
	return Property{
		Type: "text",
		Fields: map[string]Property{
			"keyword": {Type: "keyword", IgnoreAbove: KeywordIgnoreAbove},
		},
	}
}

// Keyword is an exact-match-only field.
func Keyword() Property { return Property{Type: "keyword"} }

// Integer is a whole-number field.
func Integer() Property { return Property{Type: "integer"} }

// Float is a floating-point field.
func Float() Property { return Property{Type: "float"} }

// Date stores ISO-8601 date-times without timezone.
func Date() Property {
	return Property{Type: "date", Format: "yyyy-MM-dd'T'HH:mm:ss"}
}

// GeoPoint stores a composed latitude/longitude pair.
func GeoPoint() Property { return Property{Type: "geo_point"} }

// Dynamic derives a mapping from the sample document's keys: every field
// becomes analyzed text with a keyword sub-field. Used for arbitrary
// datasets where no curated table exists.
type Dynamic struct{}

// Build implements Builder.
func (Dynamic) Build(sample records.Doc) (Mapping, error) {
	if len(sample) == 0 {
		return Mapping{}, fmt.Errorf("dynamic mapping requires a non-empty sample document")
	}
	props := make(map[string]Property, len(sample))
	for name := range sample {
		props[name] = Text()
	}
	return Mapping{Properties: props}, nil
}

// Static returns a pre-curated mapping regardless of the sample. Fields seen
// in documents but absent from the table are left to the engine's default
// inference (see Mapping.Unmapped).
type Static struct {
	Table map[string]Property
}

// Build implements Builder.
func (s Static) Build(records.Doc) (Mapping, error) {
	if len(s.Table) == 0 {
		return Mapping{}, fmt.Errorf("static mapping table is empty")
	}
	props := make(map[string]Property, len(s.Table))
	for name, p := range s.Table {
		props[name] = p
	}
	return Mapping{Properties: props}, nil
}
