// Package records defines the row and document types flowing through the
// indexing pipeline.
//
// A Raw holds one CSV row exactly as read: ordered columns, string cells,
// no type inference. A Doc is the normalized form: field name → Value, where
// Value is a closed variant (null, string, int, float, ISO date string,
// geo-point). The variant exists so that nothing upstream of JSON
// serialization can smuggle a NaN, a zero time, or any other in-memory
// sentinel into the bulk request body; absence is always an explicit null.
package records

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// Raw is a single source row: Columns preserves file order, Cells holds the
// raw string values aligned with Columns. A Raw is built once by the parser,
// consumed by the normalizer, and never mutated.
type Raw struct {
	Columns []string
	Cells   []string
}

// Get returns the raw cell for column name and whether the column exists.
func (r Raw) Get(name string) (string, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Cells[i], true
		}
	}
	return "", false
}

// Kind enumerates the closed set of value shapes a normalized field may take.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindDate // ISO-8601 date-time string, no timezone
	KindGeo
)

// GeoPoint combines latitude and longitude for spatial indexing.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Value is the tagged variant held by Doc fields. The zero Value is Null.
// Construct values through the Null/String/Int/Float/Date/Geo helpers; they
// enforce the serialization invariants (e.g. NaN collapses to Null).
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	geo  GeoPoint
}

// Null is the explicit missing value.
func Null() Value { return Value{} }

// String wraps a plain text value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int wraps an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float value. NaN and Inf are not representable in JSON and
// collapse to Null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindFloat, f: f}
}

// DateLayout is the ISO-8601 rendering used for all stored date-times.
const DateLayout = "2006-01-02T15:04:05"

// Date renders t as an ISO-8601 date-time string value. The zero time is a
// Go-native "not-a-time" sentinel and collapses to Null.
func Date(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindDate, s: t.Format(DateLayout)}
}

// Geo wraps a composed latitude/longitude pair. Non-finite components
// collapse to Null so a partial or poisoned point can never be stored.
func Geo(lat, lon float64) Value {
	for _, f := range [2]float64{lat, lon} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}
		}
	}
	return Value{kind: KindGeo, geo: GeoPoint{Lat: lat, Lon: lon}}
}

// Kind reports the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the explicit missing value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// StringVal returns the string payload for KindString and KindDate values.
func (v Value) StringVal() string { return v.s }

// IntVal returns the integer payload for KindInt values.
func (v Value) IntVal() int64 { return v.i }

// FloatVal returns the float payload for KindFloat values.
func (v Value) FloatVal() float64 { return v.f }

// GeoVal returns the geo payload for KindGeo values.
func (v Value) GeoVal() GeoPoint { return v.geo }

// MarshalJSON renders the variant as null, string, number, or object.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString, KindDate:
		return json.Marshal(v.s)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindGeo:
		return json.Marshal(v.geo)
	}
	return nil, fmt.Errorf("records: unknown value kind %d", v.kind)
}

// Doc is a normalized document: field name → Value. Derived once from a Raw,
// then owned by the loader until submitted.
type Doc map[string]Value

// Fields returns the document's field names in sorted order. Used wherever a
// stable iteration order matters (serialization for hashing, tests).
func (d Doc) Fields() []string {
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
