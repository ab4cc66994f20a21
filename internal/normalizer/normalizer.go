// Package normalizer turns raw CSV rows into typed documents ready for bulk
// indexing.
//
// The transformation is pure and lossy-tolerant: a field that fails its
// coercion rule degrades to an explicit null, never aborting the record.
// Every raw row yields exactly one document.
package normalizer

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"simindex/internal/records"
)

// DefaultDateLayout parses day-month-year without separators, the format
// used by SIM mortality extracts (e.g. "01012020").
const DefaultDateLayout = "02012006"

// Geo column suffixes and the derived field suffix. A prefix p composes
// p_LATITUDE and p_LONGITUDE into p_coordenadas.
const (
	latSuffix = "_LATITUDE"
	lonSuffix = "_LONGITUDE"
	geoSuffix = "_coordenadas"
)

// defaultNATokens are source spellings of "missing" beyond the empty string.
var defaultNATokens = []string{"NA", "N/A", "NaN", "nan", "null", "NULL"}

// Rules declares the per-field coercions for a dataset. Fields not named by
// any rule pass through as strings.
type Rules struct {
	// DateFields are parsed with DateLayout and stored as ISO-8601 strings.
	DateFields []string `json:"date_fields"`

	// DateLayout is the Go reference layout for DateFields. Empty means
	// DefaultDateLayout.
	DateLayout string `json:"date_layout"`

	// IntFields and FloatFields are coerced numerically.
	IntFields   []string `json:"int_fields"`
	FloatFields []string `json:"float_fields"`

	// GeoPrefixes lists prefixes whose <p>_LATITUDE/<p>_LONGITUDE columns
	// compose into a <p>_coordenadas geo-point.
	GeoPrefixes []string `json:"geo_prefixes"`

	// DateCompanions maps a raw date field to a derived human-facing field
	// carrying the same ISO string (e.g. DTOBITO → data_obito). The derived
	// field is always emitted, null when the source did not parse.
	DateCompanions map[string]string `json:"date_companions"`

	// NATokens are additional strings treated as missing. The empty string
	// is always missing; when NATokens is nil a default set is used.
	NATokens []string `json:"na_tokens"`
}

// Normalizer applies Rules to raw rows. Build one with New and reuse it for
// the whole run; it precomputes field lookups once.
type Normalizer struct {
	layout     string
	dates      map[string]struct{}
	ints       map[string]struct{}
	floats     map[string]struct{}
	geo        []string
	companions map[string]string
	na         map[string]struct{}
	log        *slog.Logger
}

// New builds a Normalizer from rules. The logger receives per-field coercion
// failures; nil disables that observability channel.
func New(rules Rules, log *slog.Logger) *Normalizer {
	layout := rules.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	tokens := rules.NATokens
	if tokens == nil {
		tokens = defaultNATokens
	}
	n := &Normalizer{
		layout:     layout,
		dates:      toSet(rules.DateFields),
		ints:       toSet(rules.IntFields),
		floats:     toSet(rules.FloatFields),
		geo:        rules.GeoPrefixes,
		companions: rules.DateCompanions,
		na:         toSet(tokens),
		log:        log,
	}
	return n
}

func toSet(ss []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		m[s] = struct{}{}
	}
	return m
}

// Normalize converts one raw row into a document. Coercion failures degrade
// to null per field; the record itself always survives.
func (n *Normalizer) Normalize(raw records.Raw) records.Doc {
	doc := make(records.Doc, len(raw.Columns)+len(n.geo)+len(n.companions))

	for i, col := range raw.Columns {
		doc[col] = n.coerce(col, raw.Cells[i])
	}

	// Geo composition: the derived field exists whenever both source columns
	// exist in the header; it is null unless both values are numeric.
	for _, prefix := range n.geo {
		latRaw, latOK := raw.Get(prefix + latSuffix)
		lonRaw, lonOK := raw.Get(prefix + lonSuffix)
		if !latOK || !lonOK {
			continue
		}
		doc[prefix+geoSuffix] = n.composeGeo(prefix, latRaw, lonRaw)
	}

	// Date companions are always emitted, mirroring the stored raw date.
	for src, dst := range n.companions {
		v, ok := doc[src]
		if ok && v.Kind() == records.KindDate {
			doc[dst] = v
		} else {
			doc[dst] = records.Null()
		}
	}

	return doc
}

// coerce applies the field's declared rule to one raw cell.
func (n *Normalizer) coerce(col, cell string) records.Value {
	if n.missing(cell) {
		return records.Null()
	}

	switch {
	case n.has(n.dates, col):
		t, err := time.Parse(n.layout, cell)
		if err != nil {
			n.dropped(col, cell, "date")
			return records.Null()
		}
		return records.Date(t)

	case n.has(n.ints, col):
		i, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			// SIM extracts sometimes render integers as "12.0"; salvage
			// those before giving up.
			if f, ferr := strconv.ParseFloat(cell, 64); ferr == nil && f == float64(int64(f)) {
				return records.Int(int64(f))
			}
			n.dropped(col, cell, "int")
			return records.Null()
		}
		return records.Int(i)

	case n.has(n.floats, col):
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			n.dropped(col, cell, "float")
			return records.Null()
		}
		return records.Float(f)
	}

	return records.String(cell)
}

func (n *Normalizer) composeGeo(prefix, latRaw, lonRaw string) records.Value {
	lat, okLat := n.numeric(latRaw)
	lon, okLon := n.numeric(lonRaw)
	if !okLat || !okLon {
		return records.Null()
	}
	return records.Geo(lat, lon)
}

// numeric parses a raw cell as float, treating missing tokens as absent.
func (n *Normalizer) numeric(cell string) (float64, bool) {
	if n.missing(cell) {
		return 0, false
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (n *Normalizer) missing(cell string) bool {
	if cell == "" {
		return true
	}
	_, ok := n.na[strings.TrimSpace(cell)]
	return ok
}

func (n *Normalizer) has(set map[string]struct{}, col string) bool {
	_, ok := set[col]
	return ok
}

func (n *Normalizer) dropped(col, cell, kind string) {
	if n.log != nil {
		n.log.Debug("coercion failed, field set to null", "field", col, "kind", kind, "value", cell)
	}
}
