// Package csv reads comma-separated input into raw records. Header handling
// is strict where it has to be (duplicate headers are a configuration error,
// raised before any indexing begins) and tolerant where real-world exports
// are sloppy: short rows are padded with empty trailing cells, over-long rows
// are skipped and counted.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"simindex/internal/records"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\ufeff"

// Options configures the CSV parser behavior. All fields are optional;
// sensible defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each cell.
	TrimSpace bool

	// HeaderMap maps source header names to canonical keys. Headers not in
	// the map are kept as-is (minus trim and BOM).
	HeaderMap map[string]string

	// Logger receives per-row skip notices. Nil disables them.
	Logger *slog.Logger
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// skipLogLimit caps how many individual skip notices are logged per parse.
const skipLogLimit = 400

// Parse consumes CSV rows from r and returns them in file order along with
// the number of rows dropped by the width policy. The first row is the
// header and defines the column set for every record.
//
// Width policy: rows with fewer cells than the header are padded with empty
// trailing cells (missing-trailing-fields behave like absent values); rows
// with more cells than the header are structural errors and are skipped.
func (p *Parser) Parse(r io.Reader) ([]records.Raw, int, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1 // width enforced below, per documented policy
	cr.LazyQuotes = true

	hdr, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	columns, err := p.headerColumns(hdr)
	if err != nil {
		return nil, 0, err
	}

	var out []records.Raw
	var skipped int
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.skip(&skipped, line, fmt.Sprintf("csv read: %v", err))
			continue
		}
		if len(row) > len(columns) {
			p.skip(&skipped, line, fmt.Sprintf("too many fields (expected %d, got %d)", len(columns), len(row)))
			continue
		}

		cells := make([]string, len(columns))
		for i := range columns {
			if i >= len(row) {
				continue // padded as empty
			}
			v := row[i]
			if p.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			cells[i] = v
		}
		out = append(out, records.Raw{Columns: columns, Cells: cells})
	}

	return out, skipped, nil
}

func (p *Parser) skip(skipped *int, line int, reason string) {
	if p.opt.Logger != nil && *skipped < skipLogLimit {
		p.opt.Logger.Warn("skipping row", "line", line, "reason", reason)
	}
	*skipped++
}

// headerColumns canonicalizes the header row and rejects duplicates. A
// duplicate header would silently alias two source columns onto one field,
// so it is a configuration error rather than a soft skip.
func (p *Parser) headerColumns(hdr []string) ([]string, error) {
	columns := make([]string, len(hdr))
	seen := make(map[string]int, len(hdr))
	for i, col := range hdr {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if mapped, ok := p.opt.HeaderMap[c]; ok && mapped != "" {
			c = mapped
		}
		if c == "" {
			return nil, fmt.Errorf("empty header name in column %d", i+1)
		}
		if prev, dup := seen[c]; dup {
			return nil, fmt.Errorf("duplicate header %q in columns %d and %d", c, prev+1, i+1)
		}
		seen[c] = i
		columns[i] = c
	}
	return columns, nil
}
