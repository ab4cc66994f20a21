package parser

import (
	"io"

	"simindex/internal/records"
)

// Parser reads delimited input and returns the rows in file order, plus the
// number of rows dropped by the structural-error policy.
type Parser interface {
	Parse(r io.Reader) ([]records.Raw, int, error)
}
