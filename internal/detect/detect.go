// Package detect sniffs the character encoding of a byte sample and builds
// decoding readers for the detected charset.
//
// Detection is best-effort by contract: it never fails the run. When the
// detector has no confident answer (or the sample is empty) the caller gets
// UTF-8, which is also the pass-through decoding.
package detect

import (
	"io"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Fallback is the charset assumed when detection fails or confidence is low.
const Fallback = "UTF-8"

// minConfidence is the detector confidence (0-100) below which the result is
// discarded in favor of the fallback.
const minConfidence = 30

// Detect returns the best-guess charset name for sample. It always returns a
// usable name; a nil or undetectable sample yields Fallback.
func Detect(sample []byte) string {
	if len(sample) == 0 {
		return Fallback
	}
	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || res == nil || res.Confidence < minConfidence || res.Charset == "" {
		return Fallback
	}
	return res.Charset
}

// NewReader wraps r so that bytes in the named charset come out as UTF-8.
// Unknown or UTF-8 charsets return r unchanged; decoding must not block
// parsing, so there is no error path.
func NewReader(r io.Reader, charset string) io.Reader {
	if charset == "" || charset == Fallback || charset == "UTF-8-BOM" {
		return r
	}
	enc, err := htmlindex.Get(charset)
	if err != nil || enc == nil {
		return r
	}
	return transform.NewReader(r, enc.NewDecoder())
}
