package bundle

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// asciiOnly drops every rune outside the ASCII range. Invalid UTF-8 decodes
// as utf8.RuneError and is dropped with the rest; so is a leading BOM.
func asciiOnly() transform.Transformer {
	return runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII }))
}

// Decode strips non-ASCII bytes from r and decodes the remaining XML into a
// Bundle. The exporter has shipped files with stray Latin-1 bytes in free-text
// fields and a mismatched encoding declaration, so the declared charset is
// ignored: after stripping, the stream is plain ASCII.
func Decode(r io.Reader) (*Bundle, error) {
	dec := xml.NewDecoder(transform.NewReader(r, asciiOnly()))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	var b Bundle
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode bundle: empty document")
		}
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}

// Load reads and decodes the report at path. It also returns the directory
// containing the report, which is the base for the report's asset paths.
func Load(path string) (*Bundle, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	b, err := Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return b, filepath.Dir(path), nil
}
