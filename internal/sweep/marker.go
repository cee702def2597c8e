package sweep

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// The analyzer writes the DTF marker distance into the third column of the
// fourteenth line of each test's CSV export.
const (
	markerLine  = 13
	markerField = 2
)

// MarkerReader yields the DTF marker value stored in a test's CSV asset.
type MarkerReader interface {
	Marker(asset string) (float64, error)
}

// DirMarkers reads markers from asset files beneath a report directory.
type DirMarkers string

func (d DirMarkers) Marker(asset string) (float64, error) {
	return ReadMarker(string(d), asset)
}

// ReadMarker opens asset relative to baseDir and extracts the marker value.
func ReadMarker(baseDir, asset string) (float64, error) {
	f, err := os.Open(AssetPath(baseDir, asset))
	if err != nil {
		return 0, newError(ErrAssetRead, asset, err)
	}
	defer f.Close()
	return parseMarker(asset, f)
}

// AssetPath resolves an asset reference from the report against baseDir.
// The analyzer writes Windows separators; both forms are accepted.
func AssetPath(baseDir, asset string) string {
	p := filepath.FromSlash(strings.ReplaceAll(asset, `\`, "/"))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func parseMarker(asset string, r io.Reader) (float64, error) {
	br := bufio.NewReader(r)

	var line string
	n := 0
	for n <= markerLine {
		s, err := br.ReadString('\n')
		if s != "" {
			line = strings.TrimRight(s, "\r\n")
			n++
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, newError(ErrAssetRead, asset, err)
		}
	}
	if n <= markerLine {
		return 0, newError(ErrMalformedAsset, asset, fmt.Errorf("%d lines, need at least %d", n, markerLine+1))
	}

	fields := strings.Split(line, ",")
	if len(fields) <= markerField {
		return 0, newError(ErrMalformedAsset, asset, fmt.Errorf("line %d has %d fields, need at least %d", markerLine+1, len(fields), markerField+1))
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[markerField]), 64)
	if err != nil {
		return 0, newError(ErrMarkerParse, asset, err)
	}
	return v, nil
}
