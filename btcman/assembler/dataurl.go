package assembler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrMalformedDataURL = errors.New("malformed data url, want data:<mime>;base64,<payload>")

	dataURLPattern = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)
)

// DataURL is a decoded "data:<mime>;base64,<payload>" string.
type DataURL struct {
	MimeType string // as declared
	Data     []byte
	Detected string // sniffed from Data
}

// MimeMatches reports whether the declared type agrees with the sniffed one.
func (d *DataURL) MimeMatches() bool {
	return mimetype.Detect(d.Data).Is(d.MimeType)
}

// ParseDataURL decodes a base64 data url.
func ParseDataURL(s string) (*DataURL, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, ErrMalformedDataURL
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDataURL, err)
	}
	return &DataURL{
		MimeType: m[1],
		Data:     data,
		Detected: mimetype.Detect(data).String(),
	}, nil
}
