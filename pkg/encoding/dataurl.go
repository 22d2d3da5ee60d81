package encoding

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURL is returned by ParseDataURL for strings that are not
// base64 data URLs.
var ErrInvalidDataURL = errors.New("encoding: invalid data url")

// FormatDataURL returns data as "data:<mime>;base64,<payload>".
func FormatDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + EncodeBase64(data)
}

// ParseDataURL splits a base64 data URL into its MIME type and decoded
// payload. Only the base64 form is accepted; extra media type parameters
// before ";base64" are kept in the returned MIME type.
func ParseDataURL(s string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURL)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload separator", ErrInvalidDataURL)
	}
	mimeType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURL)
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}
	data, err = DecodeBase64(payload)
	if err != nil {
		return "", nil, err
	}
	return mimeType, data, nil
}
