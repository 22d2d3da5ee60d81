// Package encoding provides the textual encodings used for binary
// attachments: standard base64 and data URLs.
package encoding

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBase64 is returned when a payload is not valid standard base64.
var ErrInvalidBase64 = errors.New("encoding: invalid base64")

// DecodeBase64 decodes standard (padded) base64. Whitespace and line breaks
// anywhere in text are ignored.
func DecodeBase64(text string) ([]byte, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, text)
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return b, nil
}

// EncodeBase64 encodes data as standard padded base64.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// StdBase64Data is a byte slice that serializes to/from standard base64 in JSON.
type StdBase64Data []byte

// MarshalJSON implements json.Marshaler.
func (b StdBase64Data) MarshalJSON() ([]byte, error) {
	return []byte(`"` + EncodeBase64(b) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *StdBase64Data) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return errors.New("unmarshal json base64 data: empty data")
	}
	switch data[0] {
	case 'n': // null
		return nil
	case '"':
		if len(data) < 2 || data[len(data)-1] != '"' {
			return errors.New("unmarshal json base64 data: invalid string")
		}
		decoded, err := DecodeBase64(string(data[1 : len(data)-1]))
		if err != nil {
			return err
		}
		*b = decoded
		return nil
	default:
		return fmt.Errorf("invalid base64 data: %s", string(data))
	}
}

// MarshalText implements encoding.TextMarshaler so YAML output carries the
// base64 form as well.
func (b StdBase64Data) MarshalText() ([]byte, error) {
	return []byte(EncodeBase64(b)), nil
}

// String returns the base64-encoded string representation.
func (b StdBase64Data) String() string {
	return EncodeBase64(b)
}
