package roots

import (
	"errors"
	"fmt"

	"github.com/haivivi/roots/pkg/audio/pcm"
	"github.com/haivivi/roots/pkg/encoding"
)

var (
	// ErrEncoding is returned for malformed base64 input.
	ErrEncoding = encoding.ErrInvalidBase64

	// ErrMalformedAudio is returned when PCM bytes cannot form a buffer.
	ErrMalformedAudio = pcm.ErrMalformedAudio

	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("roots: empty response from model")

	// ErrNoAudioData is returned when a speech response carries no audio.
	ErrNoAudioData = errors.New("roots: no audio data returned")

	// ErrNoImageData is returned when an image response carries no image.
	ErrNoImageData = errors.New("roots: no image generated")

	// ErrNoPlayer is returned by Speak on a Client without a Player.
	ErrNoPlayer = errors.New("roots: no audio player configured")

	// ErrMissingInput is returned when a required attachment is absent.
	ErrMissingInput = errors.New("roots: missing input")
)

// SchemaViolationError reports model output that does not match the response
// schema of its use case. Raw holds the text as received.
type SchemaViolationError struct {
	Kind Kind
	Raw  string
	Err  error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("roots: %s response violates schema: %v", e.Kind, e.Err)
}

func (e *SchemaViolationError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a failed round trip to the model, including provider
// errors, blocked or truncated generations (*genx.State) and context
// cancellation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("roots: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
