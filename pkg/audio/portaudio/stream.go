package portaudio

import (
	"time"

	"github.com/haivivi/roots/pkg/audio/pcm"
	"github.com/haivivi/roots/pkg/audio/playback"
)

// OutputStream plays interleaved int16 samples on the default output device.
// It satisfies playback.Output.
type OutputStream struct {
	stream *stream
	format pcm.Format
}

var _ playback.Output = (*OutputStream)(nil)

// NewOutputStream opens and starts an output stream.
// format: PCM format (e.g., pcm.L16Mono24K)
// bufferDuration: duration of the device write buffer (e.g., 20ms)
func NewOutputStream(format pcm.Format, bufferDuration time.Duration) (*OutputStream, error) {
	frames := max(int(format.SamplesInDuration(bufferDuration)), 1)
	s, err := openOutput(format.Channels, float64(format.SampleRate), frames)
	if err != nil {
		return nil, err
	}
	return &OutputStream{stream: s, format: format}, nil
}

// Write blocks until the device has accepted samples.
func (os *OutputStream) Write(samples []int16) error {
	return os.stream.write(samples)
}

// Format returns the PCM format the stream was opened with.
func (os *OutputStream) Format() pcm.Format {
	return os.format
}

// Close stops and closes the stream.
func (os *OutputStream) Close() error {
	return os.stream.close()
}

// Opener returns a playback.Opener that opens default-device streams with
// the given buffer duration.
func Opener(bufferDuration time.Duration) playback.Opener {
	return playback.OpenFunc(func(format pcm.Format) (playback.Output, error) {
		return NewOutputStream(format, bufferDuration)
	})
}
