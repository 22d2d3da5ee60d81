package pcm

import (
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"
)

// DefaultSampleRate is the rate assumed for L16 payloads whose MIME type
// carries no rate parameter. Synthesized speech arrives at this rate.
const DefaultSampleRate = 24000

var (
	// L16Mono16K represents audio/L16; rate=16000; channels=1
	L16Mono16K = Format{SampleRate: 16000, Channels: 1}
	// L16Mono24K represents audio/L16; rate=24000; channels=1
	L16Mono24K = Format{SampleRate: 24000, Channels: 1}
	// L16Mono48K represents audio/L16; rate=48000; channels=1
	L16Mono48K = Format{SampleRate: 48000, Channels: 1}
	// L16Stereo48K represents audio/L16; rate=48000; channels=2
	L16Stereo48K = Format{SampleRate: 48000, Channels: 2}
)

// ErrUnsupportedFormat is returned by ParseMIME for media types that are not
// raw 16-bit PCM.
var ErrUnsupportedFormat = errors.New("pcm: unsupported audio format")

// Format describes 16-bit linear PCM with interleaved channels.
type Format struct {
	SampleRate int
	Channels   int
}

// ParseMIME parses a raw PCM media type such as
// "audio/L16;codec=pcm;rate=24000" or "audio/pcm; rate=16000; channels=2".
// Missing rate and channels parameters default to DefaultSampleRate and mono.
func ParseMIME(s string) (Format, error) {
	mediaType, params, err := mime.ParseMediaType(s)
	if err != nil {
		return Format{}, fmt.Errorf("pcm: parse mime %q: %w", s, err)
	}
	switch mediaType {
	case "audio/l16", "audio/pcm", "audio/raw":
	default:
		return Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaType)
	}
	f := Format{SampleRate: DefaultSampleRate, Channels: 1}
	if v, ok := params["rate"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return Format{}, fmt.Errorf("pcm: invalid rate %q", v)
		}
		f.SampleRate = n
	}
	if v, ok := params["channels"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return Format{}, fmt.Errorf("pcm: invalid channels %q", v)
		}
		f.Channels = n
	}
	return f, nil
}

// FrameBytes returns the size in bytes of one frame (one sample per channel).
func (f Format) FrameBytes() int {
	return 2 * f.Channels
}

// SamplesInDuration returns the number of frames in the given duration.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.SamplesInDuration(d) * int64(f.FrameBytes())
}

// Duration returns the playing time of n bytes in this format.
func (f Format) Duration(n int64) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := n / int64(f.FrameBytes())
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// String returns the media type of the format.
func (f Format) String() string {
	return fmt.Sprintf("audio/L16; rate=%d; channels=%d", f.SampleRate, f.Channels)
}
