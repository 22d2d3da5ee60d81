package resampler

import (
	"errors"
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/haivivi/roots/pkg/audio/pcm"
)

// tailMillis is the length of silence fed after the signal so that samples
// held back by the filter delay are emitted.
const tailMillis = 50

// Resample converts buf to dstRate. The result has
// round(frames * dstRate / srcRate) frames per channel. When the rates match,
// a copy of buf is returned.
func Resample(buf *pcm.FloatBuffer, dstRate int) (*pcm.FloatBuffer, error) {
	if buf == nil || len(buf.Channels) == 0 {
		return nil, errors.New("resampler: empty buffer")
	}
	if buf.SampleRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rate %d -> %d", buf.SampleRate, dstRate)
	}
	if buf.SampleRate == dstRate {
		return clone(buf), nil
	}

	channels := len(buf.Channels)
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(buf.SampleRate),
		OutputRate: float64(dstRate),
		Channels:   channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: create: %w", err)
	}

	frames := buf.Frames()
	tail := buf.SampleRate * tailMillis / 1000
	input := make([]float64, (frames+tail)*channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			input[i*channels+c] = float64(buf.Channels[c][i])
		}
	}
	output, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resampler: process: %w", err)
	}

	want := int((int64(frames)*int64(dstRate) + int64(buf.SampleRate)/2) / int64(buf.SampleRate))
	out := &pcm.FloatBuffer{
		SampleRate: dstRate,
		Channels:   make([][]float32, channels),
	}
	got := len(output) / channels
	for c := range out.Channels {
		ch := make([]float32, want)
		for i := 0; i < want && i < got; i++ {
			ch[i] = clip(output[i*channels+c])
		}
		out.Channels[c] = ch
	}
	return out, nil
}

func clip(s float64) float32 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return float32(s)
}

func clone(buf *pcm.FloatBuffer) *pcm.FloatBuffer {
	out := &pcm.FloatBuffer{
		SampleRate: buf.SampleRate,
		Channels:   make([][]float32, len(buf.Channels)),
	}
	for c, ch := range buf.Channels {
		out.Channels[c] = append([]float32(nil), ch...)
	}
	return out
}
