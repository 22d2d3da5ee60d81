package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedAudio is returned when PCM bytes cannot form a buffer.
var ErrMalformedAudio = errors.New("pcm: malformed audio")

// FloatBuffer holds de-interleaved samples normalized to [-1.0, 1.0].
// Every channel has the same length.
type FloatBuffer struct {
	SampleRate int
	Channels   [][]float32
}

// DecodeL16 reinterprets data as little-endian int16 samples interleaved over
// channels and splits them into one slice per channel, dividing each value by
// 32768. Bytes after the last complete frame are dropped.
func DecodeL16(data []byte, sampleRate, channels int) (*FloatBuffer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: channels=%d", ErrMalformedAudio, channels)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedAudio)
	}
	frames := len(data) / 2 / channels
	if frames == 0 {
		return nil, fmt.Errorf("%w: %d bytes is less than one frame of %d channels", ErrMalformedAudio, len(data), channels)
	}
	buf := &FloatBuffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for c := range buf.Channels {
		buf.Channels[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			v := int16(binary.LittleEndian.Uint16(data[off:]))
			buf.Channels[c][i] = float32(v) / 32768
		}
	}
	return buf, nil
}

// EncodeL16 interleaves buf back into little-endian int16 bytes. Samples are
// scaled by 32768 and clipped to the int16 range.
func EncodeL16(buf *FloatBuffer) []byte {
	samples := buf.Int16s(1)
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// AppendL16 appends interleaved int16 samples as little-endian bytes.
func AppendL16(dst []byte, samples ...int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}

// Format returns the wire format of the buffer.
func (b *FloatBuffer) Format() Format {
	return Format{SampleRate: b.SampleRate, Channels: len(b.Channels)}
}

// Frames returns the number of samples per channel.
func (b *FloatBuffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playing time of the buffer.
func (b *FloatBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Int16s returns the samples interleaved frame by frame with gain applied,
// clipped to the int16 range.
func (b *FloatBuffer) Int16s(gain float32) []int16 {
	return b.AppendInt16s(make([]int16, 0, b.Frames()*len(b.Channels)), 0, b.Frames(), gain)
}

// AppendInt16s appends frames [start, end) to dst, interleaved, with gain
// applied and clipped to the int16 range. The range is clamped to the buffer.
func (b *FloatBuffer) AppendInt16s(dst []int16, start, end int, gain float32) []int16 {
	end = min(end, b.Frames())
	for i := max(start, 0); i < end; i++ {
		for _, ch := range b.Channels {
			dst = append(dst, toInt16(ch[i]*gain))
		}
	}
	return dst
}

func toInt16(s float32) int16 {
	v := math.Round(float64(s) * 32768)
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
