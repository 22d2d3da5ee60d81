package resampler

import "github.com/haivivi/roots/pkg/audio/pcm"

// Remix changes the channel count of buf. Mono input is duplicated onto every
// output channel; any other layout is first averaged down to mono. The
// result shares no memory with buf.
func Remix(buf *pcm.FloatBuffer, channels int) *pcm.FloatBuffer {
	if channels < 1 || len(buf.Channels) == channels {
		return clone(buf)
	}
	mono := buf.Channels[0]
	if len(buf.Channels) > 1 {
		mono = make([]float32, buf.Frames())
		for i := range mono {
			var sum float32
			for _, ch := range buf.Channels {
				sum += ch[i]
			}
			mono[i] = sum / float32(len(buf.Channels))
		}
	}
	out := &pcm.FloatBuffer{
		SampleRate: buf.SampleRate,
		Channels:   make([][]float32, channels),
	}
	for c := range out.Channels {
		out.Channels[c] = append([]float32(nil), mono...)
	}
	return out
}
