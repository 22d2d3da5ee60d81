// Package pcm converts between raw 16-bit linear PCM (audio/L16) byte
// streams and per-channel floating point buffers.
//
// Samples on the wire are little-endian signed 16-bit integers with channels
// interleaved frame by frame. Decoded samples are normalized to [-1.0, 1.0]
// by dividing by 32768.
//
// Example usage:
//
//	format, err := pcm.ParseMIME("audio/L16;codec=pcm;rate=24000")
//	buf, err := pcm.DecodeL16(data, format.SampleRate, format.Channels)
//	samples := buf.Int16s(0.8) // interleaved, with gain applied
package pcm
