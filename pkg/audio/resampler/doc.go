// Package resampler converts decoded audio buffers between sample rates and
// channel layouts so they can be played on devices that do not accept the
// source format directly.
//
// Rate conversion uses the pure Go resampler from
// github.com/tphakala/go-audio-resampling at high quality.
//
// Example usage:
//
//	out, err := resampler.Resample(buf, 48000)
//	stereo := resampler.Remix(out, 2)
package resampler
