// Package playback drives decoded audio buffers into an output device.
//
// A Player converts a buffer to the device format, passes every sample
// through a gain stage and writes it to an Output in small chunks. Start
// returns as soon as playback has begun; the rest of the buffer is written by
// a background goroutine. Playbacks are independent: starting a second one
// while the first is still running opens a second output and both play at
// the same time.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/haivivi/roots/pkg/audio/pcm"
	"github.com/haivivi/roots/pkg/audio/resampler"
)

// DefaultChunkDuration is the amount of audio handed to the output per write.
const DefaultChunkDuration = 20 * time.Millisecond

// ErrEmptyBuffer is returned by Start for buffers without frames.
var ErrEmptyBuffer = errors.New("playback: empty buffer")

// Output is an opened audio sink accepting interleaved int16 samples in the
// format it was opened with. Write blocks until the device has accepted the
// samples and must not retain the slice after returning.
type Output interface {
	Write(samples []int16) error
	Close() error
}

// Opener opens outputs.
type Opener interface {
	Open(format pcm.Format) (Output, error)
}

// OpenFunc adapts a function to Opener.
type OpenFunc func(format pcm.Format) (Output, error)

// Open implements Opener.
func (f OpenFunc) Open(format pcm.Format) (Output, error) {
	return f(format)
}

// Player plays FloatBuffers through outputs obtained from Opener.
type Player struct {
	Opener Opener

	// DeviceRate, when non-zero, is the sample rate buffers are resampled to
	// before playback.
	DeviceRate int

	// DeviceChannels, when non-zero, is the channel count buffers are
	// remixed to before playback.
	DeviceChannels int

	// Gain scales every sample written. A nil Gain plays at unity.
	Gain *pcm.Gain

	// ChunkDuration defaults to DefaultChunkDuration.
	ChunkDuration time.Duration

	Logger *slog.Logger
}

func (p *Player) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Player) gain() float32 {
	if p.Gain == nil {
		return 1
	}
	return p.Gain.Load()
}

// Start opens an output for buf and begins playing it. It returns once the
// first chunk has been written; ctx only bounds that start-up phase. The
// returned Playback reports when the whole buffer has been written.
func (p *Player) Start(ctx context.Context, buf *pcm.FloatBuffer) (*Playback, error) {
	if p.Opener == nil {
		return nil, errors.New("playback: no opener configured")
	}
	if buf == nil || buf.Frames() == 0 {
		return nil, ErrEmptyBuffer
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := p.convert(buf)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := buf.Format()
	out, err := p.Opener.Open(format)
	if err != nil {
		return nil, fmt.Errorf("playback: open output %s: %w", format, err)
	}

	chunk := p.ChunkDuration
	if chunk <= 0 {
		chunk = DefaultChunkDuration
	}
	pb := &Playback{
		ID:       uuid.NewString(),
		Format:   format,
		Duration: buf.Duration(),
		done:     make(chan struct{}),
	}
	frames := max(int(format.SamplesInDuration(chunk)), 1)
	log := p.logger().With("playback", pb.ID)

	samples := buf.AppendInt16s(make([]int16, 0, frames*len(buf.Channels)), 0, frames, p.gain())
	if err := out.Write(samples); err != nil {
		out.Close()
		return nil, fmt.Errorf("playback: write: %w", err)
	}
	log.Debug("playback started", "format", format.String(), "duration", pb.Duration)

	go func() {
		defer close(pb.done)
		var err error
		for start := frames; start < buf.Frames() && err == nil; start += frames {
			samples = buf.AppendInt16s(samples[:0], start, start+frames, p.gain())
			err = out.Write(samples)
		}
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			pb.err = fmt.Errorf("playback: %w", err)
			log.Warn("playback failed", "error", err)
			return
		}
		log.Debug("playback finished")
	}()
	return pb, nil
}

func (p *Player) convert(buf *pcm.FloatBuffer) (*pcm.FloatBuffer, error) {
	if p.DeviceChannels > 0 && p.DeviceChannels != len(buf.Channels) {
		buf = resampler.Remix(buf, p.DeviceChannels)
	}
	if p.DeviceRate > 0 && p.DeviceRate != buf.SampleRate {
		out, err := resampler.Resample(buf, p.DeviceRate)
		if err != nil {
			return nil, fmt.Errorf("playback: %w", err)
		}
		buf = out
	}
	return buf, nil
}

// Playback is one running playback started by Player.Start.
type Playback struct {
	ID       string
	Format   pcm.Format
	Duration time.Duration

	done chan struct{}
	err  error
}

// Done is closed when every sample has been written and the output closed.
func (pb *Playback) Done() <-chan struct{} {
	return pb.done
}

// Err returns the error that ended playback early. It is nil until Done is
// closed.
func (pb *Playback) Err() error {
	select {
	case <-pb.done:
		return pb.err
	default:
		return nil
	}
}

// Wait blocks until playback finishes or ctx is done. Cancelling ctx does not
// stop the playback itself.
func (pb *Playback) Wait(ctx context.Context) error {
	select {
	case <-pb.done:
		return pb.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
