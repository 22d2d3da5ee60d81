package roots

import (
	"context"

	"github.com/haivivi/roots/pkg/audio/pcm"
	"github.com/haivivi/roots/pkg/audio/playback"
	"github.com/haivivi/roots/pkg/genx"
)

// Speech is synthesized narration.
type Speech struct {
	// MIMEType is the media type reported by the model.
	MIMEType string
	Format   pcm.Format
	// PCM holds the raw little-endian interleaved samples.
	PCM    []byte
	Buffer *pcm.FloatBuffer
}

// GenerateSpeech synthesizes text with the Fenrir voice. The audio is decoded
// at the rate and channel count carried by its MIME type, 24 kHz mono when
// absent.
func (c *Client) GenerateSpeech(ctx context.Context, text string) (*Speech, error) {
	uc := useCases[KindSpeech]
	mcb := &genx.ModelContextBuilder{Params: uc.params}
	mcb.UserText("", text)

	resp, err := c.generator().Generate(ctx, c.Model(KindSpeech), mcb.Build())
	if err != nil {
		return nil, &NetworkError{Op: KindSpeech.String(), Err: err}
	}
	blob := resp.FirstBlob("audio/")
	if blob == nil || len(blob.Data) == 0 {
		return nil, ErrNoAudioData
	}
	format, err := pcm.ParseMIME(blob.MIMEType)
	if err != nil {
		c.logger().Debug("roots: speech mime not understood, assuming 24kHz mono", "mime", blob.MIMEType, "err", err)
		format = pcm.L16Mono24K
	}
	buf, err := pcm.DecodeL16(blob.Data, format.SampleRate, format.Channels)
	if err != nil {
		return nil, err
	}
	return &Speech{
		MIMEType: blob.MIMEType,
		Format:   format,
		PCM:      blob.Data,
		Buffer:   buf,
	}, nil
}

// Speak synthesizes text and starts playing it. It returns once playback has
// started; the returned Playback reports completion. Concurrent calls play
// at the same time.
func (c *Client) Speak(ctx context.Context, text string) (*playback.Playback, error) {
	if c.Player == nil {
		return nil, ErrNoPlayer
	}
	speech, err := c.GenerateSpeech(ctx, text)
	if err != nil {
		return nil, err
	}
	return c.Player.Start(ctx, speech.Buffer)
}
