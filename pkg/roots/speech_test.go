package roots

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/haivivi/roots/pkg/audio/pcm"
	"github.com/haivivi/roots/pkg/audio/playback"
	"github.com/haivivi/roots/pkg/genx"
	"github.com/haivivi/roots/pkg/genx/modelloader"
)

func speechResponse(mime string, samples ...int16) *genx.Response {
	return &genx.Response{Contents: genx.Contents{
		&genx.Blob{MIMEType: mime, Data: pcm.AppendL16(nil, samples...)},
	}}
}

func TestGenerateSpeech(t *testing.T) {
	g := &fakeGenerator{resp: speechResponse("audio/L16;codec=pcm;rate=24000", 0, 16384, -32768, 32767)}
	c := newTestClient(g)

	sp, err := c.GenerateSpeech(context.Background(), "Breathe in.")
	if err != nil {
		t.Fatalf("GenerateSpeech error: %v", err)
	}
	if sp.Format != pcm.L16Mono24K {
		t.Errorf("Format = %v", sp.Format)
	}
	want := []float32{0, 0.5, -1, 32767.0 / 32768.0}
	ch := sp.Buffer.Channels[0]
	if len(ch) != len(want) {
		t.Fatalf("frames = %d, want %d", len(ch), len(want))
	}
	for i := range want {
		if ch[i] != want[i] {
			t.Errorf("sample[%d] = %v, want %v", i, ch[i], want[i])
		}
	}

	got := g.lastCall()
	if got.model != modelloader.GeminiFlashTTS {
		t.Errorf("model = %q", got.model)
	}
	if got.params == nil || got.params.Voice != "Fenrir" || !got.params.HasModality(genx.ModalityAudio) {
		t.Errorf("params = %+v", got.params)
	}
	if got.messages[0].Contents[0] != genx.Text("Breathe in.") {
		t.Errorf("text = %v", got.messages[0].Contents[0])
	}
}

func TestGenerateSpeech_Formats(t *testing.T) {
	tests := []struct {
		name   string
		mime   string
		format pcm.Format
		frames int
	}{
		{"no rate", "audio/L16", pcm.L16Mono24K, 4},
		{"other rate", "audio/L16;rate=16000", pcm.L16Mono16K, 4},
		{"stereo", "audio/pcm;rate=48000;channels=2", pcm.L16Stereo48K, 2},
		{"unknown mime", "audio/x-unknown", pcm.L16Mono24K, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGenerator{resp: speechResponse(tt.mime, 1, 2, 3, 4)}
			sp, err := newTestClient(g).GenerateSpeech(context.Background(), "x")
			if err != nil {
				t.Fatal(err)
			}
			if sp.Format != tt.format || sp.Buffer.Frames() != tt.frames {
				t.Errorf("format = %v frames = %d, want %v %d", sp.Format, sp.Buffer.Frames(), tt.format, tt.frames)
			}
		})
	}
}

func TestGenerateSpeech_Errors(t *testing.T) {
	tests := []struct {
		name string
		g    *fakeGenerator
		want error
	}{
		{"no audio", &fakeGenerator{resp: &genx.Response{Contents: genx.Contents{genx.Text("sorry")}}}, ErrNoAudioData},
		{"empty audio", &fakeGenerator{resp: &genx.Response{Contents: genx.Contents{&genx.Blob{MIMEType: "audio/L16"}}}}, ErrNoAudioData},
		{"partial frame", &fakeGenerator{resp: &genx.Response{Contents: genx.Contents{&genx.Blob{MIMEType: "audio/L16", Data: []byte{1}}}}}, ErrMalformedAudio},
		{"network", &fakeGenerator{err: context.Canceled}, context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(tt.g).GenerateSpeech(context.Background(), "x")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

type countingOutput struct {
	mu      sync.Mutex
	samples int
	closed  bool
}

func (o *countingOutput) Write(samples []int16) error {
	o.mu.Lock()
	o.samples += len(samples)
	o.mu.Unlock()
	return nil
}

func (o *countingOutput) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	return nil
}

func TestSpeak(t *testing.T) {
	samples := make([]int16, 2400)
	g := &fakeGenerator{resp: speechResponse("audio/L16;codec=pcm;rate=24000", samples...)}

	var (
		mu      sync.Mutex
		outputs []*countingOutput
	)
	c := newTestClient(g)
	c.Player = &playback.Player{
		Opener: playback.OpenFunc(func(f pcm.Format) (playback.Output, error) {
			out := &countingOutput{}
			mu.Lock()
			outputs = append(outputs, out)
			mu.Unlock()
			return out, nil
		}),
		Gain: pcm.NewGain(0.8),
	}

	pb1, err := c.Speak(context.Background(), "one")
	if err != nil {
		t.Fatalf("Speak error: %v", err)
	}
	pb2, err := c.Speak(context.Background(), "two")
	if err != nil {
		t.Fatalf("Speak error: %v", err)
	}
	if pb1.ID == pb2.ID {
		t.Error("playbacks should have distinct ids")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pb := range []*playback.Playback{pb1, pb2} {
		if err := pb.Wait(ctx); err != nil {
			t.Fatalf("Wait error: %v", err)
		}
		if pb.Duration != 100*time.Millisecond {
			t.Errorf("Duration = %v", pb.Duration)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(outputs) != 2 {
		t.Fatalf("outputs = %d, want one per call", len(outputs))
	}
	for i, out := range outputs {
		if out.samples != 2400 || !out.closed {
			t.Errorf("output %d: samples = %d closed = %v", i, out.samples, out.closed)
		}
	}
}

func TestSpeak_Errors(t *testing.T) {
	c := newTestClient(&fakeGenerator{})
	if _, err := c.Speak(context.Background(), "x"); !errors.Is(err, ErrNoPlayer) {
		t.Errorf("err = %v, want ErrNoPlayer", err)
	}

	c.Player = &playback.Player{Opener: playback.OpenFunc(func(pcm.Format) (playback.Output, error) {
		t.Error("output should not be opened")
		return nil, nil
	})}
	if _, err := c.Speak(context.Background(), "x"); !errors.Is(err, ErrNoAudioData) {
		t.Errorf("err = %v, want ErrNoAudioData", err)
	}
}
