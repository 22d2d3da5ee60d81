package pcm

import (
	"errors"
	"testing"
	"time"
)

func TestParseMIME(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "audio/L16;codec=pcm;rate=24000", want: L16Mono24K},
		{input: "audio/L16; rate=16000; channels=1", want: L16Mono16K},
		{input: "audio/pcm; rate=48000; channels=2", want: L16Stereo48K},
		{input: "audio/L16", want: Format{SampleRate: DefaultSampleRate, Channels: 1}},
		{input: "audio/mpeg", wantErr: true},
		{input: "audio/L16;rate=abc", wantErr: true},
		{input: "audio/L16;rate=0", wantErr: true},
		{input: "audio/L16;channels=-1", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMIME(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMIME(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMIME(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMIME(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMIME_Unsupported(t *testing.T) {
	_, err := ParseMIME("audio/wav")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseMIME(audio/wav) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFormat_String(t *testing.T) {
	if got := L16Mono24K.String(); got != "audio/L16; rate=24000; channels=1" {
		t.Errorf("String() = %q", got)
	}
}

func TestFormat_Durations(t *testing.T) {
	if got := L16Mono24K.BytesInDuration(20 * time.Millisecond); got != 960 {
		t.Errorf("BytesInDuration(20ms) = %d, want 960", got)
	}
	if got := L16Stereo48K.BytesInDuration(10 * time.Millisecond); got != 1920 {
		t.Errorf("BytesInDuration(10ms) = %d, want 1920", got)
	}
	if got := L16Mono24K.Duration(48000); got != time.Second {
		t.Errorf("Duration(48000) = %v, want 1s", got)
	}
	if got := (Format{}).Duration(100); got != 0 {
		t.Errorf("zero format Duration = %v, want 0", got)
	}
}

func TestGain(t *testing.T) {
	g := NewGain(1)
	if g.Load() != 1 {
		t.Errorf("Load() = %v, want 1", g.Load())
	}
	g.Store(0.25)
	if g.Load() != 0.25 {
		t.Errorf("Load() = %v, want 0.25", g.Load())
	}
	g.Store(-3)
	if g.Load() != 0 {
		t.Errorf("negative gain stored as %v, want 0", g.Load())
	}
	var zero Gain
	if zero.Load() != 0 {
		t.Errorf("zero Gain = %v, want 0", zero.Load())
	}
}
