package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/haivivi/roots/pkg/audio/pcm"
	"github.com/haivivi/roots/pkg/audio/playback"
	"github.com/haivivi/roots/pkg/audio/portaudio"
	"github.com/haivivi/roots/pkg/cli"
	"github.com/haivivi/roots/pkg/genx"
	"github.com/haivivi/roots/pkg/roots"
)

// structured answers keyed by response schema name.
var structured = map[string]string{
	"vision_result":         `{"title":"Torii Gate","explanation":"A Shinto gateway.","symbolism":"Passage to the sacred.","history":"Heian period."}`,
	"audio_analysis_result": `{"title":"Om","meaning":"The primordial sound.","origin":"Vedic"}`,
	"story":                 `{"story":"Once, the fox outwitted the moon.","imagePrompt":"a fox under the moon"}`,
	"video_plan":            `{"title":"The Hanged God","script":"Odin hangs nine nights.","visualStyle":"neon runes","voiceoverDialogues":["I gave myself to myself."],"scenes":[{"sceneNumber":1,"visual":"A vast ash tree","audio":"wind"}]}`,
	"meditation":            `{"title":"River of Light","intro":"Breathe in.","visualization":"Walk by the river.","reflection":"All flows."}`,
}

// fakeGenerator answers every use case with canned content.
type fakeGenerator struct {
	mu       sync.Mutex
	models   []string
	messages []string

	err   error
	reply string
}

func (f *fakeGenerator) record(model string, mctx genx.ModelContext) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = append(f.models, model)
	for m := range mctx.Messages() {
		for _, p := range m.Contents {
			if t, ok := p.(genx.Text); ok {
				f.messages = append(f.messages, string(t))
			}
		}
	}
}

func (f *fakeGenerator) Invoke(ctx context.Context, model string, mctx genx.ModelContext, schema *genx.ResponseSchema) (genx.Usage, string, error) {
	f.record(model, mctx)
	if f.err != nil {
		return genx.Usage{}, "", f.err
	}
	return genx.Usage{}, structured[schema.Name], nil
}

func (f *fakeGenerator) Generate(ctx context.Context, model string, mctx genx.ModelContext) (*genx.Response, error) {
	f.record(model, mctx)
	if f.err != nil {
		return nil, f.err
	}
	var modalities []string
	if p := mctx.Params(); p != nil {
		modalities = p.Modalities
	}
	switch {
	case slices.Contains(modalities, genx.ModalityImage):
		return &genx.Response{Contents: genx.Contents{&genx.Blob{MIMEType: "image/png", Data: []byte("\x89PNG fox")}}}, nil
	case slices.Contains(modalities, genx.ModalityAudio):
		samples := make([]int16, 2400)
		for i := range samples {
			samples[i] = 16384
		}
		return &genx.Response{Contents: genx.Contents{&genx.Blob{MIMEType: "audio/L16;codec=pcm;rate=24000", Data: pcm.AppendL16(nil, samples...)}}}, nil
	}
	return &genx.Response{Contents: genx.Contents{genx.Text(f.reply)}}, nil
}

// recordingOpener counts what was played.
type recordingOpener struct {
	mu      sync.Mutex
	formats []pcm.Format
	samples int
	peak    int16
}

func (o *recordingOpener) Open(format pcm.Format) (playback.Output, error) {
	o.mu.Lock()
	o.formats = append(o.formats, format)
	o.mu.Unlock()
	return &recordingOutput{o: o}, nil
}

type recordingOutput struct{ o *recordingOpener }

func (w *recordingOutput) Write(samples []int16) error {
	w.o.mu.Lock()
	w.o.samples += len(samples)
	for _, v := range samples {
		w.o.peak = max(w.o.peak, v)
	}
	w.o.mu.Unlock()
	return nil
}

func (w *recordingOutput) Close() error { return nil }

// setupTestEnv points HOME at a temp dir and installs fakes.
func setupTestEnv(t *testing.T) (*fakeGenerator, *recordingOpener) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("COLUMNS", "80")

	gen := &fakeGenerator{reply: "Hermes is the messenger of the gods."}
	opener := &recordingOpener{}
	oldGen, oldOpener, oldDevices := newGenerator, newOpener, listDevices
	newGenerator = func(*cli.Context) (genx.Generator, error) { return gen, nil }
	newOpener = func() playback.Opener { return opener }
	t.Cleanup(func() {
		newGenerator, newOpener, listDevices = oldGen, oldOpener, oldDevices
	})
	return gen, opener
}

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	resetFlags(rootCmd)
	modelFlags = map[string]string{}
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := runCmd(t, stdin, args...)
	if err != nil {
		t.Fatalf("roots %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestConfigContexts(t *testing.T) {
	setupTestEnv(t)

	mustRun(t, "", "config", "add-context", "gemini", "--api-key", "sk-1234567890abcdef", "--s3-bucket", "roots-art")
	mustRun(t, "", "config", "add-context", "local", "--api-key", "k2", "--timeout", "30")

	out := mustRun(t, "", "config", "list-contexts")
	if !strings.Contains(out, "gemini") || !strings.Contains(out, "s3://roots-art") {
		t.Errorf("list-contexts = %q", out)
	}
	if out := mustRun(t, "", "config", "get-context"); strings.TrimSpace(out) != "gemini" {
		t.Errorf("first context should be current, got %q", out)
	}

	mustRun(t, "", "config", "use-context", "local")
	mustRun(t, "", "config", "set", "volume", "0.5")
	out = mustRun(t, "", "config", "view")
	if strings.Contains(out, "sk-1234567890abcdef") {
		t.Errorf("view leaks the API key: %q", out)
	}
	if !strings.Contains(out, "volume: 0.5") || !strings.Contains(out, "Timeout: 30s") {
		t.Errorf("view = %q", out)
	}

	mustRun(t, "", "config", "delete-context", "gemini")
	if _, err := runCmd(t, "", "config", "use-context", "gemini"); err == nil {
		t.Error("use-context of a deleted context should fail")
	}
}

func TestVision(t *testing.T) {
	gen, _ := setupTestEnv(t)
	img := filepath.Join(t.TempDir(), "gate.png")
	if err := os.WriteFile(img, []byte("\x89PNG\r\n\x1a\nfake"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "", "vision", img)
	for _, want := range []string{"Torii Gate", "Passage to the sacred."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if gen.models[0] != roots.DefaultModel(roots.KindVision) {
		t.Errorf("model = %q", gen.models[0])
	}

	out = mustRun(t, "", "vision", img, "--json", "-q", ".symbolism")
	if strings.TrimSpace(out) != `"Passage to the sacred."` {
		t.Errorf("query output = %q", out)
	}
}

func TestVisionRejectsNonImage(t *testing.T) {
	setupTestEnv(t)
	f := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(f, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCmd(t, "", "vision", f); err == nil || !strings.Contains(err.Error(), "not an image") {
		t.Errorf("err = %v", err)
	}
}

func TestListenFallsBack(t *testing.T) {
	gen, _ := setupTestEnv(t)
	gen.err = errors.New("unavailable")

	out := mustRun(t, "b21tYW5p", "listen", "-", "--base64", "--json")
	var res roots.AudioAnalysisResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if *roots.SignalFaint() != res {
		t.Errorf("result = %+v, want SignalFaint", res)
	}
}

func TestChatSessions(t *testing.T) {
	gen, _ := setupTestEnv(t)

	out := mustRun(t, "", "chat", "--new", "--title", "Greek", "Who is Hermes?", "--json")
	var res chatResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.SessionID == "" || res.Reply != gen.reply || len(res.Turns) != 2 {
		t.Fatalf("chat result = %+v", res)
	}

	mustRun(t, "", "chat", "--session", res.SessionID[:6], "And Apollo?")
	if got := gen.messages[len(gen.messages)-3:]; got[0] != "Who is Hermes?" || got[1] != gen.reply || got[2] != "And Apollo?" {
		t.Errorf("continued chat sent %q", got)
	}

	out = mustRun(t, "", "session", "list", "--json", "-q", ".[0].turns")
	if strings.TrimSpace(out) != "4" {
		t.Errorf("turns = %q, want 4", out)
	}
	out = mustRun(t, "", "session", "show", res.SessionID)
	if !strings.Contains(out, "Greek") || !strings.Contains(out, "And Apollo?") {
		t.Errorf("show = %q", out)
	}

	mustRun(t, "", "session", "delete", res.SessionID)
	if out := mustRun(t, "", "session", "list"); !strings.Contains(out, "No sessions") {
		t.Errorf("list after delete = %q", out)
	}
}

func TestChatNewAndSessionExclusive(t *testing.T) {
	setupTestEnv(t)
	if _, err := runCmd(t, "", "chat", "--new", "--session", "abc", "hi"); err == nil {
		t.Error("expected an error")
	}
}

func TestChatLoop(t *testing.T) {
	gen, _ := setupTestEnv(t)
	gen.err = errors.New("offline")

	out := mustRun(t, "hello\n\n/exit\nignored\n", "chat")
	if !strings.Contains(out, "glitching") {
		t.Errorf("output = %q, want the glitch reply", out)
	}
	if len(gen.models) != 1 {
		t.Errorf("sent %d messages, want 1", len(gen.models))
	}
}

func TestStorySave(t *testing.T) {
	setupTestEnv(t)

	out := mustRun(t, "", "story", "The Fox", "--save", "--json")
	var story roots.StoryResult
	if err := json.Unmarshal([]byte(out), &story); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if story.Title != "The Fox" || !strings.HasPrefix(story.ImageURL, "data:image/png;base64,") {
		t.Errorf("story = %+v", story)
	}

	home, _ := os.UserHomeDir()
	files, _ := filepath.Glob(filepath.Join(home, ".giztoy", "roots", "artifacts", "image", "*", "*.png"))
	if len(files) != 1 {
		t.Fatalf("saved images = %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil || string(data) != "\x89PNG fox" {
		t.Errorf("image = %q, %v", data, err)
	}
}

func TestVideo(t *testing.T) {
	gen, _ := setupTestEnv(t)
	dir := t.TempDir()
	req := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(req, []byte("topic: Odin's sacrifice\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, "", "video", "-f", req, "--json", "-q", ".scenes[].visual")
	if strings.TrimSpace(out) != `"A vast ash tree"` {
		t.Errorf("output = %q", out)
	}
	if last := gen.messages[len(gen.messages)-1]; !strings.Contains(last, "Odin's sacrifice") {
		t.Errorf("prompt = %q", last)
	}

	if _, err := runCmd(t, "", "video"); !errors.Is(err, roots.ErrMissingInput) {
		t.Errorf("err = %v, want ErrMissingInput", err)
	}
}

func TestMeditateSpeak(t *testing.T) {
	_, opener := setupTestEnv(t)

	out := mustRun(t, "", "meditate", "--speak")
	if !strings.Contains(out, "River of Light") {
		t.Errorf("output = %q", out)
	}
	if len(opener.formats) != 1 || opener.samples != 2400 {
		t.Errorf("played %d outputs, %d samples", len(opener.formats), opener.samples)
	}
}

func TestSpeakSaveThenPlay(t *testing.T) {
	_, opener := setupTestEnv(t)

	out := mustRun(t, "", "speak", "Breathe in.", "--save", "--no-play", "--json")
	var res speakResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.SampleRate != 24000 || res.Channels != 1 || res.Bytes != 4800 || res.Location == "" {
		t.Fatalf("speak result = %+v", res)
	}
	if len(opener.formats) != 0 {
		t.Fatal("--no-play should not open an output")
	}

	mustRun(t, "", "play", res.Location)
	if len(opener.formats) != 1 || opener.formats[0] != pcm.L16Mono24K || opener.samples != 2400 {
		t.Errorf("play opened %v and wrote %d samples", opener.formats, opener.samples)
	}

	if _, err := runCmd(t, "", "speak"); !errors.Is(err, roots.ErrMissingInput) {
		t.Errorf("err = %v, want ErrMissingInput", err)
	}
}

func TestSpeakPlaysWithContextVolume(t *testing.T) {
	_, opener := setupTestEnv(t)
	mustRun(t, "", "config", "add-context", "quiet", "--api-key", "k", "--volume", "0.5")

	mustRun(t, "", "speak", "Om shanti.")
	if len(opener.formats) != 1 || opener.samples != 2400 {
		t.Fatalf("played %d outputs, %d samples", len(opener.formats), opener.samples)
	}
	if opener.peak != 8192 {
		t.Errorf("peak = %d, want 8192", opener.peak)
	}
}

func TestPlayRateOverride(t *testing.T) {
	_, opener := setupTestEnv(t)
	f := filepath.Join(t.TempDir(), "tone.pcm")
	if err := os.WriteFile(f, pcm.AppendL16(nil, make([]int16, 320)...), 0o644); err != nil {
		t.Fatal(err)
	}

	mustRun(t, "", "play", f, "--rate", "16000")
	want := pcm.Format{SampleRate: 16000, Channels: 1}
	if len(opener.formats) != 1 || opener.formats[0] != want {
		t.Errorf("formats = %v, want [%v]", opener.formats, want)
	}
}

func TestDevices(t *testing.T) {
	setupTestEnv(t)
	listDevices = func() ([]portaudio.Device, error) {
		return []portaudio.Device{
			{Index: 0, Name: "Built-in Output", MaxOutputChannels: 2, DefaultSampleRate: 48000, IsDefault: true},
			{Index: 3, Name: "USB DAC", MaxOutputChannels: 2, DefaultSampleRate: 44100},
		}, nil
	}

	out := mustRun(t, "", "devices")
	if !strings.Contains(out, "Built-in Output") || !strings.Contains(out, "USB DAC") {
		t.Errorf("devices = %q", out)
	}
	out = mustRun(t, "", "devices", "--json", "-q", "map(select(.is_default)) | .[0].name")
	if strings.TrimSpace(out) != `"Built-in Output"` {
		t.Errorf("query = %q", out)
	}
}

func TestNoContext(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := runCmd(t, "", "meditate"); err == nil || !strings.Contains(err.Error(), "no context") {
		t.Errorf("err = %v", err)
	}
}
