package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/audio/pcm"
	"github.com/haivivi/roots/pkg/audio/playback"
	"github.com/haivivi/roots/pkg/audio/portaudio"
	"github.com/haivivi/roots/pkg/cli"
	"github.com/haivivi/roots/pkg/genx"
	"github.com/haivivi/roots/pkg/genx/generators"
	"github.com/haivivi/roots/pkg/genx/modelloader"
	"github.com/haivivi/roots/pkg/kv"
	"github.com/haivivi/roots/pkg/roots"
	"github.com/haivivi/roots/pkg/session"
	"github.com/haivivi/roots/pkg/storage"
)

const defaultTimeout = 2 * time.Minute

// newGenerator builds the generator serving every request. Tests replace it.
var newGenerator = func(ctx *cli.Context) (genx.Generator, error) {
	mux := generators.NewMux()
	var names []string
	if ctx.APIKey != "" {
		n, err := modelloader.RegisterGeminiDefaults(mux, ctx.APIKey, ctx.BaseURL)
		if err != nil {
			return nil, err
		}
		names = append(names, n...)
	}
	dir := paths().Resolve(ctx, cli.ExtraModelsDir, paths().ModelsDir())
	if _, err := os.Stat(dir); err == nil {
		n, err := modelloader.LoadFromDir(mux, dir)
		if err != nil {
			return nil, fmt.Errorf("load models from %s: %w", dir, err)
		}
		names = append(names, n...)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no models available: set an API key on context %q or add model files to %s", ctx.Name, dir)
	}
	printVerbose("Registered models: %s", strings.Join(names, ", "))
	return mux, nil
}

// newOpener opens audio outputs. Tests replace it.
var newOpener = func() playback.Opener {
	return portaudio.Opener(playback.DefaultChunkDuration)
}

func paths() *cli.Paths {
	p, err := cli.NewPaths(appName)
	if err != nil {
		return &cli.Paths{AppName: appName, HomeDir: "."}
	}
	return p
}

// createClient builds a roots client for the selected context.
func createClient() (*roots.Client, *cli.Context, error) {
	ctx, err := getContext()
	if err != nil {
		return nil, nil, err
	}
	gen, err := newGenerator(ctx)
	if err != nil {
		return nil, nil, err
	}
	models := roots.Models{}
	for k, name := range modelFlags {
		kind, err := roots.ParseKind(k)
		if err != nil {
			return nil, nil, fmt.Errorf("--model %s=%s: %w", k, name, err)
		}
		models[kind] = name
	}
	player, err := newPlayer(ctx)
	if err != nil {
		return nil, nil, err
	}
	printVerbose("Using context: %s", ctx.Name)
	return &roots.Client{
		Generator: gen,
		Models:    models,
		Player:    player,
		Logger:    slog.Default(),
	}, ctx, nil
}

// newPlayer returns a player honouring the context's output_rate and volume.
func newPlayer(ctx *cli.Context) (*playback.Player, error) {
	p := &playback.Player{
		Opener: newOpener(),
		Gain:   pcm.NewGain(1),
		Logger: slog.Default(),
	}
	if ctx == nil {
		return p, nil
	}
	if v := ctx.GetExtra(cli.ExtraOutputRate); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid %s %q", cli.ExtraOutputRate, v)
		}
		p.DeviceRate = rate
	}
	if v := ctx.GetExtra(cli.ExtraVolume); v != "" {
		vol, err := strconv.ParseFloat(v, 32)
		if err != nil || vol < 0 {
			return nil, fmt.Errorf("invalid %s %q", cli.ExtraVolume, v)
		}
		p.Gain.Store(float32(vol))
	}
	return p, nil
}

func requestContext(ctx *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ctx.TimeoutDuration(defaultTimeout))
}

// openSessions opens the badger session database. The caller closes the
// returned kv.Store.
func openSessions(ctx *cli.Context) (*session.Store, kv.Store, error) {
	dir := paths().Resolve(ctx, cli.ExtraSessionDir, paths().SessionDir())
	db, err := kv.NewBadger(kv.BadgerOptions{Dir: dir, Logger: slog.Default()})
	if err != nil {
		return nil, nil, err
	}
	return &session.Store{KV: db}, db, nil
}

// openArtifacts returns the artifact sink: S3 when s3_bucket is set,
// otherwise the local artifact directory.
func openArtifacts(ctx *cli.Context) (*storage.Artifacts, error) {
	if bucket := ctx.GetExtra(cli.ExtraS3Bucket); bucket != "" {
		client := storage.NewS3Client(storage.S3Config{
			Region:          ctx.GetExtra(cli.ExtraS3Region),
			Endpoint:        ctx.GetExtra(cli.ExtraS3Endpoint),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		})
		return &storage.Artifacts{Store: storage.NewS3(client, bucket, ctx.GetExtra(cli.ExtraS3Prefix))}, nil
	}
	store, err := storage.NewLocal(paths().Resolve(ctx, cli.ExtraArtifactDir, paths().ArtifactDir()))
	if err != nil {
		return nil, err
	}
	return &storage.Artifacts{Store: store}, nil
}

// readInput reads a file argument, "-" for stdin.
func readInput(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(arg)
}

// loadImage accepts a data URL, or a path to an image file.
func loadImage(cmd *cobra.Command, arg string) (*roots.Image, error) {
	if strings.HasPrefix(arg, "data:") {
		return roots.ImageFromDataURL(arg)
	}
	data, err := readInput(cmd, arg)
	if err != nil {
		return nil, err
	}
	img := &roots.Image{MIMEType: detectMIME(arg, data), Data: data}
	if !strings.HasPrefix(img.MIMEType, "image/") {
		return nil, fmt.Errorf("%s: not an image (%s)", arg, img.MIMEType)
	}
	return img, nil
}

// loadAudio reads an audio file. With isBase64 the file holds the
// base64 text of the recording.
func loadAudio(cmd *cobra.Command, arg, mimeType string, isBase64 bool) (*roots.AudioClip, error) {
	data, err := readInput(cmd, arg)
	if err != nil {
		return nil, err
	}
	if mimeType == "" && !isBase64 {
		mimeType = detectMIME(arg, data)
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	if isBase64 {
		return roots.AudioClipFromBase64(mimeType, strings.TrimSpace(string(data)))
	}
	return &roots.AudioClip{MIMEType: mimeType, Data: data}, nil
}

func detectMIME(name string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		t, _, _ = strings.Cut(t, ";")
		return t
	}
	t, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return t
}

// playAndWait starts buf on player and blocks until it finishes.
func playAndWait(ctx context.Context, player *playback.Player, buf *pcm.FloatBuffer) error {
	pb, err := player.Start(ctx, buf)
	if err != nil {
		return err
	}
	return waitPlayback(pb)
}

func waitPlayback(pb *playback.Playback) error {
	printVerbose("Playing %s (%s)", pb.ID, cli.FormatDuration(pb.Duration))
	return pb.Wait(context.Background())
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var styles = cli.NewStyles(cli.DefaultTheme)

// termWidth is the render width, taken from $COLUMNS when set.
func termWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return min(n, 100)
	}
	return 80
}

// show prints result as data when structured output is requested, otherwise
// renders card.
func show(cmd *cobra.Command, result any, card cli.Card) error {
	if structuredOutput() {
		return outputResult(cmd, result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), card.Render(styles, termWidth()))
	return nil
}
