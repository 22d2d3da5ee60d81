package commands

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/audio/pcm"
	"github.com/haivivi/roots/pkg/encoding"
	"github.com/haivivi/roots/pkg/storage"
)

var (
	playRate     int
	playChannels int
	playBase64   bool
)

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Play raw 16-bit PCM audio",
	Long: `Play raw little-endian 16-bit PCM audio, such as the speech saved by
"speak --save" or "meditate --save".

The sample rate and channel count are read from the file's YAML sidecar
when present. --rate and --channels override them; without either the
audio is taken as 24 kHz mono.

Examples:
  roots play ~/.giztoy/roots/artifacts/speech/20261015/4c1e.pcm
  roots play reply.b64 --base64 --rate 16000`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntVar(&playRate, "rate", 0, "sample rate in Hz")
	playCmd.Flags().IntVar(&playChannels, "channels", 0, "channel count")
	playCmd.Flags().BoolVar(&playBase64, "base64", false, "input holds base64 text instead of raw bytes")
}

func runPlay(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	if playBase64 {
		data, err = encoding.DecodeBase64(strings.TrimSpace(string(data)))
		if err != nil {
			return err
		}
	}

	format := playFormat(cmd.Context(), args[0])
	buf, err := pcm.DecodeL16(data, format.SampleRate, format.Channels)
	if err != nil {
		return err
	}
	printVerbose("Playing %s, %s", format, buf.Duration())

	ctx, _ := getContext()
	player, err := newPlayer(ctx)
	if err != nil {
		return err
	}
	return playAndWait(context.Background(), player, buf)
}

// playFormat resolves the format from flags, then the sidecar of path.
func playFormat(ctx context.Context, path string) pcm.Format {
	format := pcm.L16Mono24K
	if path != "-" {
		if ctx == nil {
			ctx = context.Background()
		}
		if local, err := storage.NewLocal(filepath.Dir(path)); err == nil {
			a := &storage.Artifacts{Store: local}
			if rec, err := a.LoadRecord(ctx, filepath.Base(path)); err == nil {
				if rec.SampleRate > 0 {
					format.SampleRate = rec.SampleRate
				}
				if rec.Channels > 0 {
					format.Channels = rec.Channels
				}
			} else if !isNotExist(err) {
				printVerbose("Ignoring sidecar: %v", err)
			}
		}
	}
	if playRate > 0 {
		format.SampleRate = playRate
	}
	if playChannels > 0 {
		format.Channels = playChannels
	}
	return format
}
