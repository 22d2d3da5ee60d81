package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/cli"
	"github.com/haivivi/roots/pkg/roots"
)

var (
	listenMIME   string
	listenBase64 bool
)

var listenCmd = &cobra.Command{
	Use:   "listen <audio>",
	Short: "Interpret a recorded chant, mantra or prayer",
	Long: `Interpret a recorded chant, mantra or prayer.

The recording may be a file path or "-" for stdin. Analysis never fails:
when the model cannot be reached a "Signal Faint" result is printed.

Examples:
  roots listen ./om.webm
  roots listen ./chant.b64 --base64 --mime audio/ogg`,
	Args: cobra.ExactArgs(1),
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVar(&listenMIME, "mime", "", "media type of the recording (default: detected, else audio/webm)")
	listenCmd.Flags().BoolVar(&listenBase64, "base64", false, "input holds base64 text instead of raw bytes")
}

func runListen(cmd *cobra.Command, args []string) error {
	clip, err := loadAudio(cmd, args[0], listenMIME, listenBase64)
	if err != nil {
		return err
	}
	client, ctx, err := createClient()
	if err != nil {
		return err
	}
	printVerbose("Audio: %s (%s)", clip.MIMEType, cli.FormatBytes(int64(len(clip.Data))))

	reqCtx, cancel := requestContext(ctx)
	defer cancel()
	result := client.AnalyzeAudio(reqCtx, clip)
	return show(cmd, result, listenCard(result))
}

func listenCard(r *roots.AudioAnalysisResult) cli.Card {
	return cli.Card{
		Title:  r.Title,
		Fields: []cli.Field{{Label: "Origin", Value: r.Origin}},
		Sections: []cli.Field{
			{Label: "Meaning", Value: r.Meaning},
		},
	}
}
