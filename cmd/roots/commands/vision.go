package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/cli"
	"github.com/haivivi/roots/pkg/roots"
)

var visionCmd = &cobra.Command{
	Use:   "vision <image>",
	Short: "Identify a religious object, ritual or symbol in an image",
	Long: `Identify a religious object, ritual or symbol in an image.

The image may be a file path, "-" for stdin, or a data URL.

Examples:
  roots vision ./amulet.jpg
  roots vision ./torii.png --json -q .symbolism
  cat mandala.webp | roots vision -`,
	Args: cobra.ExactArgs(1),
	RunE: runVision,
}

func runVision(cmd *cobra.Command, args []string) error {
	img, err := loadImage(cmd, args[0])
	if err != nil {
		return err
	}
	client, ctx, err := createClient()
	if err != nil {
		return err
	}
	printVerbose("Image: %s (%s)", img.MIMEType, cli.FormatBytes(int64(len(img.Data))))

	reqCtx, cancel := requestContext(ctx)
	defer cancel()
	result, err := client.AnalyzeImage(reqCtx, img)
	if err != nil {
		return err
	}
	return show(cmd, result, visionCard(result))
}

func visionCard(r *roots.VisionResult) cli.Card {
	return cli.Card{
		Title: r.Title,
		Sections: []cli.Field{
			{Value: r.Explanation},
			{Label: "Symbolism", Value: r.Symbolism},
			{Label: "History", Value: r.History},
		},
	}
}
