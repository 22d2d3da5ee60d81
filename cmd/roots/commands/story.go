package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/cli"
	"github.com/haivivi/roots/pkg/roots"
	"github.com/haivivi/roots/pkg/storage"
)

var (
	storyIllustrate bool
	storySave       bool
)

var storyCmd = &cobra.Command{
	Use:   "story [topic]",
	Short: "Write a short mythic fable",
	Long: `Write a short mythic fable about a topic, optionally illustrated.

Without a topic a mystery myth is told. --illustrate generates the
storybook image; when it cannot be generated a placeholder is used.
--save stores the generated image in the artifact directory (or the
context's S3 bucket) and implies --illustrate.

Examples:
  roots story "Anansi and the sky god"
  roots story "The churning of the ocean" --save
  roots story --json -q .imagePrompt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStory,
}

func init() {
	storyCmd.Flags().BoolVar(&storyIllustrate, "illustrate", false, "generate the story illustration")
	storyCmd.Flags().BoolVar(&storySave, "save", false, "save the illustration as an artifact")
}

func runStory(cmd *cobra.Command, args []string) error {
	topic := ""
	if len(args) == 1 {
		topic = strings.TrimSpace(args[0])
	}
	client, ctx, err := createClient()
	if err != nil {
		return err
	}

	reqCtx, cancel := requestContext(ctx)
	defer cancel()
	story, err := client.GenerateStory(reqCtx, topic)
	if err != nil {
		return err
	}

	var saved *storage.Saved
	if storyIllustrate || storySave {
		client.IllustrateStory(reqCtx, story)
		if storySave {
			saved, err = saveStoryImage(reqCtx, ctx, story)
			if err != nil {
				return err
			}
		}
	}

	if structuredOutput() {
		return outputResult(cmd, story)
	}
	return show(cmd, story, storyCard(story, saved))
}

// saveStoryImage stores the illustration. The placeholder is not saved.
func saveStoryImage(reqCtx context.Context, ctx *cli.Context, story *roots.StoryResult) (*storage.Saved, error) {
	if !strings.HasPrefix(story.ImageURL, "data:") {
		cli.PrintWarning("No illustration was generated, nothing saved")
		return nil, nil
	}
	img, err := roots.ImageFromDataURL(story.ImageURL)
	if err != nil {
		return nil, err
	}
	artifacts, err := openArtifacts(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := artifacts.SaveImage(reqCtx, img, story.ImagePrompt)
	if err != nil {
		return nil, err
	}
	cli.PrintSuccess("Illustration saved to %s", saved.Location)
	return saved, nil
}

func storyCard(s *roots.StoryResult, saved *storage.Saved) cli.Card {
	image := ""
	switch {
	case saved != nil:
		image = saved.Location
	case strings.HasPrefix(s.ImageURL, "data:"):
		image = "generated (use --save to keep it)"
	case s.ImageURL != "":
		image = s.ImageURL
	}
	return cli.Card{
		Title:  s.Title,
		Fields: []cli.Field{{Label: "Image", Value: image}},
		Sections: []cli.Field{
			{Value: s.Story},
			{Label: "Illustration prompt", Value: s.ImagePrompt},
		},
	}
}
