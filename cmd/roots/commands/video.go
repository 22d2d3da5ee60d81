package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/cli"
	"github.com/haivivi/roots/pkg/roots"
)

var (
	videoRef  string
	videoFile string
)

// videoRequest is the request file accepted by "video -f".
type videoRequest struct {
	Topic     string `json:"topic" yaml:"topic"`
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
}

var videoCmd = &cobra.Command{
	Use:   "video [topic]",
	Short: "Plan a cinematic short video about a myth",
	Long: `Plan a cinematic short video about a myth: script, visual style,
voiceover lines and a scene list.

A reference image may be given with --ref to steer the visual style.
The topic and reference can also come from a YAML or JSON request file.

Request file:
  topic: Odin's sacrifice on Yggdrasil
  reference: ./rune-stone.jpg

Examples:
  roots video "Odin's sacrifice"
  roots video "Izanagi and Izanami" --ref ./shrine.jpg
  roots video -f plan.yaml --json -q '.scenes[].visual'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVideo,
}

func init() {
	videoCmd.Flags().StringVar(&videoRef, "ref", "", "reference image (path, - or data URL)")
	videoCmd.Flags().StringVarP(&videoFile, "file", "f", "", "request file (YAML or JSON, - for stdin)")
}

func runVideo(cmd *cobra.Command, args []string) error {
	var req videoRequest
	if videoFile != "" {
		if err := cli.LoadRequest(videoFile, cmd.InOrStdin(), &req); err != nil {
			return err
		}
	}
	if len(args) == 1 {
		req.Topic = args[0]
	}
	if videoRef != "" {
		req.Reference = videoRef
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return fmt.Errorf("%w: a video topic is required", roots.ErrMissingInput)
	}

	var ref *roots.Image
	if req.Reference != "" {
		img, err := loadImage(cmd, req.Reference)
		if err != nil {
			return err
		}
		ref = img
	}

	client, ctx, err := createClient()
	if err != nil {
		return err
	}
	reqCtx, cancel := requestContext(ctx)
	defer cancel()
	plan, err := client.GenerateVideoPlan(reqCtx, req.Topic, ref)
	if err != nil {
		return err
	}
	return show(cmd, plan, videoCard(plan))
}

func videoCard(p *roots.VideoPlanResult) cli.Card {
	card := cli.Card{
		Title:  p.Title,
		Fields: []cli.Field{{Label: "Style", Value: p.VisualStyle}},
		Sections: []cli.Field{
			{Label: "Script", Value: p.Script},
		},
	}
	for _, sc := range p.Scenes {
		card.Sections = append(card.Sections, cli.Field{
			Label: "Scene " + strconv.Itoa(sc.SceneNumber),
			Value: sc.Visual + "\n♪ " + sc.Audio,
		})
	}
	if len(p.VoiceoverDialogues) > 0 {
		card.Sections = append(card.Sections, cli.Field{
			Label: "Voiceover",
			Value: "“" + strings.Join(p.VoiceoverDialogues, "”\n“") + "”",
		})
	}
	return card
}
