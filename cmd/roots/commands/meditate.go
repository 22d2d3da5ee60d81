package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/cli"
	"github.com/haivivi/roots/pkg/roots"
)

var (
	meditateSpeak bool
	meditateSave  bool
)

var meditateCmd = &cobra.Command{
	Use:   "meditate",
	Short: "Generate a guided meditation",
	Long: `Generate a guided meditation: grounding intro, visualization journey
and a closing reflection.

--speak reads the session aloud with the Fenrir voice. --save stores the
narration as raw PCM with a YAML sidecar; "roots play" replays it.

Examples:
  roots meditate
  roots meditate --speak
  roots meditate --save --json`,
	Args: cobra.NoArgs,
	RunE: runMeditate,
}

func init() {
	meditateCmd.Flags().BoolVar(&meditateSpeak, "speak", false, "narrate the meditation")
	meditateCmd.Flags().BoolVar(&meditateSave, "save", false, "save the narration as an artifact")
}

func runMeditate(cmd *cobra.Command, args []string) error {
	client, ctx, err := createClient()
	if err != nil {
		return err
	}

	reqCtx, cancel := requestContext(ctx)
	defer cancel()
	med, err := client.GenerateMeditation(reqCtx)
	if err != nil {
		return err
	}
	if err := show(cmd, med, meditationCard(med)); err != nil {
		return err
	}
	switch {
	case meditateSave:
		printVerbose("Synthesizing narration")
		speech, err := client.GenerateSpeech(reqCtx, med.Narration())
		if err != nil {
			return err
		}
		if _, err := saveSpeech(reqCtx, ctx, speech, med.Narration()); err != nil {
			return err
		}
		if meditateSpeak {
			return playAndWait(reqCtx, client.Player, speech.Buffer)
		}
	case meditateSpeak:
		pb, err := client.Speak(reqCtx, med.Narration())
		if err != nil {
			return err
		}
		return waitPlayback(pb)
	}
	return nil
}

func meditationCard(m *roots.MeditationResult) cli.Card {
	return cli.Card{
		Title: m.Title,
		Sections: []cli.Field{
			{Label: "Breathe", Value: m.Intro},
			{Label: "Journey", Value: m.Visualization},
			{Label: "Reflect", Value: m.Reflection},
		},
	}
}
