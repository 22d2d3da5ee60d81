package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/cli"
	"github.com/haivivi/roots/pkg/roots"
	"github.com/haivivi/roots/pkg/storage"
)

var (
	speakFile   string
	speakSave   bool
	speakNoPlay bool
)

var speakCmd = &cobra.Command{
	Use:   "speak [text]",
	Short: "Speak text with the Fenrir voice",
	Long: `Synthesize text with the Fenrir voice and play it on the default
output device.

The text comes from the argument, or from a file with -f ("-" for stdin).

Examples:
  roots speak "Breathe in. Breathe out."
  roots speak -f prayer.txt --save --no-play`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSpeak,
}

func init() {
	speakCmd.Flags().StringVarP(&speakFile, "file", "f", "", "read the text from a file (- for stdin)")
	speakCmd.Flags().BoolVar(&speakSave, "save", false, "save the audio as an artifact")
	speakCmd.Flags().BoolVar(&speakNoPlay, "no-play", false, "do not play the audio")
}

// speakResult describes synthesized speech for structured output.
type speakResult struct {
	MIMEType   string `json:"mime_type"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
	Bytes      int    `json:"bytes"`
	Location   string `json:"location,omitempty"`
}

func runSpeak(cmd *cobra.Command, args []string) error {
	text := ""
	switch {
	case len(args) == 1:
		text = args[0]
	case speakFile != "":
		data, err := readInput(cmd, speakFile)
		if err != nil {
			return err
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: nothing to speak", roots.ErrMissingInput)
	}

	client, ctx, err := createClient()
	if err != nil {
		return err
	}
	reqCtx, cancel := requestContext(ctx)
	defer cancel()
	if !speakSave && !speakNoPlay && !structuredOutput() {
		pb, err := client.Speak(reqCtx, text)
		if err != nil {
			return err
		}
		return waitPlayback(pb)
	}

	speech, err := client.GenerateSpeech(reqCtx, text)
	if err != nil {
		return err
	}
	res := speakResult{
		MIMEType:   speech.MIMEType,
		SampleRate: speech.Format.SampleRate,
		Channels:   speech.Format.Channels,
		Duration:   cli.FormatDuration(speech.Buffer.Duration()),
		Bytes:      len(speech.PCM),
	}
	if speakSave {
		saved, err := saveSpeech(reqCtx, ctx, speech, text)
		if err != nil {
			return err
		}
		res.Location = saved.Location
	}
	if structuredOutput() {
		if err := outputResult(cmd, res); err != nil {
			return err
		}
	}
	if speakNoPlay {
		return nil
	}
	return playAndWait(reqCtx, client.Player, speech.Buffer)
}

func saveSpeech(reqCtx context.Context, ctx *cli.Context, speech *roots.Speech, text string) (*storage.Saved, error) {
	artifacts, err := openArtifacts(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := artifacts.SaveSpeech(reqCtx, speech, text)
	if err != nil {
		return nil, err
	}
	cli.PrintSuccess("Audio saved to %s", saved.Location)
	return saved, nil
}
