package roots

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/haivivi/roots/pkg/audio/playback"
	"github.com/haivivi/roots/pkg/genx"
	"github.com/haivivi/roots/pkg/genx/generators"
)

// Client runs the ROOTS use cases against a generator. A Client holds no
// mutable state and is safe for concurrent use.
type Client struct {
	// Generator serves every request. Nil uses generators.DefaultMux.
	Generator genx.Generator

	// Models overrides the generator name per Kind.
	Models Models

	// Player plays synthesized speech for Speak.
	Player *playback.Player

	Logger *slog.Logger
}

func (c *Client) generator() genx.Generator {
	if c.Generator != nil {
		return c.Generator
	}
	return generators.DefaultMux
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Model returns the generator name used for k.
func (c *Client) Model(k Kind) string {
	if m, ok := c.Models[k]; ok && m != "" {
		return m
	}
	return DefaultModel(k)
}

// AnalyzeImage identifies the religious object, ritual or symbol shown in
// img.
func (c *Client) AnalyzeImage(ctx context.Context, img *Image) (*VisionResult, error) {
	if img.empty() {
		return nil, fmt.Errorf("%w: image", ErrMissingInput)
	}
	return generate[VisionResult](ctx, c, KindVision, "", img.blob())
}

// AnalyzeAudio identifies the chant, mantra or prayer in clip. Any failure
// yields SignalFaint instead of an error.
func (c *Client) AnalyzeAudio(ctx context.Context, clip *AudioClip) *AudioAnalysisResult {
	if clip.empty() {
		c.logger().Warn("roots: audio analysis failed", "err", ErrMissingInput)
		return SignalFaint()
	}
	res, err := generate[AudioAnalysisResult](ctx, c, KindAudio, "", clip.blob())
	if err != nil {
		c.logger().Warn("roots: audio analysis failed", "err", err)
		return SignalFaint()
	}
	return res
}

// GenerateStory writes a short fable about topic. The result is titled with
// the topic, or DefaultStoryName when topic is empty.
func (c *Client) GenerateStory(ctx context.Context, topic string) (*StoryResult, error) {
	out, err := generate[storyOutput](ctx, c, KindStory, topic)
	if err != nil {
		return nil, err
	}
	title := topic
	if title == "" {
		title = DefaultStoryName
	}
	return &StoryResult{
		Title:       title,
		Story:       out.Story,
		ImagePrompt: out.ImagePrompt,
	}, nil
}

// IllustrateStory sets story.ImageURL from its image prompt. It never fails;
// the placeholder image is used when generation does not succeed.
func (c *Client) IllustrateStory(ctx context.Context, story *StoryResult) {
	story.ImageURL = c.GenerateStoryImage(ctx, story.ImagePrompt)
}

// GenerateMeditation writes a guided meditation session.
func (c *Client) GenerateMeditation(ctx context.Context) (*MeditationResult, error) {
	return generate[MeditationResult](ctx, c, KindMeditation, "")
}
