package roots

import (
	"fmt"

	"github.com/haivivi/roots/pkg/genx"
	"github.com/haivivi/roots/pkg/genx/modelloader"
)

// Kind enumerates the use cases of a Client.
type Kind int

const (
	KindVision Kind = iota
	KindAudio
	KindChat
	KindStory
	KindImage
	KindVideo
	KindMeditation
	KindSpeech
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{KindVision, KindAudio, KindChat, KindStory, KindImage, KindVideo, KindMeditation, KindSpeech}

var kindNames = map[Kind]string{
	KindVision:     "vision",
	KindAudio:      "audio",
	KindChat:       "chat",
	KindStory:      "story",
	KindImage:      "image",
	KindVideo:      "video",
	KindMeditation: "meditation",
	KindSpeech:     "speech",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("roots: unknown kind %q", s)
}

// Models maps a Kind to a generator name. Kinds absent from the map use
// their default model.
type Models map[Kind]string

// useCase is the fixed configuration of one Kind. schema is nil for the
// kinds that do not produce structured output.
type useCase struct {
	model         string
	systemContext string
	schema        *genx.ResponseSchema
	prompt        func(arg string) string
	params        *genx.ModelParams
}

var useCases = map[Kind]useCase{
	KindVision: {
		model:         modelloader.GeminiFlash,
		systemContext: Persona,
		schema:        genx.MustNewResponseSchema[VisionResult]("vision_result", "A neutral explanation of a religious object, ritual, or symbol"),
		prompt:        fixedPrompt(visionPrompt),
	},
	KindAudio: {
		model:         modelloader.GeminiFlash,
		systemContext: Persona,
		schema:        genx.MustNewResponseSchema[AudioAnalysisResult]("audio_analysis_result", "The identity of a chant, mantra, or prayer"),
		prompt:        fixedPrompt(audioPrompt),
	},
	KindChat: {
		model:         modelloader.GeminiPro,
		systemContext: Persona,
	},
	KindStory: {
		model:         modelloader.GeminiPro,
		systemContext: storytellerInstruction,
		schema:        genx.MustNewResponseSchema[storyOutput]("story", "A short fable and an image generation prompt"),
		prompt:        storyPrompt,
	},
	KindImage: {
		model:  modelloader.GeminiFlashImage,
		prompt: imagePrompt,
		params: &genx.ModelParams{
			Modalities:  []string{genx.ModalityImage},
			AspectRatio: "1:1",
		},
	},
	KindVideo: {
		model:         modelloader.GeminiPro,
		systemContext: directorInstruction,
		schema:        genx.MustNewResponseSchema[VideoPlanResult]("video_plan", "A cinematic short video plan"),
		prompt:        videoPrompt,
	},
	KindMeditation: {
		model:         modelloader.GeminiFlash,
		systemContext: meditationInstruction,
		schema:        genx.MustNewResponseSchema[MeditationResult]("meditation", "A guided meditation session"),
		prompt:        fixedPrompt(meditationPrompt),
	},
	KindSpeech: {
		model: modelloader.GeminiFlashTTS,
		params: &genx.ModelParams{
			Modalities: []string{genx.ModalityAudio},
			Voice:      "Fenrir",
		},
	},
}

// DefaultModel returns the generator name used for k when no override is
// configured.
func DefaultModel(k Kind) string {
	return useCases[k].model
}

// Schema returns the response schema of k, or nil for unstructured kinds.
func Schema(k Kind) *genx.ResponseSchema {
	return useCases[k].schema
}
