// Package roots is the ROOTS cultural and spiritual education client.
//
// A Client turns user intents into structured results from a multi-modal
// generative model reached through a genx.Generator:
//
//   - AnalyzeImage identifies a religious object, ritual or symbol
//   - AnalyzeAudio identifies a chant, mantra or prayer
//   - SendChatMessage talks to the ROOTS persona over a caller-owned history
//   - GenerateStory, GenerateStoryImage and GenerateVideoPlan serve the
//     Creators Atelier
//   - GenerateMeditation writes a guided meditation
//   - GenerateSpeech and Speak synthesize and play narration
//
// Every use case is one row of a table keyed by Kind holding the model
// name, system instruction, response schema and prompt. Structured use cases
// share one code path and differ only in that data.
//
// Failure policy differs per use case. AnalyzeAudio and GenerateStoryImage
// degrade to fixed fallbacks and never return an error. Chat.Send degrades to
// an in-character line. Everything else returns typed errors:
// ErrEmptyResponse, *SchemaViolationError, ErrNoAudioData, ErrMalformedAudio,
// ErrEncoding and *NetworkError.
package roots
