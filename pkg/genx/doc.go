// Package genx is a provider-neutral layer over multi-modal generative
// models.
//
// # Core Types
//
// A ModelContext carries everything one request needs:
//   - Prompts: system instructions
//   - Messages: ordered user and model turns, each a list of parts
//   - Params: sampling parameters plus output modalities, voice and image
//     aspect ratio
//
// Parts are either Text or *Blob (raw bytes with a MIME type). Part order
// inside a message is preserved on the wire.
//
// A Generator turns a ModelContext into output in one of two ways:
//
//	type Generator interface {
//	    Invoke(ctx, model, mctx, schema) (Usage, string, error)
//	    Generate(ctx, model, mctx) (*Response, error)
//	}
//
// Invoke asks for JSON text conforming to a ResponseSchema. Generate returns
// the raw model contents, which may hold text, images or audio.
//
// # Package Structure
//
//   - genx/generators: a Mux routing model names to Generators
//   - genx/modelloader: registers Gemini and OpenAI generators from YAML or
//     JSON model files
package genx
