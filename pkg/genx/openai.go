package genx

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/haivivi/roots/pkg/encoding"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
)

var _ Generator = (*OpenAIGenerator)(nil)

const (
	oaiFinishReasonStop          string = "stop"
	oaiFinishReasonLength        string = "length"
	oaiFinishReasonContentFilter string = "content_filter"

	oaiMaxTextContentLength = 1048576
)

var (
	// ErrJSONOutputUnsupported is returned by Invoke on models configured
	// without json output support.
	ErrJSONOutputUnsupported = errors.New("genx: json output is not supported by this model")

	// ErrModalityUnsupported is returned by Generate when an image or audio
	// output modality is requested.
	ErrModalityUnsupported = errors.New("genx: output modality is not supported")
)

// OpenAISchemaFormatter formats a JSON schema for OpenAI structured outputs.
type OpenAISchemaFormatter func(m *jsonschema.Schema) *jsonschema.Schema

// OpenAIGenerator implements Generator using OpenAI API.
type OpenAIGenerator struct {
	Client *openai.Client `json:"-"`

	Model string `json:"model"`

	GenerateParams *ModelParams `json:"generate_params,omitzero"`
	InvokeParams   *ModelParams `json:"invoke_params,omitzero"`

	SupportJSONOutput bool `json:"support_json_output,omitzero"`
	SupportTextOnly   bool `json:"support_text_only,omitzero"`
	UseSystemRole     bool `json:"use_system_role,omitzero"`

	ExtraFields map[string]any `json:"extra_fields,omitzero"`

	SchemaFormatter OpenAISchemaFormatter `json:"-"`
}

func (g *OpenAIGenerator) Invoke(ctx context.Context, _ string, mctx ModelContext, schema *ResponseSchema) (Usage, string, error) {
	if !g.SupportJSONOutput {
		return Usage{}, "", ErrJSONOutputUnsupported
	}
	params, err := g.chatCompletion(mctx, g.InvokeParams)
	if err != nil {
		return Usage{}, "", err
	}
	if schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        schema.Name,
					Description: param.NewOpt(schema.Description),
					Schema:      g.convSchemaForOutput(schema.Schema),
					Strict:      param.NewOpt(true),
				},
			},
		}
	} else {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	usage, text, err := g.complete(ctx, params)
	if err != nil {
		return usage, "", err
	}
	return usage, text, nil
}

// Generate returns the text reply of a chat completion. Image and audio
// output modalities are not available through chat completions.
func (g *OpenAIGenerator) Generate(ctx context.Context, _ string, mctx ModelContext) (*Response, error) {
	mp := g.GenerateParams.Merge(mctx.Params())
	if mp.HasModality(ModalityImage) || mp.HasModality(ModalityAudio) {
		return nil, fmt.Errorf("%w: %v", ErrModalityUnsupported, mp.Modalities)
	}
	params, err := g.chatCompletion(mctx, g.GenerateParams)
	if err != nil {
		return nil, err
	}
	usage, text, err := g.complete(ctx, params)
	if err != nil {
		return nil, err
	}
	return &Response{Contents: Contents{Text(text)}, Usage: usage}, nil
}

func (g *OpenAIGenerator) complete(ctx context.Context, params openai.ChatCompletionNewParams) (Usage, string, error) {
	resp, err := g.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Usage{}, "", err
	}
	usage := oaiConvUsage(&resp.Usage)
	if len(resp.Choices) == 0 {
		return usage, "", Error(usage, errors.New("no choices"))
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return usage, "", Blocked(usage, choice.Message.Refusal)
	}
	switch choice.FinishReason {
	case oaiFinishReasonStop:
	case oaiFinishReasonLength:
		return usage, "", Truncated(usage)
	case oaiFinishReasonContentFilter:
		return usage, "", Blocked(usage, "content filter")
	default:
		return usage, "", Error(usage, fmt.Errorf("want stop, got unexpected finish reason: %s", choice.FinishReason))
	}
	return usage, choice.Message.Content, nil
}

func (g *OpenAIGenerator) chatCompletion(mctx ModelContext, mp *ModelParams) (openai.ChatCompletionNewParams, error) {
	msgs, err := g.convModelContext(mctx)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	params := openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    g.Model,
	}
	if mp = mp.Merge(mctx.Params()); mp != nil {
		if mp.FrequencyPenalty > 0 {
			params.FrequencyPenalty = param.NewOpt(float64(mp.FrequencyPenalty))
		}
		if mp.MaxTokens > 0 {
			params.MaxCompletionTokens = param.NewOpt(int64(mp.MaxTokens))
		}
		if mp.N > 0 {
			params.N = param.NewOpt(int64(mp.N))
		}
		if mp.Temperature > 0 {
			params.Temperature = param.NewOpt(float64(mp.Temperature))
		}
		if mp.TopP > 0 {
			params.TopP = param.NewOpt(float64(mp.TopP))
		}
		if mp.PresencePenalty > 0 {
			params.PresencePenalty = param.NewOpt(float64(mp.PresencePenalty))
		}
	}
	if len(g.ExtraFields) > 0 {
		params.SetExtraFields(g.ExtraFields)
	}
	return params, nil
}

func (g *OpenAIGenerator) convModelContext(mctx ModelContext) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := []openai.ChatCompletionMessageParamUnion{}
	for p := range mctx.Prompts() {
		out = append(out, g.convPrompt(p)...)
	}
	n := 0
	for msg := range mctx.Messages() {
		if len(msg.Contents) == 0 {
			continue
		}
		param, err := g.convMessage(msg)
		if err != nil {
			return nil, err
		}
		out = append(out, param)
		n++
	}
	if n == 0 {
		return nil, ErrNoContents
	}
	return out, nil
}

func (g *OpenAIGenerator) convPrompt(p *Prompt) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(p.Text)/oaiMaxTextContentLength+1)
	t := p.Text
	for len(t) > 0 {
		v := t
		if len(v) > oaiMaxTextContentLength {
			v, t = t[:oaiMaxTextContentLength], t[oaiMaxTextContentLength:]
		} else {
			t = ""
		}
		if g.UseSystemRole {
			mp := openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: param.NewOpt(v),
					},
				},
			}
			if p.Name != "" {
				mp.OfSystem.Name = param.NewOpt(p.Name)
			}
			out = append(out, mp)
		} else {
			mp := openai.ChatCompletionMessageParamUnion{
				OfDeveloper: &openai.ChatCompletionDeveloperMessageParam{
					Content: openai.ChatCompletionDeveloperMessageParamContentUnion{
						OfString: param.NewOpt(v),
					},
				},
			}
			if p.Name != "" {
				mp.OfDeveloper.Name = param.NewOpt(p.Name)
			}
			out = append(out, mp)
		}
	}
	return out
}

func (g *OpenAIGenerator) convMessage(msg *Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf(
			"unexpected content message role: %s, a content message must be a user or model message",
			msg.Role,
		)
	case RoleUser:
		return g.convUserMessage(msg)
	case RoleModel:
		return g.convModelMessage(msg)
	}
}

func (g *OpenAIGenerator) convModelMessage(msg *Message) (openai.ChatCompletionMessageParamUnion, error) {
	var text bytes.Buffer
	for _, c := range msg.Contents {
		switch v := c.(type) {
		case Text:
			text.WriteString(string(v))
		case *Blob:
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("model message must contain text only")
		}
	}
	if text.Len() == 0 {
		return openai.ChatCompletionMessageParamUnion{}, errors.New("model message must contain text")
	}
	mp := openai.ChatCompletionMessageParamUnion{
		OfAssistant: &openai.ChatCompletionAssistantMessageParam{
			Content: openai.ChatCompletionAssistantMessageParamContentUnion{
				OfString: param.NewOpt(text.String()),
			},
		},
	}
	if msg.Name != "" {
		mp.OfAssistant.Name = param.NewOpt(msg.Name)
	}
	return mp, nil
}

func (g *OpenAIGenerator) convUserMessage(msg *Message) (openai.ChatCompletionMessageParamUnion, error) {
	var (
		mp3    bytes.Buffer
		wav    bytes.Buffer
		text   bytes.Buffer
		images []string
	)
	for _, c := range msg.Contents {
		switch v := c.(type) {
		case Text:
			text.WriteString(string(v))
		case *Blob:
			if g.SupportTextOnly {
				return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("model %v support text message only", g.Model)
			}
			switch mt := strings.ToLower(v.MIMEType); {
			case mt == "audio/mp3", mt == "audio/mpeg":
				mp3.Write(v.Data)
			case mt == "audio/wav", mt == "audio/x-wav", mt == "audio/wave":
				wav.Write(v.Data)
			case strings.HasPrefix(mt, "image/"):
				images = append(images, encoding.FormatDataURL(v.MIMEType, v.Data))
			default:
				return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported blob mime type: %s", v.MIMEType)
			}
		}
	}

	var contents []openai.ChatCompletionContentPartUnionParam
	switch {
	case g.SupportTextOnly, mp3.Len() == 0 && wav.Len() == 0 && len(images) == 0:
		if text.Len() == 0 {
			return openai.ChatCompletionMessageParamUnion{}, errors.New("user message must contain text")
		}
		mp := openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: param.NewOpt(text.String()),
			},
		}
		if msg.Name != "" {
			mp.Name = param.NewOpt(msg.Name)
		}
		return openai.ChatCompletionMessageParamUnion{OfUser: &mp}, nil
	case text.Len() > 0:
		contents = append(contents, openai.TextContentPart(text.String()))
	}

	for _, u := range images {
		contents = append(contents, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: u,
		}))
	}
	if mp3.Len() > 0 {
		contents = append(contents, openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
			Data:   base64.StdEncoding.EncodeToString(mp3.Bytes()),
			Format: "mp3",
		}))
	}
	if wav.Len() > 0 {
		contents = append(contents, openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
			Data:   base64.StdEncoding.EncodeToString(wav.Bytes()),
			Format: "wav",
		}))
	}
	if len(contents) == 0 {
		return openai.ChatCompletionMessageParamUnion{}, errors.New("user message must contain text or audio")
	}
	mp := openai.ChatCompletionUserMessageParam{
		Content: openai.ChatCompletionUserMessageParamContentUnion{
			OfArrayOfContentParts: contents,
		},
	}
	if msg.Name != "" {
		mp.Name = param.NewOpt(msg.Name)
	}
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &mp,
	}, nil
}

func (g *OpenAIGenerator) convSchemaForOutput(s *jsonschema.Schema) any {
	if s == nil {
		return nil
	}
	return (any)(g.patchSchema(s))
}

// FormatOpenAISchema formats a schema for OpenAI structured outputs.
//
// OpenAI strict mode requires:
//   - All objects must have additionalProperties: false
//   - All properties must be listed in required
//
// See https://platform.openai.com/docs/guides/structured-outputs
func FormatOpenAISchema(m *jsonschema.Schema) *jsonschema.Schema {
	if m == nil {
		return nil
	}

	// Merge Type into Types if both are set (jsonschema library may set
	// Types: ["null", "array"] with Type: "" for nullable fields). We need
	// to consolidate into a single representation for OpenAI.
	if m.Type != "" && len(m.Types) > 0 {
		m.Types = append(m.Types, m.Type)
		m.Type = ""
	}

	typ := m.Type
	if typ == "" && len(m.Types) > 0 {
		// Determine effective type for switch dispatch.
		for _, t := range m.Types {
			if t != "null" && t != "" {
				typ = t
				break
			}
		}
	}

	switch typ {
	case "array":
		m.Items = FormatOpenAISchema(m.Items)
	case "object":
		// additionalProperties: false must always be set in objects
		// https://platform.openai.com/docs/guides/structured-outputs#additionalproperties-false-must-always-be-set-in-objects
		m.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}} // false schema

		requires := make(map[string]struct{})
		for _, v := range m.Required {
			requires[v] = struct{}{}
		}
		for k, v := range m.Properties {
			if _, ok := requires[k]; !ok {
				requires[k] = struct{}{}
				// Add "null" only if not already present.
				if !slices.Contains(v.Types, "null") {
					v.Types = append(v.Types, "null")
				}
			}
			m.Properties[k] = FormatOpenAISchema(v)
		}

		// All fields must be required
		// https://platform.openai.com/docs/guides/structured-outputs#all-fields-must-be-required
		m.Required = slices.Collect(maps.Keys(requires))
	}
	return m
}

func (g *OpenAIGenerator) patchSchema(m *jsonschema.Schema) *jsonschema.Schema {
	if m == nil {
		return nil
	}
	s := m.CloneSchemas()
	if g.SchemaFormatter != nil {
		return g.SchemaFormatter(s)
	}
	return FormatOpenAISchema(s)
}

func oaiConvUsage(usage *openai.CompletionUsage) Usage {
	return Usage{
		PromptTokenCount:    usage.PromptTokens,
		GeneratedTokenCount: usage.CompletionTokens,
	}
}
