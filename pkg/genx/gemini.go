package genx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

var _ Generator = (*GeminiGenerator)(nil)

// GeminiGenerator implements Generator using Google Gemini API.
type GeminiGenerator struct {
	Client *genai.Client `json:"-"`

	InvokeParams   *ModelParams `json:"invoke_params,omitzero"`
	GenerateParams *ModelParams `json:"generate_params,omitzero"`

	// Model should not start with "models/"
	Model string `json:"model"`
}

func (g *GeminiGenerator) Invoke(ctx context.Context, _ string, mctx ModelContext, schema *ResponseSchema) (Usage, string, error) {
	cfg, contents, err := g.convModelContext(mctx, g.InvokeParams)
	if err != nil {
		return Usage{}, "", err
	}
	cfg.ResponseMIMEType = "application/json"
	if schema != nil {
		cfg.ResponseSchema = geminiConvSchema(schema.Schema)
	}
	resp, err := g.generate(ctx, contents, cfg)
	if err != nil {
		return Usage{}, "", err
	}
	usage := geminiConvUsage(resp.UsageMetadata)
	cand, err := geminiCandidate(resp, usage)
	if err != nil {
		return usage, "", err
	}
	var sb strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p.Text != "" && !p.Thought {
				sb.WriteString(p.Text)
			}
		}
	}
	return usage, sb.String(), nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, _ string, mctx ModelContext) (*Response, error) {
	cfg, contents, err := g.convModelContext(mctx, g.GenerateParams)
	if err != nil {
		return nil, err
	}
	resp, err := g.generate(ctx, contents, cfg)
	if err != nil {
		return nil, err
	}
	usage := geminiConvUsage(resp.UsageMetadata)
	cand, err := geminiCandidate(resp, usage)
	if err != nil {
		return nil, err
	}
	out := &Response{Usage: usage}
	if cand.Content == nil {
		return out, nil
	}
	for _, p := range cand.Content.Parts {
		switch {
		case p.InlineData != nil:
			out.Contents = append(out.Contents, &Blob{
				MIMEType: p.InlineData.MIMEType,
				Data:     p.InlineData.Data,
			})
		case p.Text != "" && !p.Thought:
			out.Contents = append(out.Contents, Text(p.Text))
		}
	}
	return out, nil
}

func (g *GeminiGenerator) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.Client.Models.GenerateContent(ctx, g.Model, contents, cfg)
	if err != nil {
		var e *apierror.APIError
		if errors.As(err, &e) {
			err = e.Unwrap()
		}
		return nil, err
	}
	return resp, nil
}

func geminiCandidate(resp *genai.GenerateContentResponse, usage Usage) (*genai.Candidate, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, Blocked(usage, "prompt blocked: "+string(resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) == 0 {
		return nil, Error(usage, errors.New("no candidates"))
	}
	t := resp.Candidates[0]
	switch t.FinishReason {
	case genai.FinishReasonStop, genai.FinishReasonUnspecified, "":
		return t, nil
	case genai.FinishReasonMaxTokens:
		return nil, Truncated(usage)
	case genai.FinishReasonSafety:
		var cats []string
		for _, sr := range t.SafetyRatings {
			if sr.Blocked {
				cats = append(cats, string(sr.Category))
			}
		}
		return nil, Blocked(usage, "blocked by "+strings.Join(cats, ", "))
	default:
		return nil, Error(usage, fmt.Errorf("unexpected finish reason: %s", t.FinishReason))
	}
}

func geminiConvMessage(msg *Message) (*genai.Content, error) {
	var role string
	switch msg.Role {
	default:
		return nil, fmt.Errorf("unexpected role: %s", msg.Role)
	case RoleUser:
		role = "user"
	case RoleModel:
		role = "model"
	}
	parts := make([]*genai.Part, 0, len(msg.Contents))
	for _, c := range msg.Contents {
		switch v := c.(type) {
		case Text:
			parts = append(parts, genai.NewPartFromText(string(v)))
		case *Blob:
			parts = append(parts, genai.NewPartFromBytes(v.Data, v.MIMEType))
		default:
			return nil, fmt.Errorf("unexpected part type: %T", c)
		}
	}
	return &genai.Content{Role: role, Parts: parts}, nil
}

// convModelContext keeps one genai.Content per message. Consecutive messages
// with the same role are not merged, so chat history reaches the model turn
// by turn.
func (g *GeminiGenerator) convModelContext(mctx ModelContext, defaults *ModelParams) (*genai.GenerateContentConfig, []*genai.Content, error) {
	cfg := genai.GenerateContentConfig{}
	prompts := []*genai.Part{}
	for p := range mctx.Prompts() {
		prompts = append(prompts, genai.NewPartFromText(p.Text))
	}
	if len(prompts) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: prompts}
	}
	if mp := defaults.Merge(mctx.Params()); mp != nil {
		geminiApplyParams(&cfg, mp)
	}

	var contents []*genai.Content
	for msg := range mctx.Messages() {
		if len(msg.Contents) == 0 {
			continue
		}
		c, err := geminiConvMessage(msg)
		if err != nil {
			return nil, nil, err
		}
		contents = append(contents, c)
	}
	if len(contents) == 0 {
		return nil, nil, ErrNoContents
	}
	return &cfg, contents, nil
}

func geminiApplyParams(cfg *genai.GenerateContentConfig, mp *ModelParams) {
	if mp.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(mp.MaxTokens)
	}
	if mp.Temperature != 0 {
		cfg.Temperature = genai.Ptr(mp.Temperature)
	}
	if mp.TopP != 0 {
		cfg.TopP = genai.Ptr(mp.TopP)
	}
	if mp.TopK != 0 {
		cfg.TopK = genai.Ptr(mp.TopK)
	}
	if mp.N > 0 {
		cfg.CandidateCount = int32(mp.N)
	}
	if mp.PresencePenalty != 0 {
		cfg.PresencePenalty = genai.Ptr(mp.PresencePenalty)
	}
	if mp.FrequencyPenalty != 0 {
		cfg.FrequencyPenalty = genai.Ptr(mp.FrequencyPenalty)
	}
	for _, m := range mp.Modalities {
		cfg.ResponseModalities = append(cfg.ResponseModalities, strings.ToUpper(m))
	}
	if mp.Voice != "" {
		cfg.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: mp.Voice},
			},
		}
	}
	if mp.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: mp.AspectRatio}
	}
}

func geminiConvSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	enums := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Items:       geminiConvSchema(schema.Items),
		Required:    schema.Required,
	}
	if len(enums) > 0 {
		gs.Enum = enums
	}

	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = geminiConvSchema(prop)
		}
	}
	switch schema.Type {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}

func geminiConvUsage(usage *genai.GenerateContentResponseUsageMetadata) Usage {
	if usage == nil {
		return Usage{}
	}
	return Usage{
		PromptTokenCount:        int64(usage.PromptTokenCount),
		CachedContentTokenCount: int64(usage.CachedContentTokenCount),
		GeneratedTokenCount:     int64(usage.CandidatesTokenCount),
	}
}
