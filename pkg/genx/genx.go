package genx

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"text/template"

	"github.com/goccy/go-yaml"
)

const inspectModelContextTplContent = `{{- range .Prompts }}
## Prompt {{ .Name }}
{{ trim .Text "\n" }}
{{ end }}
{{- range .Messages }}
{{ inspectMessage . }}
{{- end }}
{{- with .Params }}
## Params
{{ inspectParams . }}
{{- end }}
`

var inspectModelContextTpl = template.Must(
	template.New("inspectModelContext").
		Funcs(template.FuncMap{
			"inspectMessage": InspectMessage,
			"inspectParams":  inspectParams,
			"trim":           strings.Trim,
		}).
		Parse(inspectModelContextTplContent))

// Output modalities understood by ModelParams.Modalities.
const (
	ModalityText  = "TEXT"
	ModalityImage = "IMAGE"
	ModalityAudio = "AUDIO"
)

type ModelParams struct {
	MaxTokens        int     `json:"max_tokens,omitzero" yaml:"max_tokens,omitempty"`
	FrequencyPenalty float32 `json:"frequency_penalty,omitzero" yaml:"frequency_penalty,omitempty"`
	N                int     `json:"n,omitzero" yaml:"n,omitempty"`
	Temperature      float32 `json:"temperature,omitzero" yaml:"temperature,omitempty"`
	TopP             float32 `json:"top_p,omitzero" yaml:"top_p,omitempty"`
	PresencePenalty  float32 `json:"presence_penalty,omitzero" yaml:"presence_penalty,omitempty"`
	TopK             float32 `json:"top_k,omitzero" yaml:"top_k,omitempty"`

	// Modalities lists the requested output modalities, e.g. ModalityAudio.
	// Empty means text.
	Modalities []string `json:"modalities,omitzero" yaml:"modalities,omitempty"`
	// Voice is the prebuilt voice used for audio output.
	Voice string `json:"voice,omitzero" yaml:"voice,omitempty"`
	// AspectRatio is the requested image aspect ratio, e.g. "1:1".
	AspectRatio string `json:"aspect_ratio,omitzero" yaml:"aspect_ratio,omitempty"`
}

// Merge returns a copy of p with every non-zero field of o applied on top.
// Either side may be nil.
func (p *ModelParams) Merge(o *ModelParams) *ModelParams {
	var out ModelParams
	if p != nil {
		out = *p
	}
	if o == nil {
		if p == nil {
			return nil
		}
		return &out
	}
	if o.MaxTokens != 0 {
		out.MaxTokens = o.MaxTokens
	}
	if o.FrequencyPenalty != 0 {
		out.FrequencyPenalty = o.FrequencyPenalty
	}
	if o.N != 0 {
		out.N = o.N
	}
	if o.Temperature != 0 {
		out.Temperature = o.Temperature
	}
	if o.TopP != 0 {
		out.TopP = o.TopP
	}
	if o.PresencePenalty != 0 {
		out.PresencePenalty = o.PresencePenalty
	}
	if o.TopK != 0 {
		out.TopK = o.TopK
	}
	if len(o.Modalities) > 0 {
		out.Modalities = o.Modalities
	}
	if o.Voice != "" {
		out.Voice = o.Voice
	}
	if o.AspectRatio != "" {
		out.AspectRatio = o.AspectRatio
	}
	return &out
}

// HasModality reports whether m is among the requested output modalities.
func (p *ModelParams) HasModality(m string) bool {
	if p == nil {
		return false
	}
	for _, v := range p.Modalities {
		if strings.EqualFold(v, m) {
			return true
		}
	}
	return false
}

type Prompt struct {
	Name string
	Text string
}

type ModelContext interface {
	Prompts() iter.Seq[*Prompt]
	Messages() iter.Seq[*Message]

	Params() *ModelParams
}

type Generator interface {
	// Invoke asks the model for JSON conforming to schema and returns the
	// raw JSON text.
	Invoke(ctx context.Context, model string, mctx ModelContext, schema *ResponseSchema) (Usage, string, error)

	// Generate returns the model's reply contents unchanged.
	Generate(ctx context.Context, model string, mctx ModelContext) (*Response, error)
}

// Response is the reply of Generate.
type Response struct {
	Contents Contents
	Usage    Usage
}

// Text concatenates every text part of the response.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Contents {
		if t, ok := p.(Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// FirstBlob returns the first blob whose MIME type starts with prefix
// (e.g. "image/"), or nil.
func (r *Response) FirstBlob(prefix string) *Blob {
	if r == nil {
		return nil
	}
	for _, p := range r.Contents {
		if b, ok := p.(*Blob); ok && b != nil && strings.HasPrefix(strings.ToLower(b.MIMEType), prefix) {
			return b
		}
	}
	return nil
}

type Usage struct {
	// Number of tokens in the prompt. When cached_content is set, this is still
	// the total effective prompt size. I.e. this includes the number of tokens
	// in the cached content.
	PromptTokenCount int64

	// Number of tokens in the cached part of the prompt, i.e. in the cached
	// content.
	CachedContentTokenCount int64

	// Number of tokens generated.
	GeneratedTokenCount int64
}

func (u Usage) String() string {
	b, _ := yaml.Marshal(map[string]map[string]any{
		"Usage": {
			"Prompt":    u.PromptTokenCount,
			"Cached":    u.CachedContentTokenCount,
			"Generated": u.GeneratedTokenCount,
		},
	})
	return string(b)
}

func InspectMessage(msg *Message) string {
	if msg == nil {
		return ""
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s", msg.Role.String())
	if msg.Name != "" {
		fmt.Fprintf(&sb, " %s", strings.Trim(fmt.Sprintf("%q", msg.Name), `"`))
	}
	sb.WriteByte('\n')
	for _, part := range msg.Contents {
		switch pt := part.(type) {
		case Text:
			fmt.Fprintln(&sb, pt)
		case *Blob:
			if pt != nil {
				fmt.Fprintf(&sb, "%s [%d]\n", pt.MIMEType, len(pt.Data))
			}
		default:
			fmt.Fprintf(&sb, "[%T]\n", part)
		}
	}
	return sb.String()
}

func inspectParams(p *ModelParams) string {
	b, err := yaml.Marshal(p)
	if err != nil {
		return err.Error()
	}
	return strings.TrimRight(string(b), "\n")
}

// InspectModelContext renders mctx as markdown for debugging.
func InspectModelContext(mctx ModelContext) (string, error) {
	data := struct {
		Prompts  []*Prompt
		Messages []*Message
		Params   *ModelParams
	}{Params: mctx.Params()}
	for p := range mctx.Prompts() {
		data.Prompts = append(data.Prompts, p)
	}
	for m := range mctx.Messages() {
		data.Messages = append(data.Messages, m)
	}
	var sb strings.Builder
	if err := inspectModelContextTpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
