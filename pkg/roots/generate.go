package roots

import (
	"context"
	"strings"

	"github.com/haivivi/roots/pkg/genx"
)

// generate runs the structured use case kind. Attachments precede the
// prompt text in the request. The result is either fully decoded and valid
// or nil with an error.
func generate[T any](ctx context.Context, c *Client, kind Kind, arg string, attachments ...genx.Part) (*T, error) {
	uc := useCases[kind]
	mcb := &genx.ModelContextBuilder{}
	if uc.systemContext != "" {
		mcb.PromptText(kind.String(), uc.systemContext)
	}
	parts := make(genx.Contents, 0, len(attachments)+1)
	parts = append(parts, attachments...)
	parts = append(parts, genx.Text(uc.prompt(arg)))
	mcb.AppendMessage(&genx.Message{Role: genx.RoleUser, Contents: parts})

	model := c.Model(kind)
	usage, text, err := c.generator().Invoke(ctx, model, mcb.Build(), uc.schema)
	if err != nil {
		return nil, &NetworkError{Op: kind.String(), Err: err}
	}
	c.logger().Debug("roots: generated", "kind", kind, "model", model,
		"prompt_tokens", usage.PromptTokenCount, "generated_tokens", usage.GeneratedTokenCount)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}
	var v T
	if err := uc.schema.Decode(text, &v); err != nil {
		return nil, &SchemaViolationError{Kind: kind, Raw: text, Err: err}
	}
	return &v, nil
}
