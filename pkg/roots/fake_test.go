package roots

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/haivivi/roots/pkg/genx"
)

// call records one request received by fakeGenerator.
type call struct {
	method   string
	model    string
	prompts  []*genx.Prompt
	messages []*genx.Message
	params   *genx.ModelParams
	schema   *genx.ResponseSchema
}

// fakeGenerator answers with scripted output and records every request.
type fakeGenerator struct {
	mu    sync.Mutex
	calls []call

	text string
	resp *genx.Response
	err  error
}

func (f *fakeGenerator) record(method, model string, mctx genx.ModelContext, schema *genx.ResponseSchema) {
	c := call{method: method, model: model, params: mctx.Params(), schema: schema}
	for p := range mctx.Prompts() {
		c.prompts = append(c.prompts, p)
	}
	for m := range mctx.Messages() {
		c.messages = append(c.messages, m.Clone())
	}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeGenerator) Invoke(ctx context.Context, model string, mctx genx.ModelContext, schema *genx.ResponseSchema) (genx.Usage, string, error) {
	f.record("invoke", model, mctx, schema)
	if f.err != nil {
		return genx.Usage{}, "", f.err
	}
	return genx.Usage{PromptTokenCount: 10}, f.text, nil
}

func (f *fakeGenerator) Generate(ctx context.Context, model string, mctx genx.ModelContext) (*genx.Response, error) {
	f.record("generate", model, mctx, nil)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &genx.Response{}, nil
	}
	return f.resp, nil
}

func (f *fakeGenerator) lastCall() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return call{}
	}
	return f.calls[len(f.calls)-1]
}

func newTestClient(g *fakeGenerator) *Client {
	return &Client{
		Generator: g,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
