package genx

import (
	"errors"
	"iter"

	"github.com/goccy/go-yaml"
)

// ErrNoContents is returned by generators when a model context has no
// message with at least one part.
var ErrNoContents = errors.New("genx: model context has no contents")

var _ ModelContext = (*modelContext)(nil)

type ModelContextBuilder struct {
	Prompts  []*Prompt
	Messages []*Message

	Params *ModelParams
}

func (mcb *ModelContextBuilder) Build() ModelContext {
	return &modelContext{
		prompts:  mcb.Prompts,
		messages: mcb.Messages,
		params:   mcb.Params,
	}
}

func (mcb *ModelContextBuilder) lastPrompt() (*Prompt, bool) {
	if len(mcb.Prompts) == 0 {
		return nil, false
	}
	return mcb.Prompts[len(mcb.Prompts)-1], true
}

func (mcb *ModelContextBuilder) AddPrompt(prompt *Prompt) {
	if p, ok := mcb.lastPrompt(); ok && p.Name == prompt.Name {
		if p.Text != "" {
			p.Text += "\n" + prompt.Text
		} else {
			p.Text = prompt.Text
		}
		return
	}
	mcb.Prompts = append(mcb.Prompts, prompt)
}

func (mcb *ModelContextBuilder) lastMessage() (*Message, bool) {
	if len(mcb.Messages) == 0 {
		return nil, false
	}
	return mcb.Messages[len(mcb.Messages)-1], true
}

// AddMessage appends msg, merging its contents into the previous message
// when both share role and name.
func (mcb *ModelContextBuilder) AddMessage(msg *Message) {
	if m, ok := mcb.lastMessage(); ok && m.Role == msg.Role && m.Name == msg.Name {
		m.Contents = append(m.Contents, msg.Contents...)
		return
	}
	mcb.Messages = append(mcb.Messages, msg)
}

// AppendMessage appends msg as its own turn without merging.
func (mcb *ModelContextBuilder) AppendMessage(msg *Message) {
	mcb.Messages = append(mcb.Messages, msg)
}

func (mcb *ModelContextBuilder) Prompt(name, key string, value any) error {
	b, err := yaml.Marshal(map[string]any{key: value})
	if err != nil {
		return err
	}
	mcb.AddPrompt(&Prompt{
		Name: name,
		Text: string(b),
	})
	return nil
}

func (mcb *ModelContextBuilder) PromptText(name, text string) {
	mcb.AddPrompt(&Prompt{
		Name: name,
		Text: text,
	})
}

func (mcb *ModelContextBuilder) UserText(name, text string) {
	mcb.AddMessage(&Message{
		Role:     RoleUser,
		Name:     name,
		Contents: Contents{Text(text)},
	})
}

func (mcb *ModelContextBuilder) UserBlob(name string, mimeType string, data []byte) {
	mcb.AddMessage(&Message{
		Role:     RoleUser,
		Name:     name,
		Contents: Contents{&Blob{MIMEType: mimeType, Data: data}},
	})
}

func (mcb *ModelContextBuilder) ModelText(name, text string) {
	mcb.AddMessage(&Message{
		Role:     RoleModel,
		Name:     name,
		Contents: Contents{Text(text)},
	})
}

type modelContext struct {
	prompts  []*Prompt
	messages []*Message

	params *ModelParams
}

func (mctx *modelContext) Prompts() iter.Seq[*Prompt] {
	return func(yield func(*Prompt) bool) {
		for _, prompt := range mctx.prompts {
			if !yield(prompt) {
				return
			}
		}
	}
}

func (mctx *modelContext) Messages() iter.Seq[*Message] {
	return func(yield func(*Message) bool) {
		for _, message := range mctx.messages {
			if !yield(message) {
				return
			}
		}
	}
}

func (mctx *modelContext) Params() *ModelParams {
	return mctx.params
}
