package roots

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/haivivi/roots/pkg/genx"
)

// ChatTurn is one message of a conversation.
type ChatTurn struct {
	Role genx.Role `json:"role" msgpack:"role"`
	Text string    `json:"text" msgpack:"text"`
}

// UserTurn returns a user turn.
func UserTurn(text string) ChatTurn {
	return ChatTurn{Role: genx.RoleUser, Text: text}
}

// ModelTurn returns a model turn.
func ModelTurn(text string) ChatTurn {
	return ChatTurn{Role: genx.RoleModel, Text: text}
}

// ChatHistory is an immutable, chronologically ordered list of turns. The
// zero value is an empty history.
type ChatHistory struct {
	turns []ChatTurn
}

// NewChatHistory returns a history holding a copy of turns.
func NewChatHistory(turns ...ChatTurn) ChatHistory {
	return ChatHistory{turns: slices.Clone(turns)}
}

// Append returns a new history with turns added at the end. h is unchanged.
func (h ChatHistory) Append(turns ...ChatTurn) ChatHistory {
	out := make([]ChatTurn, 0, len(h.turns)+len(turns))
	out = append(out, h.turns...)
	out = append(out, turns...)
	return ChatHistory{turns: out}
}

func (h ChatHistory) Len() int {
	return len(h.turns)
}

// Turns returns a copy of the turns.
func (h ChatHistory) Turns() []ChatTurn {
	return slices.Clone(h.turns)
}

// All iterates the turns in order.
func (h ChatHistory) All() iter.Seq2[int, ChatTurn] {
	return slices.All(h.turns)
}

// SendChatMessage sends message to the ROOTS persona after every turn of
// history, in order and unmerged, and returns the reply text only. An empty
// reply becomes ChatEmptyReply. Failures are returned.
//
// The caller appends both message and the reply to its history before the
// next call.
func (c *Client) SendChatMessage(ctx context.Context, message string, history ChatHistory) (string, error) {
	uc := useCases[KindChat]
	mcb := &genx.ModelContextBuilder{Params: uc.params}
	mcb.PromptText(KindChat.String(), uc.systemContext)
	for i, turn := range history.All() {
		if turn.Role != genx.RoleUser && turn.Role != genx.RoleModel {
			return "", fmt.Errorf("roots: chat turn %d has invalid role %q", i, turn.Role)
		}
		mcb.AppendMessage(&genx.Message{Role: turn.Role, Contents: genx.Contents{genx.Text(turn.Text)}})
	}
	mcb.AppendMessage(&genx.Message{Role: genx.RoleUser, Contents: genx.Contents{genx.Text(message)}})

	resp, err := c.generator().Generate(ctx, c.Model(KindChat), mcb.Build())
	if err != nil {
		return "", &NetworkError{Op: KindChat.String(), Err: err}
	}
	if reply := resp.Text(); reply != "" {
		return reply, nil
	}
	return ChatEmptyReply, nil
}

// Chat is the soft-failing conversation surface.
type Chat struct {
	Client *Client
}

// Send is like Client.SendChatMessage but never fails: errors are logged and
// ChatGlitchReply is returned instead.
func (ch *Chat) Send(ctx context.Context, message string, history ChatHistory) string {
	reply, err := ch.Client.SendChatMessage(ctx, message, history)
	if err != nil {
		ch.Client.logger().Warn("roots: chat failed", "err", err)
		return ChatGlitchReply
	}
	return reply
}
