package roots

import (
	"context"
	"errors"
	"testing"

	"github.com/haivivi/roots/pkg/genx"
	"github.com/haivivi/roots/pkg/genx/modelloader"
)

func TestSendChatMessage(t *testing.T) {
	g := &fakeGenerator{resp: &genx.Response{Contents: genx.Contents{genx.Text("In many traditions, "), genx.Text("the lotus...")}}}
	c := newTestClient(g)
	history := NewChatHistory(UserTurn("hi"), ModelTurn("hello"))

	reply, err := c.SendChatMessage(context.Background(), "ok", history)
	if err != nil {
		t.Fatalf("SendChatMessage error: %v", err)
	}
	if reply != "In many traditions, the lotus..." {
		t.Errorf("reply = %q", reply)
	}

	got := g.lastCall()
	if got.method != "generate" || got.model != modelloader.GeminiPro {
		t.Errorf("call = %s %s", got.method, got.model)
	}
	if len(got.prompts) != 1 || got.prompts[0].Text != Persona {
		t.Error("persona should be the system instruction")
	}
	want := []ChatTurn{UserTurn("hi"), ModelTurn("hello"), UserTurn("ok")}
	if len(got.messages) != len(want) {
		t.Fatalf("messages = %d, want %d", len(got.messages), len(want))
	}
	for i, m := range got.messages {
		if m.Role != want[i].Role || len(m.Contents) != 1 || m.Contents[0] != genx.Text(want[i].Text) {
			t.Errorf("messages[%d] = %s %v, want %+v", i, m.Role, m.Contents, want[i])
		}
	}
	if history.Len() != 2 {
		t.Errorf("history was modified: len = %d", history.Len())
	}
}

func TestSendChatMessage_ConsecutiveTurnsNotMerged(t *testing.T) {
	g := &fakeGenerator{resp: &genx.Response{Contents: genx.Contents{genx.Text("yes")}}}
	history := NewChatHistory(UserTurn("a"), UserTurn("b"))
	if _, err := newTestClient(g).SendChatMessage(context.Background(), "c", history); err != nil {
		t.Fatal(err)
	}
	if n := len(g.lastCall().messages); n != 3 {
		t.Errorf("messages = %d, want 3", n)
	}
}

func TestSendChatMessage_EmptyReply(t *testing.T) {
	g := &fakeGenerator{resp: &genx.Response{}}
	reply, err := newTestClient(g).SendChatMessage(context.Background(), "?", ChatHistory{})
	if err != nil {
		t.Fatal(err)
	}
	if reply != "I am meditating on that thought... please ask again." {
		t.Errorf("reply = %q", reply)
	}
}

func TestSendChatMessage_Errors(t *testing.T) {
	cause := context.DeadlineExceeded
	_, err := newTestClient(&fakeGenerator{err: cause}).SendChatMessage(context.Background(), "hi", ChatHistory{})
	var ne *NetworkError
	if !errors.As(err, &ne) || !errors.Is(err, cause) {
		t.Errorf("err = %v, want *NetworkError wrapping deadline", err)
	}

	bad := NewChatHistory(ChatTurn{Role: "tool", Text: "x"})
	if _, err := newTestClient(&fakeGenerator{}).SendChatMessage(context.Background(), "hi", bad); err == nil {
		t.Error("invalid role should fail")
	}
}

func TestChat_Send(t *testing.T) {
	ok := &Chat{Client: newTestClient(&fakeGenerator{resp: &genx.Response{Contents: genx.Contents{genx.Text("peace")}}})}
	if got := ok.Send(context.Background(), "hi", ChatHistory{}); got != "peace" {
		t.Errorf("Send = %q", got)
	}

	failing := &Chat{Client: newTestClient(&fakeGenerator{err: errors.New("503")})}
	if got := failing.Send(context.Background(), "hi", ChatHistory{}); got != "My connection to the cosmic cloud is glitching. Try again? 🌌" {
		t.Errorf("Send = %q", got)
	}
}

func TestChatHistory_Immutable(t *testing.T) {
	turns := []ChatTurn{UserTurn("a")}
	h1 := NewChatHistory(turns...)
	turns[0].Text = "changed"

	h2 := h1.Append(ModelTurn("b"))
	h3 := h1.Append(ModelTurn("c"))

	if h1.Len() != 1 || h1.Turns()[0].Text != "a" {
		t.Errorf("h1 = %+v", h1.Turns())
	}
	if h2.Turns()[1].Text != "b" || h3.Turns()[1].Text != "c" {
		t.Errorf("h2 = %+v, h3 = %+v", h2.Turns(), h3.Turns())
	}

	out := h2.Turns()
	out[0].Text = "mutated"
	if h2.Turns()[0].Text != "a" {
		t.Error("Turns should return a copy")
	}

	var n int
	for i, turn := range h2.All() {
		if i == 1 && turn.Role != genx.RoleModel {
			t.Errorf("turn %d role = %s", i, turn.Role)
		}
		n++
	}
	if n != 2 {
		t.Errorf("All yielded %d turns", n)
	}
}
