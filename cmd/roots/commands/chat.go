package commands

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/cli"
	"github.com/haivivi/roots/pkg/genx"
	"github.com/haivivi/roots/pkg/roots"
	"github.com/haivivi/roots/pkg/session"
)

var (
	chatSessionID string
	chatNew       bool
	chatTitle     string
	chatHistory   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk with the ROOTS comparative mythologist",
	Long: `Talk with the ROOTS comparative mythologist.

With a message argument a single turn is sent and the reply printed.
Without one, lines are read from stdin until EOF or "/exit".

Conversations are kept in memory unless --new or --session is given;
those store every turn in the session database so a later run can
continue where it stopped.

Examples:
  roots chat "Who is Hermes?"
  roots chat --new --title "Norse" "Tell me about Yggdrasil"
  roots chat --session 3f2a "And what about the Norns?"
  roots chat --session 3f2a --history`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "continue a stored session (id or unique id prefix)")
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "start a new stored session")
	chatCmd.Flags().StringVar(&chatTitle, "title", "", "title of the new session (with --new)")
	chatCmd.Flags().BoolVar(&chatHistory, "history", false, "print the session transcript before chatting")
}

// chatter sends messages and keeps the history, persisting it when a
// session store is attached.
type chatter struct {
	chat  *roots.Chat
	store *session.Store
	sess  *session.Session
}

func (c *chatter) send(ctx context.Context, message string) (string, error) {
	reply := c.chat.Send(ctx, message, c.sess.History)
	c.sess.History = c.sess.History.Append(roots.UserTurn(message), roots.ModelTurn(reply))
	if c.store != nil {
		if err := c.store.Save(ctx, c.sess); err != nil {
			return reply, err
		}
	}
	return reply, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatNew && chatSessionID != "" {
		return fmt.Errorf("--new and --session are mutually exclusive")
	}
	client, ctx, err := createClient()
	if err != nil {
		return err
	}

	c := &chatter{
		chat: &roots.Chat{Client: client},
		sess: &session.Session{},
	}
	if chatNew || chatSessionID != "" {
		store, db, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		c.store = store

		reqCtx, cancel := requestContext(ctx)
		if chatNew {
			c.sess, err = store.Create(reqCtx, chatTitle)
		} else {
			c.sess, err = store.Load(reqCtx, chatSessionID)
		}
		cancel()
		if err != nil {
			return err
		}
		printVerbose("Session: %s (%d turns)", c.sess.ID, c.sess.History.Len())
	}

	if chatHistory && c.sess.History.Len() > 0 && !structuredOutput() {
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTranscript(styles, transcript(c.sess.History), termWidth()))
		fmt.Fprintln(cmd.OutOrStdout())
	}

	if len(args) == 1 {
		return chatOnce(cmd, ctx, c, args[0])
	}
	return chatLoop(cmd, ctx, c)
}

func chatOnce(cmd *cobra.Command, ctx *cli.Context, c *chatter, message string) error {
	reqCtx, cancel := requestContext(ctx)
	defer cancel()
	reply, err := c.send(reqCtx, message)
	if err != nil {
		return err
	}
	if structuredOutput() {
		return outputResult(cmd, chatResult{SessionID: c.sess.ID, Reply: reply, Turns: c.sess.History.Turns()})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTranscript(styles, []cli.Line{modelLine(reply)}, termWidth()))
	if c.store != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), styles.Help.Render("session "+c.sess.ID))
	}
	return nil
}

func chatLoop(cmd *cobra.Command, ctx *cli.Context, c *chatter) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(cmd.ErrOrStderr(), styles.Help.Render(`Type a message and press Enter. "/exit" or Ctrl-D quits.`))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(cmd.ErrOrStderr(), styles.User.Render("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			break
		}

		reqCtx, cancel := requestContext(ctx)
		reply, err := c.send(reqCtx, line)
		cancel()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cli.RenderTranscript(styles, []cli.Line{modelLine(reply)}, termWidth()))
		fmt.Fprintln(out)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if c.store != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), styles.Help.Render(fmt.Sprintf("session %s saved (%d turns)", c.sess.ID, c.sess.History.Len())))
	}
	return nil
}

type chatResult struct {
	SessionID string           `json:"session_id,omitempty"`
	Reply     string           `json:"reply"`
	Turns     []roots.ChatTurn `json:"turns"`
}

func modelLine(text string) cli.Line {
	return cli.Line{Speaker: "ROOTS", Text: text}
}

func transcript(h roots.ChatHistory) []cli.Line {
	lines := make([]cli.Line, 0, h.Len())
	for _, turn := range h.All() {
		if turn.Role == genx.RoleUser {
			lines = append(lines, cli.Line{Speaker: "You", User: true, Text: turn.Text})
			continue
		}
		lines = append(lines, modelLine(turn.Text))
	}
	return lines
}
