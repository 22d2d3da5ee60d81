package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/roots/pkg/cli"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Manage stored chat sessions",
	Long: `Manage stored chat sessions.

Sessions live in a badger database under ~/.giztoy/roots/sessions, or
the context's session_dir setting. Ids may be shortened to any unique
prefix.`,
}

var sessionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := sessionContext()
		if err != nil {
			return err
		}
		store, db, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		reqCtx, cancel := requestContext(ctx)
		defer cancel()
		metas, err := store.List(reqCtx)
		if err != nil {
			return err
		}
		if structuredOutput() {
			return outputResult(cmd, metas)
		}
		if len(metas) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tTURNS\tUPDATED")
		for _, m := range metas {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", m.ID[:min(8, len(m.ID))], cli.Truncate(m.Title, 40), m.Turns, m.UpdatedAt.Local().Format(time.DateTime))
		}
		return w.Flush()
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := sessionContext()
		if err != nil {
			return err
		}
		store, db, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		reqCtx, cancel := requestContext(ctx)
		defer cancel()
		sess, err := store.Load(reqCtx, args[0])
		if err != nil {
			return err
		}
		if structuredOutput() {
			return outputResult(cmd, struct {
				Meta  any `json:"meta"`
				Turns any `json:"turns"`
			}{sess.Meta, sess.History.Turns()})
		}
		title := sess.Title
		if title == "" {
			title = sess.ID
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, styles.Title.Render(title))
		fmt.Fprintln(out, styles.Help.Render(fmt.Sprintf("%s · %d turns · updated %s", sess.ID, sess.Turns, sess.UpdatedAt.Local().Format(time.DateTime))))
		if sess.History.Len() > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.RenderTranscript(styles, transcript(sess.History), termWidth()))
		}
		return nil
	},
}

var sessionNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create an empty session and print its id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := sessionContext()
		if err != nil {
			return err
		}
		store, db, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		title := ""
		if len(args) == 1 {
			title = args[0]
		}
		reqCtx, cancel := requestContext(ctx)
		defer cancel()
		sess, err := store.Create(reqCtx, title)
		if err != nil {
			return err
		}
		if structuredOutput() {
			return outputResult(cmd, sess.Meta)
		}
		fmt.Fprintln(cmd.OutOrStdout(), sess.ID)
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Aliases: []string{"rm"},
	Short:   "Delete sessions",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := sessionContext()
		if err != nil {
			return err
		}
		store, db, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		reqCtx, cancel := requestContext(ctx)
		defer cancel()
		for _, id := range args {
			if err := store.Delete(reqCtx, id); err != nil {
				return err
			}
			cli.PrintSuccess("Session %s deleted", id)
		}
		return nil
	},
}

// sessionContext resolves the context without requiring an API key: session
// management never calls a model.
func sessionContext() (*cli.Context, error) {
	ctx, err := getContext()
	if err != nil && contextName == "" {
		return &cli.Context{Name: "default"}, nil
	}
	return ctx, err
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionNewCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
}
