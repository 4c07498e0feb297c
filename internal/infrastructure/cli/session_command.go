package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/opsentry/internal/app"
	"github.com/doeshing/opsentry/internal/domain"
)

func newSessionCommand(container *app.Container) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect conversation sessions",
	}
	sessionCmd.AddCommand(
		newSessionListCommand(container),
		newSessionHistoryCommand(container),
		newSessionClearCommand(container),
	)
	return sessionCmd
}

func newSessionListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := container.Store.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(w, "No sessions recorded yet.")
				return nil
			}
			for _, s := range sessions {
				user := s.UserID
				if user == "" {
					user = "-"
				}
				fmt.Fprintf(w, "%s  user=%s  turns=%d  last active %s\n",
					s.ID, user, s.TotalInteractions, humanize.Time(s.LastActivity))
			}
			return nil
		},
	}
}

func newSessionHistoryCommand(container *app.Container) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: "Show a session's message history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			messages, err := container.Conversation.GetHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			printMessages(cmd.OutOrStdout(), messages)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Max messages to show")
	return cmd
}

func newSessionClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <session-id>",
		Short: "Clear a session's message history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Conversation.ClearHistory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
}

func printMessages(w io.Writer, messages []domain.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "No messages recorded yet.")
		return
	}
	for _, msg := range messages {
		fmt.Fprintf(w, "[%s] %-9s %s\n",
			msg.CreatedAt.Format("2006-01-02 15:04:05"), msg.Role, msg.Content)
	}
}
