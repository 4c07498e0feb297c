package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/opsentry/internal/app"
	"github.com/doeshing/opsentry/internal/domain"
)

func newChatCommand(container *app.Container) *cobra.Command {
	var (
		sessionID string
		userID    string
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "chat [request]",
		Short: "Send one plain-language request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			result, err := container.Conversation.ProcessInput(cmd.Context(), sessionID, text, userID)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)

			if result.RequiresConfirmation {
				confirmed := yes
				if !yes {
					confirmed = askConfirmation(cmd.InOrStdin(), cmd.OutOrStdout())
				}
				followUp, err := container.Conversation.ConfirmCommand(cmd.Context(), result.SessionID, confirmed)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), followUp)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session to continue (empty starts a new one)")
	cmd.Flags().StringVar(&userID, "user", "", "User identity for the session")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm risky commands without prompting")
	return cmd
}

func printResult(w io.Writer, result domain.ConversationResult) {
	fmt.Fprintln(w, result.Response)
	if result.RequiresConfirmation && result.ConfirmationPrompt != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, result.ConfirmationPrompt)
	}
	if len(result.Suggestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "You could try:")
		for _, s := range result.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	if result.SessionID != "" {
		fmt.Fprintf(w, "\n(session %s)\n", result.SessionID)
	}
}

func askConfirmation(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "> ")
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
