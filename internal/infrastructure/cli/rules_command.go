package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/opsentry/internal/app"
)

func newRulesCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show the effective safety rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			fmt.Fprintln(w, "Destructive patterns:")
			for _, p := range container.Validator.Patterns() {
				fmt.Fprintf(w, "  [%-8s] %-40s %s\n", p.Level, p.Pattern, p.Message)
			}

			fmt.Fprintf(w, "\nAllowed command families: %s\n",
				strings.Join(container.Config.Execution.AllowedCommands, ", "))
			if len(container.Config.Execution.DeniedCommands) > 0 {
				fmt.Fprintf(w, "Denied command families:  %s\n",
					strings.Join(container.Config.Execution.DeniedCommands, ", "))
			}
			fmt.Fprintf(w, "Confirmation threshold:   %s\n", container.Config.Safety.ConfirmationThreshold)
			return nil
		},
	}
}
