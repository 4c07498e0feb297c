package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/opsentry/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	chatCmd := newChatCommand(container)

	root := &cobra.Command{
		Use:   "opsentry [request]",
		Short: "opsentry - natural-language security operations",
		Long:  "opsentry turns plain-language requests into risk-scored security commands, asking for confirmation before anything risky runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			chatCmd.SetArgs(args)
			return chatCmd.ExecuteContext(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(chatCmd)
	root.AddCommand(newSessionCommand(container))
	root.AddCommand(newRulesCommand(container))
	root.AddCommand(newVersionCommand())
	return root, nil
}
