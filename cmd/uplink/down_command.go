package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"uplink/internal/activation"
	"uplink/internal/nm"
)

func newDownCommand(ctx *commandContext) *cobra.Command {
	var timeoutFlag time.Duration

	cmd := &cobra.Command{
		Use:   "down <connection>",
		Short: "Deactivate an active connection and wait for teardown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			connectionID := args[0]

			timeout := timeoutFlag
			if timeout <= 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				timeout = cfg.DeactivateTimeout()
			}

			return ctx.withSession(func(session *nm.Session) error {
				active, err := session.FindActiveConnection(cmd.Context(), connectionID)
				if err != nil {
					return err
				}
				if err := session.DeactivateConnection(cmd.Context(), active.Path()); err != nil {
					return fmt.Errorf("deactivate %q: %w", connectionID, err)
				}

				outcome := activation.WaitForState(cmd.Context(), active, activation.ReachState(nm.StateDisconnected), timeout)
				if outcome.Succeeded() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is down\n", connectionID)
					return nil
				}
				return outcomeError(connectionID, outcome)
			})
		},
	}

	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Wait deadline (default from config)")
	return cmd
}
