package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"uplink/internal/activation"
	"uplink/internal/nm"
)

func newUpCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var timeoutFlag time.Duration

	cmd := &cobra.Command{
		Use:   "up <connection>",
		Short: "Activate a connection profile and wait for it to come up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			connectionID := args[0]

			kind, err := nm.ParseDeviceKind(kindFlag)
			if err != nil {
				return err
			}

			timeout := timeoutFlag
			if timeout <= 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				timeout = cfg.ActivateTimeout()
			}

			return ctx.withSession(func(session *nm.Session) error {
				device, err := session.FindDevice(cmd.Context(), kind)
				if err != nil {
					return err
				}
				profile, err := session.FindConnection(cmd.Context(), connectionID)
				if err != nil {
					return err
				}
				if _, err := session.ActivateConnection(cmd.Context(), profile.Path(), device.Path()); err != nil {
					return fmt.Errorf("activate %q: %w", connectionID, err)
				}

				outcome := activation.WaitForState(cmd.Context(), device, activation.ReachState(nm.StateActivated), timeout)
				if outcome.Succeeded() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is up on %s\n", connectionID, device.Path())
					return nil
				}
				return outcomeError(connectionID, outcome)
			})
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "wifi", "Device kind to activate on (wifi, ethernet, ...)")
	cmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Wait deadline (default from config)")
	return cmd
}

// outcomeError maps a non-success wait onto a distinct exit code: timeout is
// 2, an early stream end is 3, everything else is 1.
func outcomeError(connectionID string, outcome activation.Outcome) error {
	err := fmt.Errorf("%s: %w (last state %s)", connectionID, outcome.Err, outcome.Last)
	switch outcome.Kind {
	case activation.KindTimeout:
		return &exitCodeError{code: 2, err: err}
	case activation.KindStreamEnded:
		return &exitCodeError{code: 3, err: err}
	default:
		return &exitCodeError{code: 1, err: err}
	}
}
