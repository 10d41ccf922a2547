package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"uplink/internal/logging"
	"uplink/internal/monitor"
	"uplink/internal/nm"
)

func newMonitorCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Stream device and connection changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var kind nm.DeviceKind
			filtered := kindFlag != ""
			if filtered {
				kind, err = nm.ParseDeviceKind(kindFlag)
				if err != nil {
					return err
				}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return ctx.withSession(func(session *nm.Session) error {
				feed := monitor.New(logging.NewNop(), cfg.Monitor.EventBuffer)
				defer feed.Close()

				if !filtered {
					if err := feed.Track(runCtx, session.Manager()); err != nil {
						return err
					}
				}

				paths, err := session.Devices(runCtx)
				if err != nil {
					return err
				}
				for _, path := range paths {
					device := session.Device(path)
					if filtered {
						deviceKind, err := device.Kind(runCtx)
						if err != nil {
							return err
						}
						if deviceKind != kind {
							continue
						}
					}
					if err := feed.Track(runCtx, device); err != nil {
						return err
					}
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "watching %d objects, interrupt to stop\n", len(feed.Tracked()))
				for {
					select {
					case <-runCtx.Done():
						return nil
					case event, ok := <-feed.Events():
						if !ok {
							return nil
						}
						printEvent(cmd, event)
					}
				}
			})
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only watch devices of this kind (wifi, ethernet, ...)")
	return cmd
}

func printEvent(cmd *cobra.Command, event monitor.Event) {
	out := cmd.OutOrStdout()
	stamp := event.Time.Format("15:04:05.000")
	switch event.Kind {
	case monitor.EventStateChanged:
		fmt.Fprintf(out, "%s #%d %s state %s\n", stamp, event.Seq, event.Object, event.State)
	case monitor.EventSubscriptionLost:
		fmt.Fprintf(out, "%s #%d %s lost: %v\n", stamp, event.Seq, event.Object, event.Err)
	default:
		fmt.Fprintf(out, "%s #%d %s %s\n", stamp, event.Seq, event.Object, event.Kind)
	}
}
