package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"uplink/internal/ipc"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Query the uplinkd observer daemon",
	}

	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))
	daemonCmd.AddCommand(newDaemonNetworksCommand(ctx))
	daemonCmd.AddCommand(newDaemonEventsCommand(ctx))

	return daemonCmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon runtime information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, status)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Running:   %s\n", yesNo(status.Running))
				fmt.Fprintf(out, "Run ID:    %s\n", status.RunID)
				fmt.Fprintf(out, "PID:       %d\n", status.PID)
				if status.Running {
					fmt.Fprintf(out, "Since:     %s\n", status.StartedAt.Format("2006-01-02 15:04:05"))
				}
				fmt.Fprintf(out, "Lock:      %s\n", status.LockPath)
				if status.HistoryDBPath != "" {
					fmt.Fprintf(out, "History:   %s\n", status.HistoryDBPath)
				}
				fmt.Fprintf(out, "Tracking:  %d objects\n", len(status.TrackedObjects))
				for _, path := range status.TrackedObjects {
					fmt.Fprintf(out, "  %s\n", path)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of text")
	return cmd
}

func newDaemonNetworksCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "networks",
		Short: "Show networks the daemon has observed recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Networks()
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, resp.Networks)
				}

				rows := make([][]string, 0, len(resp.Networks))
				for _, network := range resp.Networks {
					name := network.SSID
					if network.Hidden {
						name = "(hidden)"
					}
					rows = append(rows, []string{
						name,
						network.Band,
						strconv.FormatUint(uint64(network.Strength), 10) + "%",
						network.LastSeen.Local().Format("2006-01-02 15:04:05"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(cmd.OutOrStdout(),
					[]string{"Network", "Band", "Strength", "Last Seen"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newDaemonEventsCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent change events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Events(limitFlag)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, resp.Events)
				}

				rows := make([][]string, 0, len(resp.Events))
				for _, event := range resp.Events {
					detail := event.State
					if event.Error != "" {
						detail = event.Error
					}
					rows = append(rows, []string{
						event.ObservedAt.Local().Format("2006-01-02 15:04:05"),
						event.Kind,
						event.Object,
						detail,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(cmd.OutOrStdout(),
					[]string{"Time", "Kind", "Object", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 50, "Maximum number of events")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
