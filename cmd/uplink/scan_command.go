package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"uplink/internal/nm"
	"uplink/internal/scan"
)

// rescanSettle gives the service a moment to refresh its access point list
// after a requested scan before the results are read back.
const rescanSettle = 3 * time.Second

func newScanCommand(ctx *commandContext) *cobra.Command {
	var rescanFlag bool
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List visible wireless networks, one entry per network and band",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(session *nm.Session) error {
				devices, err := session.DevicesOfKind(cmd.Context(), nm.KindWifi)
				if err != nil {
					return err
				}
				if len(devices) == 0 {
					return fmt.Errorf("%w: no wifi device", nm.ErrNotFound)
				}

				var observations []scan.Record
				for _, device := range devices {
					if rescanFlag {
						if err := session.RequestScan(cmd.Context(), device.Path()); err != nil {
							// Back-to-back requests get throttled; the cached
							// list is still readable.
							fmt.Fprintf(cmd.ErrOrStderr(), "scan request on %s rejected: %v\n", device.Path(), err)
						}
					}
					records, err := session.AccessPoints(cmd.Context(), device.Path())
					if err != nil {
						return err
					}
					observations = append(observations, records...)
				}
				if rescanFlag {
					select {
					case <-cmd.Context().Done():
						return cmd.Context().Err()
					case <-time.After(rescanSettle):
					}
					observations = observations[:0]
					for _, device := range devices {
						records, err := session.AccessPoints(cmd.Context(), device.Path())
						if err != nil {
							return err
						}
						observations = append(observations, records...)
					}
				}

				networks := scan.Merge(observations)

				if jsonFlag {
					type networkJSON struct {
						SSID      string `json:"ssid"`
						Band      string `json:"band"`
						Frequency uint32 `json:"frequency"`
						Strength  uint8  `json:"strength"`
						Hidden    bool   `json:"hidden"`
					}
					out := make([]networkJSON, 0, len(networks))
					for _, network := range networks {
						out = append(out, networkJSON{
							SSID:      network.SSID,
							Band:      string(network.Band()),
							Frequency: network.Frequency,
							Strength:  network.Strength,
							Hidden:    network.Hidden(),
						})
					}
					return writeJSON(cmd, out)
				}

				rows := make([][]string, 0, len(networks))
				for _, network := range networks {
					name := network.SSID
					if network.Hidden() {
						name = "(hidden)"
					}
					rows = append(rows, []string{
						name,
						string(network.Band()),
						strconv.FormatUint(uint64(network.Frequency), 10),
						strconv.FormatUint(uint64(network.Strength), 10) + "%",
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(cmd.OutOrStdout(),
					[]string{"Network", "Band", "Frequency", "Strength"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&rescanFlag, "rescan", false, "Request a fresh scan before reading results")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table")
	return cmd
}
