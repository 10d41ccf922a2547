package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"uplink/internal/nm"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List NetworkManager devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(session *nm.Session) error {
				infos, err := session.ListDevices(cmd.Context())
				if err != nil {
					return err
				}

				if jsonFlag {
					type deviceJSON struct {
						Path  string `json:"path"`
						Name  string `json:"name"`
						Kind  string `json:"kind"`
						State string `json:"state"`
					}
					out := make([]deviceJSON, 0, len(infos))
					for _, info := range infos {
						out = append(out, deviceJSON{
							Path:  info.Path,
							Name:  info.Name,
							Kind:  info.Kind.String(),
							State: info.State.String(),
						})
					}
					return writeJSON(cmd, out)
				}

				caser := cases.Title(language.English)
				rows := make([][]string, 0, len(infos))
				for _, info := range infos {
					rows = append(rows, []string{
						info.Name,
						caser.String(info.Kind.String()),
						info.State.String(),
						info.Path,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(cmd.OutOrStdout(),
					[]string{"Device", "Kind", "State", "Path"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of a table")
	return cmd
}
