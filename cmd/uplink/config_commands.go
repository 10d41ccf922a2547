package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"uplink/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "State dir:           %s\n", cfg.Paths.StateDir)
			fmt.Fprintf(out, "Log dir:             %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Bus address:         %s\n", busAddressLabel(cfg.Bus.Address))
			fmt.Fprintf(out, "Call timeout:        %s\n", cfg.CallTimeout())
			fmt.Fprintf(out, "Activate timeout:    %s\n", cfg.ActivateTimeout())
			fmt.Fprintf(out, "Deactivate timeout:  %s\n", cfg.DeactivateTimeout())
			fmt.Fprintf(out, "Scan interval:       %s\n", cfg.ScanInterval())
			fmt.Fprintf(out, "History enabled:     %s\n", yesNo(cfg.History.Enabled))
			fmt.Fprintf(out, "Retention days:      %d\n", cfg.History.RetentionDays)
			fmt.Fprintf(out, "Log format:          %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "Log level:           %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "Socket:              %s\n", cfg.SocketPath())
			return nil
		},
	}
}

func busAddressLabel(address string) string {
	if strings.TrimSpace(address) == "" {
		return "(system bus)"
	}
	return address
}
