package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/framedserial/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create framectl configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a default config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(args[0], force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			view := map[string]any{
				"serial": map[string]any{
					"device":       st.cfg.Serial.Device,
					"baud":         st.cfg.Serial.BaudRate,
					"read_timeout": st.cfg.Serial.ReadTimeout.String(),
				},
				"session": map[string]any{
					"poll_interval":        st.cfg.Session.PollInterval.String(),
					"max_transport_errors": st.cfg.Session.MaxTransportErrors,
					"backoff_initial":      st.cfg.Session.Backoff.InitialDelay.String(),
					"backoff_multiplier":   st.cfg.Session.Backoff.Multiplier,
					"backoff_max":          st.cfg.Session.Backoff.MaxDelay.String(),
					"backoff_jitter":       st.cfg.Session.Backoff.Jitter,
				},
				"log":     map[string]any{"level": st.cfg.LogLevel},
				"metrics": map[string]any{"addr": st.cfg.MetricsAddr},
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(view)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
