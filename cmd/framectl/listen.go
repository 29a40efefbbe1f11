package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/framedserial/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newListenCmd(st *cliState) *cobra.Command {
	var (
		count       int
		text        bool
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print frames received on the serial link",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("metrics-addr") {
				st.cfg.MetricsAddr = metricsAddr
			}
			pump, conn, err := st.openPump()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if st.cfg.MetricsAddr != "" {
				gin.SetMode(gin.ReleaseMode)
				router := observability.NewStatusRouter(st.cfg.Serial.Device, func() any {
					return pump.Stats()
				}, st.logger)
				go func() {
					if err := observability.ServeStatus(ctx, st.cfg.MetricsAddr, router, st.logger); err != nil {
						st.logger.Error().Err(err).Msg("status_server_failed")
					}
				}()
			}

			out := cmd.OutOrStdout()
			seen := 0
			err = pump.Run(ctx, func(p []byte) error {
				printFrame(out, seen, p, text)
				seen++
				if count > 0 && seen >= count {
					return errDone
				}
				return nil
			})
			if errors.Is(err, errDone) || errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many frames (0 = forever)")
	cmd.Flags().BoolVar(&text, "text", false, "print payloads as quoted text")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /health, /stats and /metrics on this address")
	return cmd
}
