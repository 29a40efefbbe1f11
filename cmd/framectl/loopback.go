package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/framedserial/internal/framed"
	"github.com/danmuck/framedserial/internal/observability"
	"github.com/danmuck/framedserial/internal/protocol/session"
	"github.com/danmuck/framedserial/internal/transport"
	"github.com/spf13/cobra"
)

func newLoopbackCmd(st *cliState) *cobra.Command {
	var (
		hexInput bool
		text     bool
		capacity int
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "loopback <payload>...",
		Short: "Round-trip frames between two in-memory connections",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payloads, err := parsePayloads(args, hexInput)
			if err != nil {
				return err
			}

			a, b := transport.Pipe(capacity)
			cfg := st.cfg.Session
			cfg.Link = "loopback-a"
			sender := session.NewPump(framed.New(observability.Instrument(a, cfg.Link, st.logger)), cfg, st.logger)
			cfg.Link = "loopback-b"
			receiver := session.NewPump(framed.New(observability.Instrument(b, cfg.Link, st.logger)), cfg, st.logger)

			for _, p := range payloads {
				if err := sender.Send(p); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			sendErr := make(chan error, 1)
			go func() {
				sendErr <- sender.Drain(ctx, nil)
			}()

			out := cmd.OutOrStdout()
			var mismatch error
			seen := 0
			err = receiver.Run(ctx, func(p []byte) error {
				printFrame(out, seen, p, text)
				if string(p) != string(payloads[seen]) && mismatch == nil {
					mismatch = fmt.Errorf("frame %d mismatch", seen)
				}
				seen++
				if seen == len(payloads) {
					return errDone
				}
				return nil
			})
			if err != nil && !errors.Is(err, errDone) {
				return fmt.Errorf("loopback receive: %w", err)
			}
			if err := <-sendErr; err != nil {
				return fmt.Errorf("loopback send: %w", err)
			}
			if mismatch != nil {
				return mismatch
			}
			fmt.Fprintf(out, "ok frames=%d\n", seen)
			return nil
		},
	}
	cmd.Flags().BoolVar(&hexInput, "hex", false, "payloads are hex strings")
	cmd.Flags().BoolVar(&text, "text", false, "print payloads as quoted text")
	cmd.Flags().IntVar(&capacity, "capacity", 16, "bytes buffered per direction (0 = unbounded)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "give up after this long")
	return cmd
}
