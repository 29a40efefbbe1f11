package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
)

func newSendCmd(st *cliState) *cobra.Command {
	var (
		hexInput bool
		stdin    bool
	)
	cmd := &cobra.Command{
		Use:   "send [payload]...",
		Short: "Send each argument (or stdin line) as one frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stdin {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					args = append(args, sc.Text())
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}
			if len(args) == 0 {
				return fmt.Errorf("nothing to send")
			}
			payloads, err := parsePayloads(args, hexInput)
			if err != nil {
				return err
			}

			pump, conn, err := st.openPump()
			if err != nil {
				return err
			}
			defer conn.Close()

			for _, p := range payloads {
				if err := pump.Send(p); err != nil {
					return err
				}
			}
			if err := pump.Drain(cmd.Context(), nil); err != nil {
				return err
			}
			s := pump.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "sent frames=%d bytes=%d\n", s.FramesSent, s.PayloadSent)
			return nil
		},
	}
	cmd.Flags().BoolVar(&hexInput, "hex", false, "payloads are hex strings")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "also read one payload per stdin line")
	return cmd
}
