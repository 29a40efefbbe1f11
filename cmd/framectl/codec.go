package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/framedserial/internal/protocol/frame"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var hexInput bool
	cmd := &cobra.Command{
		Use:   "encode <payload>...",
		Short: "Print the wire bytes for one or more frames",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payloads, err := parsePayloads(args, hexInput)
			if err != nil {
				return err
			}
			var wire []byte
			for _, p := range payloads {
				if wire, err = frame.AppendFrame(wire, p); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(wire))
			return nil
		},
	}
	cmd.Flags().BoolVar(&hexInput, "hex", false, "payloads are hex strings")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	var (
		hexInput bool
		text     bool
	)
	cmd := &cobra.Command{
		Use:   "decode <capture-file|->",
		Short: "Split a raw byte capture into frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if hexInput {
				if raw, err = parseHex(string(raw)); err != nil {
					return err
				}
			}
			dec := frame.NewDecoder(bufio.NewReader(bytes.NewReader(raw)))
			out := cmd.OutOrStdout()
			n := 0
			for {
				p, err := dec.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					fmt.Fprintf(out, "frames=%d discarded=%d\n", n, dec.Discarded())
					return fmt.Errorf("decode frame %d: %w", n, err)
				}
				printFrame(out, n, p, text)
				n++
			}
			fmt.Fprintf(out, "frames=%d discarded=%d\n", n, dec.Discarded())
			return nil
		},
	}
	cmd.Flags().BoolVar(&hexInput, "hex", false, "capture is a hex dump")
	cmd.Flags().BoolVar(&text, "text", false, "print payloads as quoted text")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	return data, nil
}
