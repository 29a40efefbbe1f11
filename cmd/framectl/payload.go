package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func parsePayloads(args []string, hexInput bool) ([][]byte, error) {
	out := make([][]byte, 0, len(args))
	for i, arg := range args {
		if !hexInput {
			out = append(out, []byte(arg))
			continue
		}
		p, err := parseHex(arg)
		if err != nil {
			return nil, fmt.Errorf("payload[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// parseHex accepts "ff0300", "ff 03 00" and "FF:03:00".
func parseHex(raw string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(raw)
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	p, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", raw, err)
	}
	return p, nil
}

func printFrame(w io.Writer, idx int, p []byte, text bool) {
	if text {
		fmt.Fprintf(w, "frame %d len=%d %s\n", idx, len(p), strconv.Quote(string(p)))
		return
	}
	fmt.Fprintf(w, "frame %d len=%d %s\n", idx, len(p), hex.EncodeToString(p))
}
