package main

import (
	"errors"
	"fmt"

	"github.com/danmuck/framedserial/internal/config"
	"github.com/danmuck/framedserial/internal/framed"
	"github.com/danmuck/framedserial/internal/logging"
	"github.com/danmuck/framedserial/internal/observability"
	"github.com/danmuck/framedserial/internal/protocol/session"
	"github.com/danmuck/framedserial/internal/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var framectlVersion = "0.1.0"

// errDone stops a pump once a command has what it needs.
var errDone = errors.New("done")

type cliState struct {
	cfgFile  string
	device   string
	baud     int
	logLevel string

	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:   "framectl",
		Short: "Send and receive length-framed messages over a serial link",
		Long: `framectl drives a framed serial connection: every frame on the wire is
0xFF, a little-endian uint16 length, then the payload.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.resolve(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&st.cfgFile, "config", "", "path to a framectl TOML config")
	pf.StringVar(&st.device, "device", "", "serial device (overrides config)")
	pf.IntVar(&st.baud, "baud", 0, "baud rate (overrides config)")
	pf.StringVar(&st.logLevel, "log-level", "", "trace | debug | info | warn | error | off")

	root.AddCommand(
		newSendCmd(st),
		newListenCmd(st),
		newEncodeCmd(),
		newDecodeCmd(),
		newLoopbackCmd(st),
		newConfigCmd(st),
		newVersionCmd(),
	)
	return root
}

func (st *cliState) resolve(cmd *cobra.Command) error {
	cfg := config.Default()
	if st.cfgFile != "" {
		loaded, err := config.Load(st.cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Serial.Device = st.device
	}
	if flags.Changed("baud") {
		cfg.Serial.BaudRate = st.baud
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = st.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if cfg.LogLevel != "" && !logging.SetLevel(cfg.LogLevel) {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	st.cfg = cfg
	st.logger = observability.InitLogger("framectl")
	return nil
}

// openPump opens the configured serial device and wraps it in a pump.
func (st *cliState) openPump() (*session.Pump, *framed.Conn, error) {
	port, err := transport.OpenSerial(st.cfg.Serial)
	if err != nil {
		return nil, nil, err
	}
	cfg := st.cfg.Session
	cfg.Link = st.cfg.Serial.Device
	conn := framed.New(observability.Instrument(port, cfg.Link, st.logger))
	st.logger.Info().Str("device", st.cfg.Serial.Device).Int("baud", st.cfg.Serial.BaudRate).Msg("link_open")
	return session.NewPump(conn, cfg, st.logger), conn, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show framectl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "framectl version %s\n", framectlVersion)
			return nil
		},
	}
}
