package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"iotsend/pkg/config"
	"iotsend/pkg/hub"
	"iotsend/pkg/message"
)

var (
	cfgPath    string
	verbose    bool
	rawHeaders string
)

// dialHub is swapped out in tests.
var dialHub = hub.Dial

// rootCmd performs the send itself; there is no subcommand for the
// normal path.
var rootCmd = &cobra.Command{
	Use:   "iotsend [flags] [filename]",
	Short: "Send an IoT message to the hub service",
	Long: `Send a single IoT message to the cloud via the hub service.

A message is a list of key:value header properties followed by a binary
or text payload. The payload is read from the named file, or from
standard input when no filename is given:

  echo "Hello World" | iotsend
  iotsend -H "source:sensor-1;messagetype:telemetry" readings.bin

Exactly one best-effort send is performed per invocation.`,
	// Only the first positional argument is honored; extras are
	// ignored, as are unrecognized flags, matching the historical
	// behavior of the utility.
	Args:               cobra.ArbitraryArgs,
	SilenceUsage:       true,
	SilenceErrors:      true,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := ""
		if len(args) > 0 {
			filePath = args[0]
		}
		return runSend(filePath)
	},
}

func init() {
	// All human-readable output, usage text included, belongs on the
	// error stream.
	rootCmd.SetOut(os.Stderr)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to configuration file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.Flags().StringVarP(&rawHeaders, "headers", "H", "",
		"Message headers as key:value pairs separated by ';'")
}

func runSend(filePath string) error {
	cfg, err := config.Load(config.GetConfigPath(cfgPath))
	if err != nil {
		return xerrors.Errorf("load configuration: %w", err)
	}

	setupLogging(cfg)
	watchSignals()

	client, err := dialHub(cfg.ToHubConfig())
	if err != nil {
		return xerrors.Errorf("connect to hub: %w", err)
	}
	defer client.Close()

	client.SetVerbose(verbose)

	inv := message.Invocation{
		Verbose:    verbose,
		RawHeaders: rawHeaders,
		FilePath:   filePath,
	}
	return message.Send(client, inv, cfg.Message.MaxSize)
}

// setupLogging configures logrus from the loaded configuration; the
// verbose flag forces debug level.
func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}

// watchSignals exits immediately on SIGINT/SIGTERM. No partial-send
// cleanup is attempted; the transport owns partial-send semantics.
func watchSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logrus.Infof("Received signal %s, exiting", sig)
		os.Exit(1)
	}()
}
