package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/calc/pkg/client"
)

var (
	logLevel       = "info"
	unixSocketPath = filepath.Join(os.TempDir(), "calc.sock")
	configPath     = defaultConfigPath()
)

var apiClient *client.Client

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
	}
)

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "calc.json"
	}
	return filepath.Join(dir, "calc", "config.json")
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: calc daemon is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'calc daemon', or point --daemon-socket at a running one.")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - The daemon socket belongs to another user")
		fmt.Fprintln(os.Stderr, "  - Restart the daemon with '--always-allow-non-root-access' or set allowNonRootAccess in its config")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "calc is a desk calculator served to your browser and terminal",
		Long: `calc is a desk calculator.

A daemon keeps one calculator. The browser widget, the command line and MCP
clients all drive the same display.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			apiClient = client.NewClient(unixSocketPath)

			// The daemon itself and commands that only print do not need to
			// talk to a daemon.
			if cmd.Annotations[annotationNoDaemon] != "" {
				return nil
			}

			if clientVersion, daemonVersion, err := getVersion(); err == nil {
				if daemonVersion != clientVersion {
					logrus.WithFields(logrus.Fields{
						"clientVersion": clientVersion,
						"daemonVersion": daemonVersion,
					}).Warn("Version mismatch between client and daemon. Restart the daemon after upgrading calc.")
				}
			} else if errors.Is(err, client.ErrNotFound) {
				logrus.Error("calc daemon is too old to report its version. Restart the daemon after upgrading calc.")
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path (.json or .toml)")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "calc daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewPressCommand(),
		NewClearCommand(),
		NewStatusCommand(),
		NewWatchCommand(),
		NewSeparatorCommand(),
		NewAutoClearCommand(),
		NewMCPCommand(),
	)

	return cmd
}
