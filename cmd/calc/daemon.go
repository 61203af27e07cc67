package main

import (
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/calc/pkg/daemon"
	"github.com/charlie0129/calc/pkg/version"
)

var (
	// alwaysAllowNonRootAccess indicates whether to always allow other users to access the calc daemon.
	alwaysAllowNonRootAccess = false
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "daemon",
		Short:       "Run calc daemon in the foreground",
		GroupID:     gAdvanced,
		Annotations: map[string]string{annotationNoDaemon: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("calc daemon starting")

			if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
				return pkgerrors.Wrapf(err, "failed to create config directory")
			}
			return daemon.Run(configPath, unixSocketPath, alwaysAllowNonRootAccess)
		},
	}

	f := cmd.Flags()

	f.BoolVar(&alwaysAllowNonRootAccess, "always-allow-non-root-access", false,
		"Always allow other users to access the daemon socket.")

	return cmd
}
