package main

import (
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/calc/pkg/engine"
	"github.com/charlie0129/calc/pkg/version"
)

const annotationNoDaemon = "calc/no-daemon"

func getVersion() (clientVersion, daemonVersion string, err error) {
	daemonVersion, err = apiClient.GetVersion()
	if err != nil {
		return version.Version, "", err
	}
	return version.Version, daemonVersion, nil
}

// logResponse logs a non-empty daemon reply the way every setter does.
func logResponse(ret string) {
	if ret != "" {
		logrus.Infof("daemon responded: %s", ret)
	}
}

// renderDisplay draws the display line for the terminal.
func renderDisplay(st *engine.State) string {
	text := st.Display
	if st.Error {
		return color.New(color.Bold, color.FgRed).Sprint(text)
	}

	op := ""
	if st.Operation != engine.OpNone {
		op = color.New(color.FgYellow).Sprint(st.Operation.Symbol()) + " "
	}
	return op + bold("%s", text)
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
