package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/calc/pkg/engine"
	"github.com/charlie0129/calc/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version",
		Annotations: map[string]string{annotationNoDaemon: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewPressCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "press [keys...]",
		Short:   "Press calculator keys",
		GroupID: gBasic,
		Long: `Press calculator keys and print the display.

Each argument is either a named key (Enter, Backspace, Escape, F9) or a
sequence of single-character keys: digits, the decimal separator and
+ - * / =. Arguments are pressed in order.`,
		Example: `  calc press 12+3,5=
  calc press 7 F9
  calc press 1/3 Enter`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var st *engine.State
			for _, keys := range args {
				var err error
				st, err = apiClient.Press(keys)
				if err != nil {
					return fmt.Errorf("failed to press %q: %w", keys, err)
				}
			}

			cmd.Println(renderDisplay(st))
			if st.Error {
				logrus.Warn("the last computation failed, run 'calc clear' to continue")
			}
			return nil
		},
	}
}

func NewClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "clear",
		Short:   "Clear the calculator",
		GroupID: gBasic,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := apiClient.Clear()
			if err != nil {
				return fmt.Errorf("failed to clear: %w", err)
			}
			cmd.Println(renderDisplay(st))
			return nil
		},
	}
}

func NewSeparatorCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "separator [,|.]",
		Short:     "Set the decimal separator",
		GroupID:   gAdvanced,
		Long:      `Set the decimal separator shown on the display. The display is rewritten immediately and the setting is saved to the daemon config.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{",", "."},
		RunE: func(_ *cobra.Command, args []string) error {
			ret, err := apiClient.SetDecimalSeparator(args[0])
			if err != nil {
				return fmt.Errorf("failed to set decimal separator: %w", err)
			}
			logResponse(ret)
			return nil
		},
	}
}
