package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlie0129/calc/pkg/client"
	"github.com/charlie0129/calc/pkg/config"
	"github.com/charlie0129/calc/pkg/engine"
)

type statusData struct {
	state     *engine.State
	config    *config.RawFileConfig
	autoClear *client.AutoClearStatus
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	st, err := apiClient.GetState()
	if err != nil {
		return nil, fmt.Errorf("failed to get calculator state: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	ac, err := apiClient.GetAutoClearSchedule()
	if err != nil {
		return nil, fmt.Errorf("failed to get auto clear schedule: %w", err)
	}

	return &statusData{
		state:     st,
		config:    conf,
		autoClear: ac,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of calc",
		Long:    `Get the calculator display, its pending operation and the daemon configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			conf := config.NewFileFromConfig(data.config, "")
			st := data.state

			cmd.Println(bold("Calculator:"))
			cmd.Printf("  Display: %s\n", renderDisplay(st))
			if st.Operation != engine.OpNone {
				first := "-"
				if st.FirstOperand != nil {
					first, _ = engine.FormatValue(*st.FirstOperand, conf.MaxLength(), conf.DecimalSeparator())
				}
				cmd.Printf("  Pending: %s %s\n", first, bold("%s", st.Operation.Symbol()))
			}
			cmd.Println("  Ready: " + bool2Text(!st.Error))
			if st.Error {
				cmd.Println("    The last computation failed. Run 'calc clear' to continue.")
			}
			cmd.Println("  Can delete: " + bool2Text(st.CanDelete))
			cmd.Println()

			cmd.Println(bold("Configuration:"))
			cmd.Printf("  Display length: %s\n", bold("%d", conf.MaxLength()))
			cmd.Printf("  Decimal separator: %s\n", bold("%q", conf.DecimalSeparator()))
			cmd.Printf("  Blink delay: %s\n", bold("%s", conf.BlinkDelay()))
			if addr := conf.ListenAddress(); addr != "" {
				cmd.Printf("  Widget: %s\n", bold("http://%s/", addr))
			} else {
				cmd.Println("  Widget: " + bool2Text(false))
			}
			cmd.Println("  Allow non-root access: " + bool2Text(conf.AllowNonRootAccess()))
			if data.autoClear.Schedule != "" {
				cmd.Printf("  Auto clear: %s (next %s)\n", bold("%s", data.autoClear.Schedule), data.autoClear.NextRun)
			} else {
				cmd.Println("  Auto clear: " + bool2Text(false))
			}

			return nil
		},
	}
}
