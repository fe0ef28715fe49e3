// =============================================================================
// FILE: internal/orchestrator/banner.go
// ROLE: Startup banner — sensor groups and drivers table (spec §9's design notes)
// =============================================================================
package orchestrator

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/dmagro/slonk-controller/internal/config"
)

// printBanner renders the loaded configuration's sensor groups and drivers
// as two tables, the same way the teacher prints a provider health table on
// startup.
func printBanner(cfg *config.Config) {
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()

	fmt.Fprintln(os.Stdout, color.New(color.Bold).Sprint("Sensor groups"))
	groups := table.New("Group", "Sensors", "Standby Hz", "Ignite Hz", "Dash Hz", "Window")
	groups.WithHeaderFormatter(headerFmt)
	for _, g := range cfg.SensorGroups {
		groups.AddRow(g.Label, len(g.Sensors), g.FrequencyStandby, g.FrequencyIgnite, g.FrequencyDash, g.WindowSize)
	}
	groups.Print()

	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, color.New(color.Bold).Sprint("Drivers"))
	drivers := table.New("ID", "Label", "Pin", "Protected", "Safe level")
	drivers.WithHeaderFormatter(headerFmt)
	for i, d := range cfg.Drivers {
		drivers.AddRow(i, d.Label, d.Pin, d.Protected, d.SafeLevel)
	}
	drivers.Print()
	fmt.Fprintln(os.Stdout)
}
