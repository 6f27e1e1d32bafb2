package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/brieflex/brieflex/display"
	"github.com/brieflex/brieflex/host"
)

// CapabilitiesCmd probes the host capability surface and prints the report.
var CapabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Probe which host AI capabilities are usable",
	Long: `Probe the on-device model host: which capability families exist under
which binding generation, their availability, and whether a live smoke test
succeeded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		report := rt.prober.Probe(context.Background())

		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(report)
		}

		rows := pterm.TableData{{"Family", "Exists", "Generation", "Availability", "Functional"}}
		for _, family := range host.Families() {
			status := report.Status(family)
			generation := "-"
			availability := string(status.Availability)
			if status.Exists {
				generation = status.Generation.String()
			}
			rows = append(rows, []string{
				string(family),
				fmt.Sprintf("%t", status.Exists),
				generation,
				availability,
				fmt.Sprintf("%t", status.Functional),
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}

		if report.Functional {
			pterm.Success.Println("At least one capability is functional")
		} else {
			pterm.Warning.Println("No functional AI capability on this device")
		}
		return nil
	},
}

func init() {
	CapabilitiesCmd.Flags().BoolP("json", "j", false, "Output the report as JSON")
}
