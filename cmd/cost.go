package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evtariff/core/model"
)

var (
	costFlags    requestFlags
	costEnergy   float64
	costDuration float64
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate the cost of a charging session at the current price",
	RunE:  runCost,
}

func init() {
	addRequestFlags(costCmd, &costFlags)
	costCmd.Flags().Float64Var(&costEnergy, "energy", 0, "delivered energy in kWh")
	costCmd.Flags().Float64Var(&costDuration, "duration", 0, "session duration in minutes")
	rootCmd.AddCommand(costCmd)
}

type quote struct {
	Pricing model.PricingResult        `json:"pricing"`
	Cost    model.SessionCostBreakdown `json:"cost"`
}

func runCost(cmd *cobra.Command, _ []string) error {
	if costEnergy < 0 || costDuration < 0 {
		return fmt.Errorf("energy and duration must not be negative")
	}
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine(cmd, e)

	p, c := e.Quote(commandContext(cmd), costFlags.request(cmd), costEnergy, costDuration)
	return writeJSON(cmd.OutOrStdout(), quote{Pricing: p, Cost: c})
}
