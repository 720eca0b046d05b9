package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"aissistant/internal/model"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Report accumulated token usage and estimated cost",
	Long: `Print per-model token totals recorded across all runs, with an
estimated cost from the built-in price table. Models without a known
price are listed with a zero estimate.`,
	RunE: runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	totals, err := st.UsageTotals()
	if err != nil {
		return err
	}
	if len(totals) == 0 {
		fmt.Println("no usage recorded")
		return nil
	}

	// replay persisted totals through the tracker for cost estimates
	costs := model.NewCostTracker()
	for name, u := range totals {
		costs.RecordUsage(name, model.Usage{
			InputTokens:  u.InputTokens,
			OutputTokens: u.OutputTokens,
			Requests:     u.Requests,
		})
	}
	byModel := costs.EstimatedCostByModel()

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%-28s %12s %12s %10s %12s\n", "MODEL", "INPUT", "OUTPUT", "REQUESTS", "EST. COST")
	for _, name := range names {
		u := totals[name]
		fmt.Printf("%-28s %12d %12d %10d %11.4f$\n",
			name, u.InputTokens, u.OutputTokens, u.Requests, byModel[name])
	}
	fmt.Printf("\nTotal estimated cost: %.4f$\n", costs.EstimatedCost())
	return nil
}
