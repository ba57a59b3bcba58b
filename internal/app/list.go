package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wastewatch/internal/output"
	"github.com/blackwell-systems/wastewatch/internal/store"
)

var (
	listFood  string
	listFrom  string
	listTo    string
	listLimit int

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List recorded waste",
		Long: `List waste records in the order they were recorded.

Filters combine: --food matches the food type exactly, --from and --to
bound the date (inclusive, YYYY-MM-DD). --limit keeps the most recent N
matching records.`,
		Example: `  # Everything recorded this month
  wastewatch list --from 2024-03-01

  # The last ten bread records
  wastewatch list --food bread --limit 10`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().StringVar(&listFood, "food", "", "only this food type")
	listCmd.Flags().StringVar(&listFrom, "from", "", "start date YYYY-MM-DD (inclusive)")
	listCmd.Flags().StringVar(&listTo, "to", "", "end date YYYY-MM-DD (inclusive)")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "show only the most recent N records (0 = all)")

	RootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if listLimit < 0 {
		return fmt.Errorf("invalid limit: %d (must not be negative)", listLimit)
	}

	e, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	recs := e.store.Query(store.Filter{FoodType: listFood, StartDate: listFrom, EndDate: listTo})
	if listLimit > 0 && len(recs) > listLimit {
		recs = recs[len(recs)-listLimit:]
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderRecordTable(recs))
	return nil
}
