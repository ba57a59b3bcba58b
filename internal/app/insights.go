package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wastewatch/internal/analyzer"
	"github.com/blackwell-systems/wastewatch/internal/output"
)

var (
	insightsCmd = &cobra.Command{
		Use:   "insights",
		Short: "Summarise what the records say",
		Long: `Print plain-language insights: the total, the most wasted food, the
7-day direction, the heaviest meal and weekday, the week-over-week
reduction and next week's forecast. Weekdays and meals whose average waste
stands out from the rest are listed as correlations.`,
		Args: cobra.NoArgs,
		RunE: runInsights,
	}

	recommendLimit int

	recommendCmd = &cobra.Command{
		Use:   "recommend",
		Short: "Suggest where to cut waste first",
		Long: `Rank food and meal combinations by total waste and estimate what
trimming portions would save. Savings assume 30% of current waste is
avoidable.`,
		Example: `  # Top three suggestions
  wastewatch recommend

  # Top ten
  wastewatch recommend --limit 10`,
		Args: cobra.NoArgs,
		RunE: runRecommend,
	}

	impactDays int

	impactCmd = &cobra.Command{
		Use:   "impact",
		Short: "Estimate the cost and environmental footprint of the waste",
		Long: `Convert total waste into money, CO2 and water using the rates in
wastewatch.env (WASTEWATCH_PRICE_PER_KG, WASTEWATCH_CO2_PER_KG,
WASTEWATCH_WATER_PER_KG), and estimate what a 30% reduction of the recent
daily average would save over --days.`,
		Args: cobra.NoArgs,
		RunE: runImpact,
	}
)

func init() {
	recommendCmd.Flags().IntVar(&recommendLimit, "limit", analyzer.DefaultRecommendationLimit, "number of recommendations")
	impactCmd.Flags().IntVar(&impactDays, "days", analyzer.DefaultSavingsDays, "savings horizon in days")

	RootCmd.AddCommand(insightsCmd)
	RootCmd.AddCommand(recommendCmd)
	RootCmd.AddCommand(impactCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
	e, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderInsights(e.analyzer.Insights()))

	if corr := e.analyzer.Correlations(); len(corr) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, output.RenderInsights(corr))
	}
	return nil
}

func runRecommend(cmd *cobra.Command, args []string) error {
	if recommendLimit <= 0 {
		return fmt.Errorf("invalid limit: %d (must be positive)", recommendLimit)
	}

	e, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Fprint(cmd.OutOrStdout(), output.RenderRecommendations(e.analyzer.Recommendations(recommendLimit)))
	return nil
}

func runImpact(cmd *cobra.Command, args []string) error {
	if impactDays < 0 {
		return fmt.Errorf("invalid days: %d (must not be negative)", impactDays)
	}

	e, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	f := e.impactFactors()
	f.SavingsDays = impactDays
	fmt.Fprint(cmd.OutOrStdout(), output.RenderImpact(e.analyzer.Impact(f)))
	return nil
}
