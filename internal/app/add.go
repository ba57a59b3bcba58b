package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wastewatch/internal/ingest"
	"github.com/blackwell-systems/wastewatch/internal/output"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

var (
	addAt         string
	addMeal       string
	addConfidence float64
	addImage      string

	addCmd = &cobra.Command{
		Use:   "add FOOD GRAMS",
		Short: "Record a wasted food item",
		Long: `Record one item of wasted food by hand.

The timestamp defaults to now and the meal period is derived from it
unless --meal is given. Food names pass through the alias file, so
detector class names and hand-typed names end up under one food type.`,
		Example: `  # Record 120 g of rice now
  wastewatch add rice 120

  # Record last night's leftovers
  wastewatch add lasagna 300 --at "2024-03-14 20:15:00" --meal dinner`,
		Args: cobra.ExactArgs(2),
		RunE: runAdd,
	}
)

func init() {
	addCmd.Flags().StringVar(&addAt, "at", "", "timestamp as YYYY-MM-DD HH:MM:SS (default: now)")
	addCmd.Flags().StringVar(&addMeal, "meal", "", "meal period: breakfast, lunch, dinner or snack")
	addCmd.Flags().Float64Var(&addConfidence, "confidence", 1, "confidence in [0,1]")
	addCmd.Flags().StringVar(&addImage, "image", "", "image reference to keep with the record")

	RootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	grams, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid weight %q: %w", args[1], err)
	}

	e, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	d := ingest.Detection{
		FoodType:        args[0],
		EstimatedWeight: grams,
		Confidence:      addConfidence,
		Timestamp:       addAt,
		ImageRef:        addImage,
		IsWaste:         true,
	}
	if addMeal != "" {
		d.MealPeriod = waste.ParseMealPeriod(addMeal)
	}

	rec, err := e.ingester.AddManual(d)
	if err != nil {
		return err
	}
	if err := e.save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %s of %s (%s, %s)\n",
		output.FormatGrams(rec.WeightGrams), rec.FoodType, rec.MealPeriod, rec.Timestamp)
	return nil
}
