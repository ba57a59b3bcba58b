package output_test

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/wastewatch/internal/output"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

func ExampleFormatGrams() {
	fmt.Println(output.FormatGrams(250))
	fmt.Println(output.FormatGrams(4200))
	// Output:
	// 250 g
	// 4.2 kg
}

func ExampleRenderInsights() {
	fmt.Print(output.RenderInsights([]string{
		"Total waste recorded: 180.0g across 3 items.",
		"Most wasted food: apple (150.0g).",
	}))
	// Output:
	// • Total waste recorded: 180.0g across 3 items.
	// • Most wasted food: apple (150.0g).
}

func ExampleProgressBar() {
	bar := output.NewProgress(os.Stdout, 3, "records")
	for i := 0; i < 3; i++ {
		bar.Add(1)
	}
	bar.Finish()
}

func ExampleRenderRecordTable() {
	fmt.Print(output.RenderRecordTable([]waste.Record{
		{FoodType: "apple", WeightGrams: 100, Timestamp: "2024-03-11 12:00:00", Confidence: 0.9, MealPeriod: waste.Lunch},
	}))
}
