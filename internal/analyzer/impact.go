package analyzer

import (
	"github.com/shopspring/decimal"

	"github.com/blackwell-systems/wastewatch/internal/stats"
)

// Default impact factors.
const (
	DefaultPricePerKg  = 5.0
	DefaultCO2PerKg    = 2.5
	DefaultWaterPerKg  = 1000.0
	DefaultSavingsDays = 30
)

// ImpactFactors are the conversion rates used by Impact.
type ImpactFactors struct {
	PricePerKg  float64
	CO2PerKg    float64
	WaterPerKg  float64
	SavingsDays int
}

// DefaultImpactFactors returns the built-in conversion rates.
func DefaultImpactFactors() ImpactFactors {
	return ImpactFactors{
		PricePerKg:  DefaultPricePerKg,
		CO2PerKg:    DefaultCO2PerKg,
		WaterPerKg:  DefaultWaterPerKg,
		SavingsDays: DefaultSavingsDays,
	}
}

// ImpactReport bundles the environmental and financial cost of the recorded
// waste. Money amounts are rounded to cents.
type ImpactReport struct {
	TotalWeightGrams float64         `json:"totalWeight"`
	Cost             decimal.Decimal `json:"cost"`
	CO2Kg            float64         `json:"co2Kg"`
	WaterLiters      float64         `json:"waterLiters"`
	SavingsDays      int             `json:"savingsDays"`
	PotentialSavings decimal.Decimal `json:"potentialSavings"`
}

func kg(grams float64) float64 {
	return grams / 1000
}

// CostImpact returns the value of all recorded waste at pricePerKg.
func (a *Analyzer) CostImpact(pricePerKg float64) float64 {
	return kg(a.agg.Snapshot().TotalWeight) * pricePerKg
}

// CO2Impact returns kilograms of CO2 for all recorded waste.
func (a *Analyzer) CO2Impact(kgCO2PerKg float64) float64 {
	return kg(a.agg.Snapshot().TotalWeight) * kgCO2PerKg
}

// WaterImpact returns litres of water embodied in all recorded waste.
func (a *Analyzer) WaterImpact(litersPerKg float64) float64 {
	return kg(a.agg.Snapshot().TotalWeight) * litersPerKg
}

// PotentialSavingsCost estimates the money saved over days if the average
// daily waste of the last month dropped by ReducibleFraction.
func (a *Analyzer) PotentialSavingsCost(days int, pricePerKg float64) float64 {
	if days < 0 {
		days = 0
	}
	perDay := a.agg.AverageWastePerDay(stats.Month) * ReducibleFraction
	return kg(perDay*float64(days)) * pricePerKg
}

// Impact computes every impact figure with f.
func (a *Analyzer) Impact(f ImpactFactors) ImpactReport {
	total := a.agg.Snapshot().TotalWeight
	return ImpactReport{
		TotalWeightGrams: total,
		Cost:             decimal.NewFromFloat(a.CostImpact(f.PricePerKg)).Round(2),
		CO2Kg:            a.CO2Impact(f.CO2PerKg),
		WaterLiters:      a.WaterImpact(f.WaterPerKg),
		SavingsDays:      f.SavingsDays,
		PotentialSavings: decimal.NewFromFloat(a.PotentialSavingsCost(f.SavingsDays, f.PricePerKg)).Round(2),
	}
}
