// Package analytics computes spend and environmental-impact aggregations
// over a user's receipt set. All functions are pure; nothing is persisted.
package analytics

import (
	"math"

	"github.com/ecoreceipt/ecoreceipt/internal/model"
)

// Per-receipt coefficients of the environmental proxy model. These are a
// declared linear estimate of what going paperless saves, not a measured
// quantity.
const (
	treesPerReceipt = 0.037 // trees
	waterPerReceipt = 6.25  // liters
	co2PerReceipt   = 1.25  // kg
)

// EnvironmentalImpact is the estimated saving from digital receipts.
type EnvironmentalImpact struct {
	TreesSaved float64 `json:"trees_saved"`
	WaterSaved float64 `json:"water_saved"`
	CO2Reduced float64 `json:"co2_reduced"`
}

// MonthlySpend is one labeled bucket of the monthly breakdown.
type MonthlySpend struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// SpendingSummary aggregates a user's spend.
type SpendingSummary struct {
	TotalSpent        float64            `json:"total_spent"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	MonthlySpending   []MonthlySpend     `json:"monthly_spending"`
}

// monthLabels are the fixed buckets of the monthly breakdown.
var monthLabels = []string{"Aug", "Sep", "Oct", "Nov", "Dec", "Jan"}

// Impact estimates environmental savings from the number of digital receipts,
// applying the linear proxy model above.
func Impact(receiptCount int) EnvironmentalImpact {
	n := float64(receiptCount)
	return EnvironmentalImpact{
		TreesSaved: round2(treesPerReceipt * n),
		WaterSaved: round1(waterPerReceipt * n),
		CO2Reduced: round1(co2PerReceipt * n),
	}
}

// Spending sums totals and groups them by category. The monthly breakdown
// distributes total spend evenly across the six fixed labels rather than
// bucketing by receipt date; clients depend on this shape.
func Spending(receipts []model.Receipt) SpendingSummary {
	if len(receipts) == 0 {
		return SpendingSummary{
			CategoryBreakdown: map[string]float64{},
			MonthlySpending:   []MonthlySpend{},
		}
	}

	var total float64
	byCategory := make(map[string]float64)
	for _, r := range receipts {
		total += r.Total
		byCategory[r.Category] += r.Total
	}
	for cat, amount := range byCategory {
		byCategory[cat] = round2(amount)
	}

	monthly := make([]MonthlySpend, 0, len(monthLabels))
	perMonth := total / float64(len(monthLabels))
	for _, m := range monthLabels {
		monthly = append(monthly, MonthlySpend{Month: m, Amount: round2(perMonth)})
	}

	return SpendingSummary{
		TotalSpent:        round2(total),
		CategoryBreakdown: byCategory,
		MonthlySpending:   monthly,
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
