package reasoning

import (
	"fmt"
	"math"
)

// BudgetBand is a price band a query can ask to stay within. Bounds are
// inclusive and compared against an item's lowest listed price.
type BudgetBand struct {
	Name string
	Min  int
	Max  int
}

var (
	BudgetLow    = BudgetBand{Name: "low", Min: 0, Max: 50}
	BudgetMedium = BudgetBand{Name: "medium", Min: 50, Max: 150}
	BudgetHigh   = BudgetBand{Name: "high", Min: 150, Max: math.MaxInt}
)

var budgetWords = map[string]BudgetBand{
	"cheap":       BudgetLow,
	"cheapest":    BudgetLow,
	"budget":      BudgetLow,
	"affordable":  BudgetLow,
	"inexpensive": BudgetLow,
	"moderate":    BudgetMedium,
	"midrange":    BudgetMedium,
	"expensive":   BudgetHigh,
	"upscale":     BudgetHigh,
	"luxury":      BudgetHigh,
	"fancy":       BudgetHigh,
}

// BudgetFromTokens returns the band named by the first budget word in tokens.
func BudgetFromTokens(tokens []string) (BudgetBand, bool) {
	for _, tok := range tokens {
		if band, ok := budgetWords[tok]; ok {
			return band, true
		}
	}
	return BudgetBand{}, false
}

// Contains reports whether price falls within the band.
func (b BudgetBand) Contains(price int) bool {
	return price >= b.Min && price <= b.Max
}

func (b BudgetBand) String() string {
	if b.Max == math.MaxInt {
		return fmt.Sprintf("%s (%d and above)", b.Name, b.Min)
	}
	return fmt.Sprintf("%s (%d-%d)", b.Name, b.Min, b.Max)
}

// outOfBand returns the priced candidates outside band, but only when at
// least one priced candidate is inside it; otherwise nothing is dropped.
func (ev *Evaluation) outOfBand(band BudgetBand) map[int]struct{} {
	drop := make(map[int]struct{})
	inBand := false
	for _, c := range ev.Candidates {
		if c.Item.PriceRange == nil {
			continue
		}
		if band.Contains(c.Item.PriceRange.Min) {
			inBand = true
		} else {
			drop[c.Item.ID] = struct{}{}
		}
	}
	if !inBand {
		return nil
	}
	return drop
}
