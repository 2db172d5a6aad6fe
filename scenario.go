package cgt

import (
	"slices"
)

// Scenario couples a ledger with a tax engine for hypothetical analysis. All
// its operations run on simulated or cloned state and never touch the
// committed ledger.
type Scenario struct {
	ledger *Ledger
	engine *TaxEngine
}

// NewScenario creates a scenario layer over a ledger and a tax engine.
func NewScenario(ledger *Ledger, engine *TaxEngine) *Scenario {
	return &Scenario{ledger: ledger, engine: engine}
}

// WhatIfResult is the full outcome of one hypothetical sale.
type WhatIfResult struct {
	Gain RealizedGain
	Tax  SaleTax
}

// WhatIf runs the exact sell algorithm, FIFO consumption and settlement
// dating included, for a sale of quantity at price on asOf, and assesses the
// resulting gain. The committed ledger is unchanged.
func (s *Scenario) WhatIf(security string, quantity Quantity, price Money, asOf Date) (WhatIfResult, error) {
	gain, err := s.ledger.SimulateSell(security, quantity, price, asOf)
	if err != nil {
		return WhatIfResult{}, err
	}
	return WhatIfResult{Gain: gain, Tax: s.engine.TaxForSale(gain)}, nil
}

// Opportunity is one open lot that would be taxed at a lower rate if its
// sale were deferred past the next legacy holding-period milestone.
type Opportunity struct {
	Security        string
	AcquisitionDate Date
	Quantity        Quantity // unsold remainder of the lot
	UnitCost        Money
	HoldingDays     int // as of the hypothetical sale's settlement
	CurrentRate     Rate
	MilestoneRate   Rate
	MilestoneDate   Date // earliest sale date that reaches the cheaper rate
	DaysToWait      int
	TaxNow          Money
	TaxAtMilestone  Money
	Saving          Money // TaxNow - TaxAtMilestone
}

// Opportunities scans every open lot for tax-saving deferrals: lots taxed
// under the legacy schedule whose rate drops at a future holding-period
// milestone. prices supplies the assumed sale price per symbol; symbols
// without a price are skipped. The result is ranked by saving, largest
// first, with shorter waits breaking ties.
func (s *Scenario) Opportunities(prices map[string]Money, asOf Date) []Opportunity {
	if asOf.IsZero() {
		asOf = Today()
	}
	// Holding periods run settlement to settlement, so a sale decided on
	// asOf disposes at its settlement date.
	disposal := asOf.Settlement()

	var out []Opportunity
	for _, holding := range s.ledger.Holdings() {
		price, ok := prices[holding.Security]
		if !ok {
			continue
		}
		for _, currentLot := range holding.Lots {
			if !currentLot.Remaining.IsPositive() {
				continue
			}
			holdingDays := disposal.Sub(currentLot.AcquisitionDate)
			milestone, ok := s.engine.Table().NextMilestone(currentLot.AcquisitionDate, holdingDays, s.engine.FilerStatus())
			if !ok {
				continue
			}
			taxable := price.Sub(currentLot.UnitCost).Mul(currentLot.Remaining)
			if !taxable.IsPositive() {
				// A lot under water owes no tax either way.
				continue
			}
			currentRate := s.engine.RateFor(currentLot.AcquisitionDate, holdingDays)
			taxNow := taxable.MulRate(currentRate)
			taxLater := taxable.MulRate(milestone.Rate)
			saving := taxNow.Sub(taxLater)
			if !saving.IsPositive() {
				continue
			}
			daysToWait := milestone.MinDays - holdingDays
			out = append(out, Opportunity{
				Security:        holding.Security,
				AcquisitionDate: currentLot.AcquisitionDate,
				Quantity:        currentLot.Remaining,
				UnitCost:        currentLot.UnitCost,
				HoldingDays:     holdingDays,
				CurrentRate:     currentRate,
				MilestoneRate:   milestone.Rate,
				MilestoneDate:   disposal.Add(daysToWait),
				DaysToWait:      daysToWait,
				TaxNow:          taxNow,
				TaxAtMilestone:  taxLater,
				Saving:          saving,
			})
		}
	}

	slices.SortStableFunc(out, func(a, b Opportunity) int {
		switch {
		case a.Saving.GreaterThan(b.Saving):
			return -1
		case a.Saving.LessThan(b.Saving):
			return 1
		case a.DaysToWait != b.DaysToWait:
			return a.DaysToWait - b.DaysToWait
		default:
			return 0
		}
	})
	return out
}
