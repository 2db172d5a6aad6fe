package renderer

import (
	"fmt"
	"strings"

	"github.com/psxtools/cgt"
)

// GainsMarkdown renders realized gains with their tax assessment. The
// assessment is recomputed from the engine, so a filer-status change is
// reflected immediately.
func GainsMarkdown(gains []cgt.RealizedGain, engine *cgt.TaxEngine, period cgt.Range) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Capital Gains Report from %s to %s\n\n", period.From, period.To)
	fmt.Fprintf(&b, "Filer status: %s\n\n", engine.FilerStatus())

	if len(gains) == 0 {
		fmt.Fprintln(&b, "No realized gains in this period.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Security | Sale Date | Quantity | Proceeds | Cost Basis | Gain | Tax | Net Profit |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|---:|")

	var totalGain, totalTax cgt.Money
	for _, g := range gains {
		assessment := engine.TaxForSale(g)
		totalGain = totalGain.Add(g.Gain)
		totalTax = totalTax.Add(assessment.TotalTax)

		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			g.Security,
			g.SaleDate,
			g.Quantity,
			g.Proceeds,
			g.CostBasis,
			g.Gain.SignedString(),
			assessment.TotalTax,
			assessment.NetProfit.SignedString(),
		)
	}
	fmt.Fprintf(&b, "| **%s** | | | | | **%s** | **%s** | **%s** |\n",
		"Total",
		totalGain.SignedString(),
		totalTax.String(),
		totalGain.Sub(totalTax).SignedString(),
	)

	return b.String()
}

// SaleTaxMarkdown renders one sale assessment with its per-lot breakdown.
// It serves both committed sells and dry runs.
func SaleTaxMarkdown(title string, gain cgt.RealizedGain, assessment cgt.SaleTax) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Sell %s %s @ %s on %s (settles %s)\n\n",
		gain.Quantity, gain.Security, gain.Price, gain.TradeDate, gain.SaleDate)

	fmt.Fprintln(&b, "| Lot Acquired | Quantity | Unit Cost | Held (days) | Rate | Tax |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|")
	for _, lt := range assessment.PerLot {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s | %s |\n",
			lt.AcquisitionDate, lt.Quantity, lt.UnitCost, lt.HoldingDays, lt.Rate, lt.Tax)
	}
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "- Proceeds: %s\n", gain.Proceeds)
	fmt.Fprintf(&b, "- Cost basis: %s\n", gain.CostBasis)
	fmt.Fprintf(&b, "- Capital gain: %s\n", gain.Gain.SignedString())
	if !gain.Commission.IsZero() {
		fmt.Fprintf(&b, "- Commission (not in basis): %s\n", gain.Commission)
	}
	fmt.Fprintf(&b, "- Total tax: %s (effective %s)\n", assessment.TotalTax, assessment.EffectiveRate)
	fmt.Fprintf(&b, "- Net profit: %s\n", assessment.NetProfit.SignedString())

	return b.String()
}

// OpportunitiesMarkdown renders the ranked list of tax-saving deferrals.
func OpportunitiesMarkdown(opportunities []cgt.Opportunity, asOf cgt.Date) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tax-Saving Opportunities as of %s\n\n", asOf)

	if len(opportunities) == 0 {
		fmt.Fprintln(&b, "No lot gets a cheaper rate by waiting.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Security | Lot Acquired | Quantity | Rate Now | Rate Later | Wait (days) | Until | Tax Saved |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|:---|---:|")
	for _, o := range opportunities {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %d | %s | %s |\n",
			o.Security,
			o.AcquisitionDate,
			o.Quantity,
			o.CurrentRate,
			o.MilestoneRate,
			o.DaysToWait,
			o.MilestoneDate,
			o.Saving,
		)
	}

	return b.String()
}
