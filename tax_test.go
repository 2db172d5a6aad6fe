package cgt

import (
	"testing"
	"time"
)

func TestRateForFlatRegime(t *testing.T) {
	table := DefaultRateTable()

	// Acquired on or after the cutover: flat rate whatever the holding
	// period or filer status.
	acquired := NewDate(2024, time.July, 1)
	for _, days := range []int{0, 100, 3000} {
		if rate := table.RateFor(acquired, days, Filer); !rate.Equal(R(0.15)) {
			t.Errorf("RateFor(post-cutover, %d days) = %s, want 15.00%%", days, rate)
		}
		if rate := table.RateFor(acquired, days, NonFiler); !rate.Equal(R(0.15)) {
			t.Errorf("RateFor(post-cutover, %d days, non-filer) = %s, want 15.00%%", days, rate)
		}
	}
}

func TestRateForLegacyBuckets(t *testing.T) {
	table := DefaultRateTable()
	acquired := NewDate(2020, time.January, 15) // pre-cutover

	testCases := []struct {
		days int
		want Rate
	}{
		{0, R(0.15)},
		{364, R(0.15)},
		{365, R(0.125)}, // boundary is half-open: day 365 is the next bucket
		{729, R(0.125)},
		{730, R(0.10)},
		{1095, R(0.075)},
		{1460, R(0.05)},
		{1825, R(0.025)},
		{2190, R(0)},
		{10000, R(0)},
	}
	for _, tc := range testCases {
		if got := table.RateFor(acquired, tc.days, Filer); !got.Equal(tc.want) {
			t.Errorf("RateFor(legacy, %d days) = %s, want %s", tc.days, got, tc.want)
		}
	}
}

func TestRateMonotonicity(t *testing.T) {
	table := DefaultRateTable()
	acquired := NewDate(2020, time.January, 15)

	previous := table.RateFor(acquired, 0, Filer)
	for days := 1; days <= 2500; days++ {
		current := table.RateFor(acquired, days, Filer)
		if current.GreaterThan(previous) {
			t.Fatalf("rate increased from %s to %s at %d days", previous, current, days)
		}
		previous = current
	}
}

func TestNewRateTableValidation(t *testing.T) {
	cutover := NewDate(2024, time.July, 1)
	valid := []Bucket{{MinDays: 0, Rate: R(0.15)}, {MinDays: 365, Rate: R(0.10)}}

	if _, err := NewRateTable(cutover, R(0.15), valid, valid); err != nil {
		t.Fatalf("NewRateTable(valid) returned an unexpected error: %v", err)
	}

	testCases := []struct {
		name     string
		schedule []Bucket
	}{
		{"empty schedule", nil},
		{"first bucket not at zero", []Bucket{{MinDays: 10, Rate: R(0.15)}}},
		{"non-ascending days", []Bucket{{MinDays: 0, Rate: R(0.15)}, {MinDays: 0, Rate: R(0.10)}}},
		{"increasing rate", []Bucket{{MinDays: 0, Rate: R(0.10)}, {MinDays: 365, Rate: R(0.15)}}},
		{"negative rate", []Bucket{{MinDays: 0, Rate: R(-0.10)}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRateTable(cutover, R(0.15), tc.schedule, valid); err == nil {
				t.Error("NewRateTable() should have failed")
			}
		})
	}
}

func TestTaxForSaleWorkedExample(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)
	mustBuy(t, l, "2025-02-01", "HBL", 50, 120)

	gain, err := l.Sell(MustParse("2025-03-01"), "", "HBL", Q(120), M(150, "PKR"), M(0, "PKR"))
	if err != nil {
		t.Fatal(err)
	}

	engine := NewTaxEngine(DefaultRateTable(), Filer)
	assessment := engine.TaxForSale(gain)

	// Gain 5,600 at the flat 15% rate.
	if want := M(840, "PKR"); !assessment.TotalTax.Equal(want) {
		t.Errorf("TotalTax = %s, want %s", assessment.TotalTax, want)
	}
	if want := M(4760, "PKR"); !assessment.NetProfit.Equal(want) {
		t.Errorf("NetProfit = %s, want %s", assessment.NetProfit, want)
	}
	if !assessment.EffectiveRate.Equal(Percent(15)) {
		t.Errorf("EffectiveRate = %s, want 15.00%%", assessment.EffectiveRate)
	}
	if len(assessment.PerLot) != 2 {
		t.Fatalf("PerLot = %d entries, want 2", len(assessment.PerLot))
	}
}

func TestTaxForSaleClampsLosses(t *testing.T) {
	// First lot gains, second lot loses; the losing lot contributes zero
	// tax, never a credit.
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)
	mustBuy(t, l, "2025-02-01", "HBL", 100, 200)

	gain, err := l.Sell(MustParse("2025-03-01"), "", "HBL", Q(200), M(150, "PKR"), M(0, "PKR"))
	if err != nil {
		t.Fatal(err)
	}

	engine := NewTaxEngine(DefaultRateTable(), Filer)
	assessment := engine.TaxForSale(gain)

	// Lot 1: (150-100)x100 = 5,000 taxable. Lot 2: clamped to zero.
	if want := M(750, "PKR"); !assessment.TotalTax.Equal(want) {
		t.Errorf("TotalTax = %s, want %s", assessment.TotalTax, want)
	}
	if !assessment.PerLot[1].TaxableGain.IsZero() || !assessment.PerLot[1].Tax.IsZero() {
		t.Errorf("losing lot taxable = %s, tax = %s, want zero for both",
			assessment.PerLot[1].TaxableGain, assessment.PerLot[1].Tax)
	}
}

func TestTaxForSaleNetLoss(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 200)

	gain, err := l.Sell(MustParse("2025-03-01"), "", "HBL", Q(100), M(150, "PKR"), M(0, "PKR"))
	if err != nil {
		t.Fatal(err)
	}

	engine := NewTaxEngine(DefaultRateTable(), Filer)
	assessment := engine.TaxForSale(gain)

	if !assessment.TotalTax.IsZero() {
		t.Errorf("TotalTax on a net loss = %s, want zero", assessment.TotalTax)
	}
	// Effective rate is zero when there is no positive gain.
	if !assessment.EffectiveRate.Equal(Percent(0)) {
		t.Errorf("EffectiveRate on a net loss = %s, want 0", assessment.EffectiveRate)
	}
}

func TestSetFilerStatus(t *testing.T) {
	nonFilerSchedule := []Bucket{{MinDays: 0, Rate: R(0.20)}}
	filerSchedule := []Bucket{{MinDays: 0, Rate: R(0.10)}}
	table, err := NewRateTable(NewDate(2024, time.July, 1), R(0.15), filerSchedule, nonFilerSchedule)
	if err != nil {
		t.Fatal(err)
	}

	engine := NewTaxEngine(table, Filer)
	acquired := NewDate(2020, time.January, 15)

	if rate := engine.RateFor(acquired, 100); !rate.Equal(R(0.10)) {
		t.Errorf("RateFor as filer = %s, want 10.00%%", rate)
	}
	engine.SetFilerStatus(NonFiler)
	if rate := engine.RateFor(acquired, 100); !rate.Equal(R(0.20)) {
		t.Errorf("RateFor as non-filer = %s, want 20.00%%", rate)
	}
}

func TestNextMilestone(t *testing.T) {
	table := DefaultRateTable()
	acquired := NewDate(2020, time.January, 15)

	milestone, ok := table.NextMilestone(acquired, 300, Filer)
	if !ok {
		t.Fatal("NextMilestone(300 days) should exist")
	}
	if milestone.MinDays != 365 || !milestone.Rate.Equal(R(0.125)) {
		t.Errorf("NextMilestone(300 days) = %d days at %s, want 365 at 12.50%%", milestone.MinDays, milestone.Rate)
	}

	if _, ok := table.NextMilestone(acquired, 2190, Filer); ok {
		t.Error("NextMilestone(beyond 6 years) should not exist")
	}

	// Post-cutover lots never have a milestone.
	if _, ok := table.NextMilestone(NewDate(2025, time.January, 1), 100, Filer); ok {
		t.Error("NextMilestone(post-cutover) should not exist")
	}
}
