package cgt

import "testing"

func TestWhatIfMatchesSimulation(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)

	engine := NewTaxEngine(DefaultRateTable(), Filer)
	s := NewScenario(l, engine)

	result, err := s.WhatIf("HBL", Q(60), M(150, "PKR"), MustParse("2025-03-01"))
	if err != nil {
		t.Fatalf("WhatIf() returned an unexpected error: %v", err)
	}

	simulated, err := l.SimulateSell("HBL", Q(60), M(150, "PKR"), MustParse("2025-03-01"))
	if err != nil {
		t.Fatal(err)
	}
	if !result.Gain.Gain.Equal(simulated.Gain) {
		t.Errorf("WhatIf gain = %s, simulation = %s", result.Gain.Gain, simulated.Gain)
	}
	if want := engine.TaxForSale(simulated).TotalTax; !result.Tax.TotalTax.Equal(want) {
		t.Errorf("WhatIf tax = %s, want %s", result.Tax.TotalTax, want)
	}

	// The committed ledger is unchanged.
	if pos := l.Position("HBL"); !pos.Equal(Q(100)) {
		t.Errorf("Position after WhatIf = %s, want 100", pos)
	}
}

func TestOpportunities(t *testing.T) {
	l := NewLedger("PKR")
	// Legacy-regime lots settle 2023-09-05, well before the flat-rate
	// cutover.
	mustBuy(t, l, "2023-09-01", "HBL", 100, 100)
	mustBuy(t, l, "2023-09-01", "LUCK", 200, 100)
	// Flat-regime lot: no milestone exists for it.
	mustBuy(t, l, "2025-01-01", "OGDC", 100, 100)
	// Under water at the assumed price.
	mustBuy(t, l, "2023-09-01", "PSO", 100, 100)

	engine := NewTaxEngine(DefaultRateTable(), Filer)
	s := NewScenario(l, engine)

	prices := map[string]Money{
		"HBL":  M(150, "PKR"),
		"LUCK": M(150, "PKR"),
		"OGDC": M(150, "PKR"),
		"PSO":  M(90, "PKR"),
	}
	found := s.Opportunities(prices, MustParse("2024-06-10"))

	if len(found) != 2 {
		t.Fatalf("Opportunities() = %d, want 2 (flat-regime and losing lots skipped)", len(found))
	}
	// Ranked by saving, largest first: LUCK's gain is twice HBL's.
	if found[0].Security != "LUCK" || found[1].Security != "HBL" {
		t.Fatalf("Opportunities() order = %s, %s, want LUCK, HBL", found[0].Security, found[1].Security)
	}

	hbl := found[1]
	// Disposal settles 2024-06-12, 281 days after acquisition; the 12.5%
	// bucket opens at 365 days.
	if hbl.HoldingDays != 281 {
		t.Errorf("HoldingDays = %d, want 281", hbl.HoldingDays)
	}
	if hbl.DaysToWait != 84 {
		t.Errorf("DaysToWait = %d, want 84", hbl.DaysToWait)
	}
	if hbl.MilestoneDate.String() != "2024-09-04" {
		t.Errorf("MilestoneDate = %s, want 2024-09-04", hbl.MilestoneDate)
	}
	if !hbl.CurrentRate.Equal(R(0.15)) || !hbl.MilestoneRate.Equal(R(0.125)) {
		t.Errorf("rates = %s now, %s at milestone, want 15.00%% and 12.50%%", hbl.CurrentRate, hbl.MilestoneRate)
	}
	// Taxable gain 5,000: tax 750 now, 625 later.
	if want := M(125, "PKR"); !hbl.Saving.Equal(want) {
		t.Errorf("Saving = %s, want %s", hbl.Saving, want)
	}
}

func TestOpportunitiesSkipsUnpricedSymbols(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2023-09-01", "HBL", 100, 100)

	engine := NewTaxEngine(DefaultRateTable(), Filer)
	s := NewScenario(l, engine)

	if found := s.Opportunities(nil, MustParse("2024-06-10")); len(found) != 0 {
		t.Errorf("Opportunities() without prices = %d, want 0", len(found))
	}
}
