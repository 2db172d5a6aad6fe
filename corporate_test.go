package cgt

import (
	"errors"
	"testing"
)

func TestParseBonusRatio(t *testing.T) {
	testCases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"20%", "0.2", true},
		{"0.2", "0.2", true},
		{"100%", "1", true},
		{"150%", "", false},
		{"0%", "", false},
		{"-5%", "", false},
		{"abc", "", false},
	}
	for _, tc := range testCases {
		got, err := ParseBonusRatio(tc.in)
		if tc.ok {
			if err != nil {
				t.Errorf("ParseBonusRatio(%q) returned an unexpected error: %v", tc.in, err)
			} else if got.String() != tc.want {
				t.Errorf("ParseBonusRatio(%q) = %s, want %s", tc.in, got, tc.want)
			}
			continue
		}
		var ratioErr *RatioError
		if !errors.As(err, &ratioErr) {
			t.Errorf("ParseBonusRatio(%q) error = %v, want RatioError", tc.in, err)
		}
	}
}

func TestParseRightsRatio(t *testing.T) {
	got, err := ParseRightsRatio("1:5")
	if err != nil {
		t.Fatalf("ParseRightsRatio(1:5) returned an unexpected error: %v", err)
	}
	if got.String() != "0.2" {
		t.Errorf("ParseRightsRatio(1:5) = %s, want 0.2", got)
	}

	for _, bad := range []string{"1:0", "0:5", "-1:5", "x", "-0.2"} {
		var ratioErr *RatioError
		if _, err := ParseRightsRatio(bad); !errors.As(err, &ratioErr) {
			t.Errorf("ParseRightsRatio(%q) error = %v, want RatioError", bad, err)
		}
	}
}

func TestApplyBonus(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100) // settles 2025-01-03

	action, err := l.ApplyBonus(MustParse("2025-02-05"), "", "HBL", "25%", MustParse("2025-02-03"))
	if err != nil {
		t.Fatalf("ApplyBonus() returned an unexpected error: %v", err)
	}
	if !action.SharesAdded.Equal(Q(25)) || action.LotsAffected != 1 {
		t.Errorf("bonus added %s shares over %d lots, want 25 over 1", action.SharesAdded, action.LotsAffected)
	}

	queue := l.Lots("HBL")
	if len(queue) != 1 {
		t.Fatalf("Lots() = %d lots, want the bonus folded into the existing lot", len(queue))
	}
	grown := queue[0]
	if !grown.Quantity.Equal(Q(125)) || !grown.Remaining.Equal(Q(125)) {
		t.Errorf("lot after bonus = %s/%s, want 125/125", grown.Remaining, grown.Quantity)
	}
	// Cost basis is conserved: 100 x 100 = 125 x 80.
	if want := M(80, "PKR"); !grown.UnitCost.Equal(want) {
		t.Errorf("unit cost after bonus = %s, want %s", grown.UnitCost, want)
	}
}

func TestApplyBonusSkipsIneligibleLots(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100) // settles 2025-01-03
	mustBuy(t, l, "2025-02-10", "HBL", 50, 120)  // settles after the ex-date

	if _, err := l.ApplyBonus(Date{}, "", "HBL", "25%", MustParse("2025-02-03")); err != nil {
		t.Fatalf("ApplyBonus() returned an unexpected error: %v", err)
	}

	queue := l.Lots("HBL")
	if len(queue) != 2 {
		t.Fatalf("Lots() = %d lots, want 2", len(queue))
	}
	if !queue[0].Quantity.Equal(Q(125)) {
		t.Errorf("eligible lot quantity = %s, want 125", queue[0].Quantity)
	}
	if !queue[1].Quantity.Equal(Q(50)) || !queue[1].UnitCost.Equal(M(120, "PKR")) {
		t.Errorf("lot acquired on or after the ex-date must be untouched, got %s @ %s",
			queue[1].Quantity, queue[1].UnitCost)
	}
}

func TestApplyRights(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)

	action, err := l.ApplyRights(Date{}, "", "HBL", "1:5", MustParse("2025-02-03"), M(80, "PKR"), MustParse("2025-02-10"))
	if err != nil {
		t.Fatalf("ApplyRights() returned an unexpected error: %v", err)
	}
	if !action.SharesAdded.Equal(Q(20)) {
		t.Errorf("rights added %s shares, want 20", action.SharesAdded)
	}

	queue := l.Lots("HBL")
	if len(queue) != 2 {
		t.Fatalf("Lots() = %d lots, want the rights lot appended", len(queue))
	}
	rights := queue[1]
	if rights.Origin != OriginRights {
		t.Errorf("rights lot origin = %s, want %s", rights.Origin, OriginRights)
	}
	if rights.AcquisitionDate.String() != "2025-02-10" {
		t.Errorf("rights lot dated %s, want the subscription date 2025-02-10", rights.AcquisitionDate)
	}
	if !rights.UnitCost.Equal(M(80, "PKR")) || !rights.Quantity.Equal(Q(20)) {
		t.Errorf("rights lot = %s @ %s, want 20 @ 80", rights.Quantity, rights.UnitCost)
	}

	// Total position 120 shares with basis 10,000 + 1,600.
	if pos := l.Position("HBL"); !pos.Equal(Q(120)) {
		t.Errorf("Position = %s, want 120", pos)
	}
	holdings := l.Holdings()
	if want := M(11600, "PKR"); !holdings[0].CostBasis.Equal(want) {
		t.Errorf("cost basis = %s, want %s", holdings[0].CostBasis, want)
	}
}

func TestApplyRightsDefaultSubscription(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)

	action, err := l.ApplyRights(Date{}, "", "HBL", "1:5", MustParse("2025-02-03"), M(80, "PKR"), Date{})
	if err != nil {
		t.Fatalf("ApplyRights() returned an unexpected error: %v", err)
	}
	// Ex-date + 30 days.
	if action.SubscriptionDate.String() != "2025-03-05" {
		t.Errorf("default subscription date = %s, want 2025-03-05", action.SubscriptionDate)
	}
}

func TestActionNoEligibleLots(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100) // settles 2025-01-03

	// The ex-date equals the settlement date: acquired-on shares are not
	// entitled, only strictly-before ones are.
	_, err := l.ApplyBonus(Date{}, "", "HBL", "25%", MustParse("2025-01-03"))
	var noLots *NoEligibleLotsError
	if !errors.As(err, &noLots) {
		t.Fatalf("ApplyBonus() error = %v, want NoEligibleLotsError", err)
	}
}

func TestActionDuplicate(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)
	exDate := MustParse("2025-02-03")

	if _, err := l.ApplyBonus(Date{}, "", "HBL", "25%", exDate); err != nil {
		t.Fatal(err)
	}
	_, err := l.ApplyBonus(Date{}, "", "HBL", "25%", exDate)
	var dup *DuplicateActionError
	if !errors.As(err, &dup) {
		t.Fatalf("second ApplyBonus() error = %v, want DuplicateActionError", err)
	}
}

func TestActionRatioGrantsNoShares(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 3, 100)

	// floor(3 x 0.10) = 0 shares.
	_, err := l.ApplyBonus(Date{}, "", "HBL", "10%", MustParse("2025-02-03"))
	var ratioErr *RatioError
	if !errors.As(err, &ratioErr) {
		t.Fatalf("ApplyBonus() error = %v, want RatioError", err)
	}
	if len(l.Actions()) != 0 {
		t.Error("a rejected action must not be recorded")
	}
}

func TestReverseBonusRoundTrip(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)
	before := l.Lots("HBL")

	exDate := MustParse("2025-02-03")
	if _, err := l.ApplyBonus(MustParse("2025-02-05"), "", "HBL", "25%", exDate); err != nil {
		t.Fatal(err)
	}
	if err := l.ReverseAction(MustParse("2025-02-20"), "HBL", BonusIssue, exDate); err != nil {
		t.Fatalf("ReverseAction() returned an unexpected error: %v", err)
	}

	after := l.Lots("HBL")
	if len(after) != len(before) {
		t.Fatalf("reversal left %d lots, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i].AcquisitionDate != before[i].AcquisitionDate ||
			!after[i].Quantity.Equal(before[i].Quantity) ||
			!after[i].Remaining.Equal(before[i].Remaining) ||
			!after[i].UnitCost.Equal(before[i].UnitCost) {
			t.Errorf("lot %d differs after reversal: %+v vs %+v", i, after[i], before[i])
		}
	}

	// The record survives as an audit entry.
	actions := l.Actions()
	if len(actions) != 1 || actions[0].Active || actions[0].ReversedDate.IsZero() {
		t.Errorf("reversed action should stay in the log, inactive and dated")
	}
}

func TestReverseRefusedAfterSales(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)

	exDate := MustParse("2025-02-03")
	if _, err := l.ApplyBonus(MustParse("2025-02-05"), "", "HBL", "25%", exDate); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Sell(MustParse("2025-03-01"), "", "HBL", Q(50), M(150, "PKR"), M(0, "PKR")); err != nil {
		t.Fatal(err)
	}

	err := l.ReverseAction(Date{}, "HBL", BonusIssue, exDate)
	var postSales *PostActionSalesError
	if !errors.As(err, &postSales) {
		t.Fatalf("ReverseAction() error = %v, want PostActionSalesError", err)
	}
}

func TestReverseRightsPartiallySold(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)

	exDate := MustParse("2025-02-03")
	if _, err := l.ApplyRights(MustParse("2025-03-01"), "", "HBL", "1:5", exDate, M(80, "PKR"), MustParse("2025-02-10")); err != nil {
		t.Fatal(err)
	}
	// This sale settles before the action's applied date, so it does not
	// block reversal on its own, but it eats into the rights lot.
	if _, err := l.Sell(MustParse("2025-02-20"), "", "HBL", Q(110), M(150, "PKR"), M(0, "PKR")); err != nil {
		t.Fatal(err)
	}

	err := l.ReverseAction(Date{}, "HBL", RightsIssue, exDate)
	var partial *PartiallySoldError
	if !errors.As(err, &partial) {
		t.Fatalf("ReverseAction() error = %v, want PartiallySoldError", err)
	}
}

func TestReverseBonusBackdatedSale(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)

	exDate := MustParse("2025-02-03")
	if _, err := l.ApplyBonus(MustParse("2025-03-01"), "", "HBL", "25%", exDate); err != nil {
		t.Fatal(err)
	}
	// Trade-dated so it settles 2025-02-24, before the applied date, but it
	// is committed after the bonus and consumes 10 of its shares.
	if _, err := l.Sell(MustParse("2025-02-20"), "", "HBL", Q(110), M(150, "PKR"), M(0, "PKR")); err != nil {
		t.Fatal(err)
	}

	err := l.ReverseAction(Date{}, "HBL", BonusIssue, exDate)
	var postSales *PostActionSalesError
	if !errors.As(err, &postSales) {
		t.Fatalf("ReverseAction() error = %v, want PostActionSalesError", err)
	}

	// The refused reversal changed nothing and the ledger stays usable.
	actions := l.Actions()
	if len(actions) != 1 || !actions[0].Active {
		t.Error("a refused reversal must leave the action active")
	}
	if pos := l.Position("HBL"); !pos.Equal(Q(15)) {
		t.Errorf("Position = %s, want 15", pos)
	}
	if gains := l.RealizedGains(); len(gains) != 1 {
		t.Errorf("RealizedGains() = %d, want 1", len(gains))
	}
}

func TestReverseBonusKeepsGainsIntact(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)

	exDate := MustParse("2025-02-03")
	if _, err := l.ApplyBonus(MustParse("2025-03-01"), "", "HBL", "25%", exDate); err != nil {
		t.Fatal(err)
	}
	// The sale fits within the pre-bonus holdings, but its cost basis was
	// computed at the rescaled unit cost of 80; removing the bonus would
	// silently rewrite the gain at a unit cost of 100.
	gain, err := l.Sell(MustParse("2025-02-20"), "", "HBL", Q(50), M(150, "PKR"), M(0, "PKR"))
	if err != nil {
		t.Fatal(err)
	}
	if want := M(4000, "PKR"); !gain.CostBasis.Equal(want) {
		t.Fatalf("CostBasis = %s, want %s", gain.CostBasis, want)
	}

	err = l.ReverseAction(Date{}, "HBL", BonusIssue, exDate)
	var postSales *PostActionSalesError
	if !errors.As(err, &postSales) {
		t.Fatalf("ReverseAction() error = %v, want PostActionSalesError", err)
	}
	if got := l.RealizedGains()[0].CostBasis; !got.Equal(M(4000, "PKR")) {
		t.Errorf("CostBasis after refused reversal = %s, want 4,000 unchanged", got)
	}
	if pos := l.Position("HBL"); !pos.Equal(Q(75)) {
		t.Errorf("Position = %s, want 75", pos)
	}
}

func TestReapplyAfterReversal(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)
	exDate := MustParse("2025-02-03")

	if _, err := l.ApplyBonus(Date{}, "", "HBL", "25%", exDate); err != nil {
		t.Fatal(err)
	}
	if err := l.ReverseAction(Date{}, "HBL", BonusIssue, exDate); err != nil {
		t.Fatal(err)
	}
	// The same action may be applied again once its predecessor is inactive.
	if _, err := l.ApplyBonus(Date{}, "", "HBL", "25%", exDate); err != nil {
		t.Fatalf("reapply after reversal returned an unexpected error: %v", err)
	}
	if len(l.Actions()) != 2 {
		t.Errorf("Actions() = %d records, want both kept", len(l.Actions()))
	}
	if pos := l.Position("HBL"); !pos.Equal(Q(125)) {
		t.Errorf("Position after reapply = %s, want 125", pos)
	}
}
