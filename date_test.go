package cgt

import (
	"testing"
	"time"
)

func TestSettlement(t *testing.T) {
	testCases := []struct {
		name  string
		trade string
		want  string
	}{
		{"midweek", "2025-01-01", "2025-01-03"},       // Wed -> Fri
		{"thursday crosses weekend", "2025-01-02", "2025-01-06"}, // Thu -> Mon
		{"friday crosses weekend", "2025-01-03", "2025-01-07"},   // Fri -> Tue
		{"saturday trade", "2025-02-01", "2025-02-04"},           // Sat -> Tue
		{"sunday trade", "2025-02-02", "2025-02-04"},             // Sun -> Tue
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := MustParse(tc.trade).Settlement()
			if got.String() != tc.want {
				t.Errorf("Settlement(%s) = %s, want %s", tc.trade, got, tc.want)
			}
		})
	}
}

func TestDateSub(t *testing.T) {
	a := MustParse("2025-03-04")
	b := MustParse("2025-01-03")
	if days := a.Sub(b); days != 60 {
		t.Errorf("Sub() = %d, want 60", days)
	}
	if days := b.Sub(a); days != -60 {
		t.Errorf("Sub() reversed = %d, want -60", days)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-7-1")
	if err != nil {
		t.Fatalf("ParseDate() returned an unexpected error: %v", err)
	}
	if got.String() != "2025-07-01" {
		t.Errorf("ParseDate(2025-7-1) = %s, want 2025-07-01", got)
	}

	if _, err := ParseDate("not-a-date"); err == nil {
		t.Error("ParseDate(not-a-date) should have failed")
	}

	today, err := ParseDate("0d")
	if err != nil || today != Today() {
		t.Errorf("ParseDate(0d) = %s, %v, want today", today, err)
	}
}

func TestTaxYear(t *testing.T) {
	testCases := []struct {
		day      string
		from, to string
	}{
		{"2025-03-01", "2024-07-01", "2025-06-30"},
		{"2025-07-01", "2025-07-01", "2026-06-30"},
		{"2025-06-30", "2024-07-01", "2025-06-30"},
	}
	for _, tc := range testCases {
		r := TaxYear(MustParse(tc.day))
		if r.From.String() != tc.from || r.To.String() != tc.to {
			t.Errorf("TaxYear(%s) = [%s, %s], want [%s, %s]", tc.day, r.From, r.To, tc.from, tc.to)
		}
	}
}

func TestRangeContains(t *testing.T) {
	r := NewRange(MustParse("2025-01-01"), MustParse("2025-01-31"))
	if !r.Contains(MustParse("2025-01-01")) || !r.Contains(MustParse("2025-01-31")) {
		t.Error("Contains() should include boundaries")
	}
	if r.Contains(MustParse("2025-02-01")) {
		t.Error("Contains() should exclude dates after the range")
	}
}

func TestAddBusinessDays(t *testing.T) {
	// 2025-01-03 is a Friday.
	got := NewDate(2025, time.January, 3).AddBusinessDays(1)
	if got.String() != "2025-01-06" {
		t.Errorf("AddBusinessDays(1) from Friday = %s, want 2025-01-06", got)
	}
}
