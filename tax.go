package cgt

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Rate is a tax rate as a fraction (0.15 for 15%).
type Rate struct {
	value decimal.Decimal
}

func R[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Rate {
	return Rate{value: newDecimal(value)}
}

func (r Rate) Equal(s Rate) bool       { return r.value.Equal(s.value) }
func (r Rate) LessThan(s Rate) bool    { return r.value.LessThan(s.value) }
func (r Rate) GreaterThan(s Rate) bool { return r.value.GreaterThan(s.value) }
func (r Rate) IsZero() bool            { return r.value.IsZero() }
func (r Rate) IsNegative() bool        { return r.value.IsNegative() }

// Percent returns the rate as a display percentage.
func (r Rate) Percent() Percent {
	f, _ := r.value.Shift(2).Float64()
	return Percent(f)
}

func (r Rate) String() string { return r.Percent().String() }

// MarshalJSON implements the json.Marshaler interface for Rate.
func (r Rate) MarshalJSON() ([]byte, error) { return r.value.MarshalJSON() }

// UnmarshalJSON implements the json.Unmarshaler interface for Rate.
func (r *Rate) UnmarshalJSON(data []byte) error { return r.value.UnmarshalJSON(data) }

// FilerStatus distinguishes registered tax filers from non-filers. The
// current flat regime ignores it, but the legacy schedule and any future
// table stay parameterized by it.
type FilerStatus bool

const (
	Filer    FilerStatus = true
	NonFiler FilerStatus = false
)

func (f FilerStatus) String() string {
	if f == Filer {
		return "filer"
	}
	return "non-filer"
}

// Bucket is one tier of a holding-period rate schedule. A bucket covers
// holding days in [MinDays, next bucket's MinDays); the last bucket is
// unbounded above.
type Bucket struct {
	MinDays int  `json:"minDays"`
	Rate    Rate `json:"rate"`
}

// RateTable is the static tax configuration: the regime cutover date, the
// flat rate for lots acquired on or after it, and the legacy holding-period
// schedule per filer status for older lots.
type RateTable struct {
	Cutover  Date     `json:"cutover"`
	FlatRate Rate     `json:"flatRate"`
	Filer    []Bucket `json:"filer"`
	NonFiler []Bucket `json:"nonFiler"`
}

// NewRateTable validates and returns a rate table. Each legacy schedule must
// start at day zero, be strictly ascending in MinDays, and carry
// non-increasing, non-negative rates.
func NewRateTable(cutover Date, flat Rate, filer, nonFiler []Bucket) (RateTable, error) {
	if cutover.IsZero() {
		return RateTable{}, errValidation("cutover", "regime cutover date is missing")
	}
	if flat.IsNegative() {
		return RateTable{}, errValidation("flat rate", "must not be negative, got %s", flat)
	}
	for name, schedule := range map[string][]Bucket{"filer": filer, "non-filer": nonFiler} {
		if err := validateSchedule(schedule); err != nil {
			return RateTable{}, errValidation(name+" schedule", "%s", err)
		}
	}
	return RateTable{Cutover: cutover, FlatRate: flat, Filer: filer, NonFiler: nonFiler}, nil
}

func validateSchedule(schedule []Bucket) error {
	if len(schedule) == 0 {
		return fmt.Errorf("needs at least one bucket")
	}
	if schedule[0].MinDays != 0 {
		return fmt.Errorf("first bucket must start at day 0, got %d", schedule[0].MinDays)
	}
	for i, b := range schedule {
		if b.Rate.IsNegative() {
			return fmt.Errorf("bucket %d has negative rate %s", i, b.Rate)
		}
		if i == 0 {
			continue
		}
		if b.MinDays <= schedule[i-1].MinDays {
			return fmt.Errorf("bucket %d must start after day %d", i, schedule[i-1].MinDays)
		}
		if b.Rate.GreaterThan(schedule[i-1].Rate) {
			return fmt.Errorf("bucket %d rate %s exceeds previous %s", i, b.Rate, schedule[i-1].Rate)
		}
	}
	return nil
}

// yearDays converts a holding period in years to the bucket boundary in days.
func yearDays(years int) int { return years * 365 }

// DefaultRateTable returns the current securities capital gains table: flat
// 15% for acquisitions on or after the 2024-07-01 regime cutover, and the
// legacy holding-period schedule before it. Both filer statuses currently
// share the legacy schedule.
func DefaultRateTable() RateTable {
	legacy := []Bucket{
		{MinDays: 0, Rate: R(0.15)},
		{MinDays: yearDays(1), Rate: R(0.125)},
		{MinDays: yearDays(2), Rate: R(0.10)},
		{MinDays: yearDays(3), Rate: R(0.075)},
		{MinDays: yearDays(4), Rate: R(0.05)},
		{MinDays: yearDays(5), Rate: R(0.025)},
		{MinDays: yearDays(6), Rate: R(0)},
	}
	return RateTable{
		Cutover:  NewDate(2024, time.July, 1),
		FlatRate: R(0.15),
		Filer:    legacy,
		NonFiler: legacy,
	}
}

// schedule returns the legacy schedule for a filer status.
func (t RateTable) schedule(filer FilerStatus) []Bucket {
	if filer == Filer {
		return t.Filer
	}
	return t.NonFiler
}

// RateFor returns the tax rate for one lot consumption. Lots acquired on or
// after the cutover get the flat rate regardless of holding period; older
// lots get the legacy bucket their holding days fall into.
func (t RateTable) RateFor(acquisitionDate Date, holdingDays int, filer FilerStatus) Rate {
	if !acquisitionDate.Before(t.Cutover) {
		return t.FlatRate
	}
	schedule := t.schedule(filer)
	rate := schedule[0].Rate
	for _, b := range schedule {
		if holdingDays < b.MinDays {
			break
		}
		rate = b.Rate
	}
	return rate
}

// NextMilestone returns the first legacy bucket after the given holding
// period that carries a strictly lower rate, or false when no cheaper bucket
// exists (post-cutover lots, or the schedule is exhausted).
func (t RateTable) NextMilestone(acquisitionDate Date, holdingDays int, filer FilerStatus) (Bucket, bool) {
	if !acquisitionDate.Before(t.Cutover) {
		return Bucket{}, false
	}
	current := t.RateFor(acquisitionDate, holdingDays, filer)
	for _, b := range t.schedule(filer) {
		if b.MinDays > holdingDays && b.Rate.LessThan(current) {
			return b, true
		}
	}
	return Bucket{}, false
}

// LotTax is the tax detail for one consumed lot within a sale.
type LotTax struct {
	AcquisitionDate Date
	Quantity        Quantity
	UnitCost        Money
	HoldingDays     int
	Rate            Rate
	TaxableGain     Money // clamped to zero for lots sold at a loss
	Tax             Money
}

// SaleTax is the tax assessment of one realized gain.
type SaleTax struct {
	Security      string
	SaleDate      Date
	CapitalGain   Money
	TotalTax      Money
	NetProfit     Money // CapitalGain - TotalTax
	EffectiveRate Percent
	PerLot        []LotTax
}

// TaxEngine computes tax on realized gains. The rate table is fixed at
// construction; only the filer status may change afterwards, through
// SetFilerStatus.
type TaxEngine struct {
	table RateTable
	filer FilerStatus
}

// NewTaxEngine creates a tax engine over a rate table.
func NewTaxEngine(table RateTable, filer FilerStatus) *TaxEngine {
	return &TaxEngine{table: table, filer: filer}
}

func (e *TaxEngine) Table() RateTable             { return e.table }
func (e *TaxEngine) FilerStatus() FilerStatus     { return e.filer }
func (e *TaxEngine) SetFilerStatus(f FilerStatus) { e.filer = f }

// RateFor exposes the table lookup under the engine's filer status.
func (e *TaxEngine) RateFor(acquisitionDate Date, holdingDays int) Rate {
	return e.table.RateFor(acquisitionDate, holdingDays, e.filer)
}

// TaxForSale assesses one realized gain. Tax is computed per consumed lot as
// max(0, (sale price - unit cost) x quantity) x rate: a lot sold at a loss
// contributes zero tax, never a credit, so a net-loss sale still reports zero
// tax even when some of its lots gained individually.
func (e *TaxEngine) TaxForSale(gain RealizedGain) SaleTax {
	currency := gain.Price.Currency()
	totalTax := M(0, currency)
	perLot := make([]LotTax, 0, len(gain.LotsConsumed))

	for _, c := range gain.LotsConsumed {
		rate := e.table.RateFor(c.AcquisitionDate, c.HoldingDays, e.filer)
		taxable := gain.Price.Sub(c.UnitCost).Mul(c.Quantity)
		if taxable.IsNegative() {
			taxable = M(0, currency)
		}
		tax := taxable.MulRate(rate)
		totalTax = totalTax.Add(tax)
		perLot = append(perLot, LotTax{
			AcquisitionDate: c.AcquisitionDate,
			Quantity:        c.Quantity,
			UnitCost:        c.UnitCost,
			HoldingDays:     c.HoldingDays,
			Rate:            rate,
			TaxableGain:     taxable,
			Tax:             tax,
		})
	}

	effective := Percent(0)
	if gain.Gain.IsPositive() {
		ratio, _ := totalTax.value.Div(gain.Gain.value).Shift(2).Float64()
		effective = Percent(ratio)
	}
	return SaleTax{
		Security:      gain.Security,
		SaleDate:      gain.SaleDate,
		CapitalGain:   gain.Gain,
		TotalTax:      totalTax,
		NetProfit:     gain.Gain.Sub(totalTax),
		EffectiveRate: effective,
		PerLot:        perLot,
	}
}
