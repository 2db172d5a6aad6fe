package cgt

// LotOrigin distinguishes how a lot entered the ledger.
type LotOrigin string

const (
	OriginPurchase LotOrigin = "purchase"
	OriginRights   LotOrigin = "rights"
)

// Lot represents a single acquisition of a security, used for FIFO cost
// basis calculations. A bonus issue grows Quantity and Remaining and rescales
// UnitCost so that Quantity times UnitCost is conserved.
type Lot struct {
	AcquisitionDate Date      `json:"acquisitionDate"`
	Quantity        Quantity  `json:"quantity"`  // full size of the lot, including bonus shares
	Remaining       Quantity  `json:"remaining"` // shares not yet consumed by a sale
	UnitCost        Money     `json:"unitCost"`
	Origin          LotOrigin `json:"origin"`
}

// CostBasis returns the total historical cost attributed to the lot.
func (l Lot) CostBasis() Money { return l.UnitCost.Mul(l.Quantity) }

// RemainingCost returns the cost attributed to the unsold remainder.
func (l Lot) RemainingCost() Money { return l.UnitCost.Mul(l.Remaining) }

// lots is the per-symbol queue of open lots. The slice order is acquisition
// order and is the FIFO consumption order; it is never reordered, only
// consumed from the head and inserted in date-sorted position.
type lots []Lot

// available returns the total remaining quantity across the queue.
func (l lots) available() Quantity {
	var total Quantity
	for _, currentLot := range l {
		total = total.Add(currentLot.Remaining)
	}
	return total
}

// clone returns a deep copy of the queue. Simulations operate on clones so
// they can never observably mutate committed state.
func (l lots) clone() lots {
	out := make(lots, len(l))
	copy(out, l)
	return out
}

// consume walks the queue head to tail, taking min(lot.Remaining, needed)
// from each lot until quantityToSell is satisfied. It returns one entry per
// lot touched, in consumption order, and the surviving queue with fully
// consumed lots pruned. The caller must have checked availability first.
func (l lots) consume(quantityToSell Quantity) ([]Lot, lots) {
	var consumed []Lot
	var remainingLots lots

	for _, currentLot := range l {
		if quantityToSell.IsZero() {
			remainingLots = append(remainingLots, currentLot)
			continue
		}

		take := currentLot.Remaining.Min(quantityToSell)
		quantityToSell = quantityToSell.Sub(take)

		slice := currentLot
		slice.Quantity = take
		slice.Remaining = take
		consumed = append(consumed, slice)

		currentLot.Remaining = currentLot.Remaining.Sub(take)
		if currentLot.Remaining.IsPositive() {
			remainingLots = append(remainingLots, currentLot)
		}
		// Fully consumed lots are pruned from the queue.
	}
	return consumed, remainingLots
}

// insert places a lot in date-sorted position, after any existing lot with
// the same acquisition date. Purchases always land at the tail; rights lots
// with an early subscription date land where FIFO ordering requires.
func (l lots) insert(newLot Lot) lots {
	i := len(l)
	for i > 0 && l[i-1].AcquisitionDate.After(newLot.AcquisitionDate) {
		i--
	}
	out := make(lots, 0, len(l)+1)
	out = append(out, l[:i]...)
	out = append(out, newLot)
	out = append(out, l[i:]...)
	return out
}
