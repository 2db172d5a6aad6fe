package cgt

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"slices"
)

// entry is implemented by everything the ledger records: trade transactions
// and corporate actions. Entries are kept in commit order, and every derived
// view is obtained by replaying them in that order.
type entry interface {
	What() CommandType
	When() Date
}

// Ledger owns the full history of one portfolio: buys, sells and corporate
// actions for any number of symbols, all in one currency.
//
// The ledger is single-owner and not safe for concurrent use; a host
// embedding it in a concurrent environment must serialize access per ledger.
type Ledger struct {
	currency string
	entries  []entry
}

// NewLedger creates an empty ledger reporting in the given currency.
func NewLedger(currency string) *Ledger {
	return &Ledger{currency: currency}
}

// Currency returns the ledger's reporting currency.
func (l *Ledger) Currency() string { return l.currency }

// ConsumedLot records the consumption of (part of) one lot by a sale.
type ConsumedLot struct {
	AcquisitionDate Date      `json:"acquisitionDate"`
	Quantity        Quantity  `json:"quantity"`
	UnitCost        Money     `json:"unitCost"`
	HoldingDays     int       `json:"holdingDays"` // settlement date of the sale minus acquisition date
	Origin          LotOrigin `json:"origin"`
}

// RealizedGain is produced exactly once per sell transaction. It is immutable
// once created; a ledger reset is the only thing that voids it.
type RealizedGain struct {
	Security     string        `json:"security"`
	TradeDate    Date          `json:"tradeDate"`
	SaleDate     Date          `json:"saleDate"` // settlement date, the tax-relevant disposal date
	Quantity     Quantity      `json:"quantity"`
	Price        Money         `json:"price"` // sale price per share
	Proceeds     Money         `json:"proceeds"`
	CostBasis    Money         `json:"costBasis"`
	Gain         Money         `json:"gain"` // Proceeds - CostBasis; commission not subtracted
	Commission   Money         `json:"commission"`
	LotsConsumed []ConsumedLot `json:"lotsConsumed"`
}

// Holding is the derived view of one symbol's open position.
type Holding struct {
	Security    string   `json:"security"`
	Quantity    Quantity `json:"quantity"`
	AverageCost Money    `json:"averageCost"` // cost basis divided by quantity
	CostBasis   Money    `json:"costBasis"`
	Lots        []Lot    `json:"lots"`
}

// state is the result of replaying the ledger's entries. It is rebuilt from
// scratch for every derived view, never cached, so no caller can alias
// mutable ledger internals.
type state struct {
	queues map[string]lots
	gains  []RealizedGain
}

// replay rebuilds lot queues and realized gains by processing entries in
// commit order. Inactive (reversed) corporate actions are skipped, which
// restores pre-action lot state exactly.
func (l *Ledger) replay() (*state, error) {
	s := &state{queues: make(map[string]lots)}
	for _, e := range l.entries {
		switch v := e.(type) {
		case Buy:
			s.queues[v.Security] = s.queues[v.Security].insert(Lot{
				AcquisitionDate: v.Settlement(),
				Quantity:        v.Quantity,
				Remaining:       v.Quantity,
				UnitCost:        v.Price,
				Origin:          OriginPurchase,
			})
		case Sell:
			queue := s.queues[v.Security]
			gain, rest, err := realize(v.Security, v.Quantity, v.Price, v.Commission, v.Date, queue)
			if err != nil {
				return nil, fmt.Errorf("replaying sell of %s on %s: %w", v.Security, v.Date, err)
			}
			s.queues[v.Security] = rest
			s.gains = append(s.gains, gain)
		case *CorporateAction:
			if !v.Active {
				continue
			}
			queue, err := v.applyTo(s.queues[v.Security])
			if err != nil {
				return nil, fmt.Errorf("replaying %s action for %s: %w", v.Kind, v.Security, err)
			}
			s.queues[v.Security] = queue
		default:
			return nil, fmt.Errorf("unhandled ledger entry type: %T", e)
		}
	}
	return s, nil
}

// mustReplay is replay for committed histories, which are valid by
// construction: every entry was validated against the state it was applied
// to, and replay is deterministic.
func (l *Ledger) mustReplay() *state {
	s, err := l.replay()
	if err != nil {
		panic("corrupted ledger history: " + err.Error())
	}
	return s
}

// realize consumes quantity from the queue in FIFO order and builds the
// RealizedGain record. The availability check runs before any consumption,
// so the operation is all-or-nothing.
func realize(security string, quantity Quantity, price, commission Money, tradeDate Date, queue lots) (RealizedGain, lots, error) {
	if available := queue.available(); available.LessThan(quantity) {
		return RealizedGain{}, queue, &InsufficientHoldingsError{
			Symbol:    security,
			Requested: quantity,
			Available: available,
		}
	}

	settle := tradeDate.Settlement()
	consumed, rest := queue.consume(quantity)

	var costBasis Money
	lotsConsumed := make([]ConsumedLot, 0, len(consumed))
	for _, c := range consumed {
		costBasis = costBasis.Add(c.UnitCost.Mul(c.Quantity))
		lotsConsumed = append(lotsConsumed, ConsumedLot{
			AcquisitionDate: c.AcquisitionDate,
			Quantity:        c.Quantity,
			UnitCost:        c.UnitCost,
			HoldingDays:     settle.Sub(c.AcquisitionDate),
			Origin:          c.Origin,
		})
	}

	proceeds := price.Mul(quantity)
	return RealizedGain{
		Security:     security,
		TradeDate:    tradeDate,
		SaleDate:     settle,
		Quantity:     quantity,
		Price:        price,
		Proceeds:     proceeds,
		CostBasis:    costBasis,
		Gain:         proceeds.Sub(costBasis),
		Commission:   commission,
		LotsConsumed: lotsConsumed,
	}, rest, nil
}

// quickFixCurrency resolves an empty currency to the ledger's.
func (l *Ledger) quickFixCurrency(m Money) Money {
	if m.Currency() == "" {
		return M(m.value, l.currency)
	}
	return m
}

// Buy validates and commits a purchase. The new lot is dated at the trade's
// settlement date.
func (l *Ledger) Buy(day Date, memo, security string, quantity Quantity, price, commission Money) (Buy, error) {
	tx := NewBuy(day, memo, security, quantity, l.quickFixCurrency(price), l.quickFixCurrency(commission))
	if err := tx.Validate(); err != nil {
		return Buy{}, err
	}
	if price.Currency() != "" && price.Currency() != l.currency {
		return Buy{}, errValidation("price", "currency %s does not match ledger currency %s", price.Currency(), l.currency)
	}
	l.entries = append(l.entries, tx)
	log.Printf("%s: buy %s %s @ %s", tx.Date, tx.Quantity, tx.Security, tx.Price)
	return tx, nil
}

// Sell validates and commits a disposal, returning the realized gain. It
// fails with InsufficientHoldingsError before consuming anything when the
// requested quantity exceeds the symbol's remaining holdings.
func (l *Ledger) Sell(day Date, memo, security string, quantity Quantity, price, commission Money) (RealizedGain, error) {
	tx := NewSell(day, memo, security, quantity, l.quickFixCurrency(price), l.quickFixCurrency(commission))
	if err := tx.Validate(); err != nil {
		return RealizedGain{}, err
	}
	if price.Currency() != "" && price.Currency() != l.currency {
		return RealizedGain{}, errValidation("price", "currency %s does not match ledger currency %s", price.Currency(), l.currency)
	}

	s := l.mustReplay()
	gain, _, err := realize(security, quantity, tx.Price, tx.Commission, day, s.queues[security])
	if err != nil {
		return RealizedGain{}, err
	}

	l.entries = append(l.entries, tx)
	log.Printf("%s: sell %s %s @ %s, gain %s", tx.Date, tx.Quantity, tx.Security, tx.Price, gain.Gain.SignedString())
	return gain, nil
}

// SimulateSell runs the exact sell algorithm against a copy of the symbol's
// queue and discards the consumption: committed state is never touched, even
// transiently. Scenario analysis is built on this.
func (l *Ledger) SimulateSell(security string, quantity Quantity, price Money, asOf Date) (RealizedGain, error) {
	tx := NewSell(asOf, "", security, quantity, l.quickFixCurrency(price), M(0, l.currency))
	if err := tx.Validate(); err != nil {
		return RealizedGain{}, err
	}
	if price.Currency() != "" && price.Currency() != l.currency {
		return RealizedGain{}, errValidation("price", "currency %s does not match ledger currency %s", price.Currency(), l.currency)
	}

	s := l.mustReplay()
	gain, _, err := realize(security, quantity, tx.Price, tx.Commission, asOf, s.queues[security].clone())
	return gain, err
}

// Append adds previously validated entries to the ledger in order. It is the
// raw path used when reloading serialized state; interactive mutation goes
// through Buy, Sell and the corporate action methods.
func (l *Ledger) Append(entries ...entry) {
	l.entries = append(l.entries, entries...)
}

// Position returns the remaining quantity held for a symbol.
func (l *Ledger) Position(security string) Quantity {
	return l.mustReplay().queues[security].available()
}

// Lots returns a copy of the symbol's open lot queue in FIFO order.
func (l *Ledger) Lots(security string) []Lot {
	return l.mustReplay().queues[security].clone()
}

// Holdings returns the derived holdings view for every symbol with an open
// position. It is recomputed on every call.
func (l *Ledger) Holdings() []Holding {
	s := l.mustReplay()
	tickers := slices.Collect(maps.Keys(s.queues))
	slices.Sort(tickers)

	var holdings []Holding
	for _, ticker := range tickers {
		queue := s.queues[ticker]
		quantity := queue.available()
		if !quantity.IsPositive() {
			continue
		}
		var costBasis Money
		for _, currentLot := range queue {
			costBasis = costBasis.Add(currentLot.RemainingCost())
		}
		holdings = append(holdings, Holding{
			Security:    ticker,
			Quantity:    quantity,
			AverageCost: costBasis.Div(quantity),
			CostBasis:   costBasis,
			Lots:        queue.clone(),
		})
	}
	return holdings
}

// RealizedGains returns every realized gain in sale order, optionally
// restricted to a date range over the sale's settlement date.
func (l *Ledger) RealizedGains(within ...Range) []RealizedGain {
	gains := l.mustReplay().gains
	if len(within) == 0 {
		return gains
	}
	var out []RealizedGain
	for _, g := range gains {
		for _, r := range within {
			if r.Contains(g.SaleDate) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// Transactions returns an iterator over trade transactions in commit order.
func (l *Ledger) Transactions(filters ...func(Transaction) bool) iter.Seq2[int, Transaction] {
	return func(yield func(int, Transaction) bool) {
		for i, e := range l.entries {
			tx, ok := e.(Transaction)
			if !ok {
				continue
			}
			accept := len(filters) == 0
			for _, filter := range filters {
				if filter(tx) {
					accept = true
					break
				}
			}
			if !accept {
				continue
			}
			if !yield(i, tx) {
				return
			}
		}
	}
}

// Actions returns the append-only corporate action log, including reversed
// records: history survives reversal.
func (l *Ledger) Actions() []*CorporateAction {
	var actions []*CorporateAction
	for _, e := range l.entries {
		if a, ok := e.(*CorporateAction); ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// Securities returns the sorted list of symbols that ever appear in the ledger.
func (l *Ledger) Securities() []string {
	seen := make(map[string]struct{})
	for _, e := range l.entries {
		switch v := e.(type) {
		case Buy:
			seen[v.Security] = struct{}{}
		case Sell:
			seen[v.Security] = struct{}{}
		case *CorporateAction:
			seen[v.Security] = struct{}{}
		}
	}
	tickers := slices.Collect(maps.Keys(seen))
	slices.Sort(tickers)
	return tickers
}

// BySecurity returns a predicate that filters transactions by ticker.
func BySecurity(ticker string) func(Transaction) bool {
	return func(tx Transaction) bool {
		switch v := tx.(type) {
		case Buy:
			return v.Security == ticker
		case Sell:
			return v.Security == ticker
		default:
			return false
		}
	}
}
