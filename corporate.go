package cgt

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/shopspring/decimal"
)

// ActionKind identifies the kind of corporate action.
type ActionKind string

const (
	BonusIssue  ActionKind = "bonus"
	RightsIssue ActionKind = "rights"
)

func (k ActionKind) String() string { return string(k) }

// defaultSubscriptionLag is the number of days after the ex-date used as the
// rights subscription date when none is given.
const defaultSubscriptionLag = 30

// CorporateAction is one record of the append-only corporate action log.
// Applying an action appends a record; reversing it flips Active to false
// and stamps ReversedDate. Records are never deleted, so the audit history
// survives reversal.
type CorporateAction struct {
	Kind         ActionKind
	Security     string
	ExDate       Date
	AppliedDate  Date
	ReversedDate Date
	Memo         string
	Active       bool

	RatioText string          // the ratio as entered: "20%", "0.2" or "1:5"
	Ratio     decimal.Decimal // parsed value

	// Rights-issue parameters.
	IssuePrice       Money
	SubscriptionDate Date

	// Result summary captured at apply time.
	SharesAdded  Quantity
	LotsAffected int
}

func (a *CorporateAction) What() CommandType {
	if a.Kind == BonusIssue {
		return CmdBonus
	}
	return CmdRights
}

// When returns the ex-date, the date the action economically applies to.
func (a *CorporateAction) When() Date { return a.ExDate }

// ParseBonusRatio parses a bonus ratio given as a percentage ("20%") or a
// decimal ("0.2"). The ratio must be in (0, 1].
func ParseBonusRatio(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	text := s
	percent := strings.HasSuffix(s, "%")
	if percent {
		s = strings.TrimSuffix(s, "%")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &RatioError{Ratio: text, Reason: "not a number"}
	}
	if percent {
		d = d.Shift(-2)
	}
	if !d.IsPositive() || d.GreaterThan(decimal.New(1, 0)) {
		return decimal.Zero, &RatioError{Ratio: text, Reason: "must be in (0, 1]"}
	}
	return d, nil
}

// ParseRightsRatio parses a rights entitlement ratio given as "n:m" (n new
// shares for every m held) or as a decimal.
func ParseRightsRatio(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if n, m, found := strings.Cut(s, ":"); found {
		num, err1 := decimal.NewFromString(strings.TrimSpace(n))
		den, err2 := decimal.NewFromString(strings.TrimSpace(m))
		if err1 != nil || err2 != nil || !den.IsPositive() {
			return decimal.Zero, &RatioError{Ratio: s, Reason: "want n:m with positive terms"}
		}
		if !num.IsPositive() {
			return decimal.Zero, &RatioError{Ratio: s, Reason: "want n:m with positive terms"}
		}
		return num.Div(den), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &RatioError{Ratio: s, Reason: "not a number"}
	}
	if !d.IsPositive() {
		return decimal.Zero, &RatioError{Ratio: s, Reason: "must be positive"}
	}
	return d, nil
}

// eligible reports whether a lot participates in an action with the given
// ex-date: only shares acquired strictly before the ex-date are entitled.
func eligible(l Lot, exDate Date) bool { return l.AcquisitionDate.Before(exDate) }

// applyTo applies the action to a lot queue and returns the resulting queue.
// It is pure with respect to the input queue's lots and is called during
// replay; apply-time validation has already rejected ineligible actions.
func (a *CorporateAction) applyTo(queue lots) (lots, error) {
	switch a.Kind {
	case BonusIssue:
		out := queue.clone()
		ratio := Q(a.Ratio)
		for i, currentLot := range out {
			if !eligible(currentLot, a.ExDate) {
				continue
			}
			bonus := currentLot.Remaining.Mul(ratio).Floor()
			if !bonus.IsPositive() {
				continue
			}
			newQuantity := currentLot.Quantity.Add(bonus)
			// Rescale so that quantity x unit cost is conserved.
			out[i].UnitCost = currentLot.UnitCost.Mul(currentLot.Quantity).Div(newQuantity)
			out[i].Quantity = newQuantity
			out[i].Remaining = currentLot.Remaining.Add(bonus)
		}
		return out, nil
	case RightsIssue:
		var entitled Quantity
		for _, currentLot := range queue {
			if eligible(currentLot, a.ExDate) {
				entitled = entitled.Add(currentLot.Remaining)
			}
		}
		rightsQty := entitled.Mul(Q(a.Ratio)).Floor()
		if !rightsQty.IsPositive() {
			// Apply-time validation rejects this; replay keeps the queue as is.
			return queue, nil
		}
		return queue.insert(Lot{
			AcquisitionDate: a.SubscriptionDate,
			Quantity:        rightsQty,
			Remaining:       rightsQty,
			UnitCost:        a.IssuePrice,
			Origin:          OriginRights,
		}), nil
	default:
		return queue, &ValidationError{Field: "action", Reason: "unknown kind " + string(a.Kind)}
	}
}

// findActive returns the active action for (security, kind, exDate), if any.
func (l *Ledger) findActive(security string, kind ActionKind, exDate Date) *CorporateAction {
	for _, a := range l.Actions() {
		if a.Active && a.Security == security && a.Kind == kind && a.ExDate == exDate {
			return a
		}
	}
	return nil
}

// validateAction runs the checks shared by bonus and rights application and
// returns the symbol's current queue.
func (l *Ledger) validateAction(security string, kind ActionKind, exDate Date) (lots, error) {
	if security == "" {
		return nil, errValidation("security", "ticker is missing")
	}
	if exDate.IsZero() {
		return nil, errValidation("ex-date", "date is missing")
	}
	if dup := l.findActive(security, kind, exDate); dup != nil {
		return nil, &DuplicateActionError{Symbol: security, Kind: kind, ExDate: exDate}
	}
	queue := l.mustReplay().queues[security]
	for _, currentLot := range queue {
		if eligible(currentLot, exDate) {
			return queue, nil
		}
	}
	return nil, &NoEligibleLotsError{Symbol: security, ExDate: exDate}
}

// ApplyBonus applies a bonus issue: every eligible lot grows by
// floor(remaining x ratio) free shares and its unit cost is rescaled so the
// lot's total cost basis is unchanged.
func (l *Ledger) ApplyBonus(on Date, memo, security, ratio string, exDate Date) (*CorporateAction, error) {
	parsed, err := ParseBonusRatio(ratio)
	if err != nil {
		return nil, err
	}
	queue, err := l.validateAction(security, BonusIssue, exDate)
	if err != nil {
		return nil, err
	}
	if on.IsZero() {
		on = Today()
	}

	var sharesAdded Quantity
	var lotsAffected int
	for _, currentLot := range queue {
		if !eligible(currentLot, exDate) {
			continue
		}
		bonus := currentLot.Remaining.Mul(Q(parsed)).Floor()
		if bonus.IsPositive() {
			sharesAdded = sharesAdded.Add(bonus)
			lotsAffected++
		}
	}
	if !sharesAdded.IsPositive() {
		return nil, &RatioError{Ratio: ratio, Reason: "grants no bonus shares"}
	}

	action := &CorporateAction{
		Kind:         BonusIssue,
		Security:     security,
		ExDate:       exDate,
		AppliedDate:  on,
		Memo:         memo,
		Active:       true,
		RatioText:    ratio,
		Ratio:        parsed,
		SharesAdded:  sharesAdded,
		LotsAffected: lotsAffected,
	}
	l.entries = append(l.entries, action)
	log.Printf("%s: bonus %s for %s, %s shares added", on, ratio, security, sharesAdded)
	return action, nil
}

// ApplyRights applies a rights issue: the entitlement is
// floor(eligible shares x ratio) new shares purchased at the issue price,
// recorded as a new lot dated at the subscription date (ex-date + 30 days
// when no subscription date is given). The lot is inserted in date-sorted
// position so the queue's FIFO ordering holds even for an early
// subscription date.
func (l *Ledger) ApplyRights(on Date, memo, security, ratio string, exDate Date, issuePrice Money, subscription Date) (*CorporateAction, error) {
	parsed, err := ParseRightsRatio(ratio)
	if err != nil {
		return nil, err
	}
	issuePrice = l.quickFixCurrency(issuePrice)
	if !issuePrice.IsPositive() {
		return nil, errValidation("issue price", "must be positive, got %s", issuePrice)
	}
	queue, err := l.validateAction(security, RightsIssue, exDate)
	if err != nil {
		return nil, err
	}
	if on.IsZero() {
		on = Today()
	}
	if subscription.IsZero() {
		subscription = exDate.Add(defaultSubscriptionLag)
	}

	var entitled Quantity
	for _, currentLot := range queue {
		if eligible(currentLot, exDate) {
			entitled = entitled.Add(currentLot.Remaining)
		}
	}
	rightsQty := entitled.Mul(Q(parsed)).Floor()
	if !rightsQty.IsPositive() {
		return nil, &RatioError{Ratio: ratio, Reason: "grants no rights shares"}
	}

	action := &CorporateAction{
		Kind:             RightsIssue,
		Security:         security,
		ExDate:           exDate,
		AppliedDate:      on,
		Memo:             memo,
		Active:           true,
		RatioText:        ratio,
		Ratio:            parsed,
		IssuePrice:       issuePrice,
		SubscriptionDate: subscription,
		SharesAdded:      rightsQty,
		LotsAffected:     1,
	}
	l.entries = append(l.entries, action)
	log.Printf("%s: rights %s @ %s for %s, %s shares subscribed", on, ratio, issuePrice, security, rightsQty)
	return action, nil
}

// ReverseAction reverses the active action for (security, kind, exDate). The
// record stays in the log, flagged inactive, and replay then reproduces the
// exact pre-action lot state. Reversal is refused when any sale settled
// after the action was applied, when a rights lot has been touched by a
// sale, or when the history without the action would not replay to the same
// realized gains.
func (l *Ledger) ReverseAction(on Date, security string, kind ActionKind, exDate Date) error {
	action := l.findActive(security, kind, exDate)
	if action == nil {
		return errValidation("action", "no active %s action for %s with ex-date %s", kind, security, exDate)
	}
	gains := l.RealizedGains()
	for _, g := range gains {
		if g.Security == security && g.SaleDate.After(action.AppliedDate) {
			return &PostActionSalesError{Symbol: security, AppliedDate: action.AppliedDate}
		}
	}
	if kind == RightsIssue {
		rightsLot, ok := l.findRightsLot(action)
		if !ok {
			return &PartiallySoldError{Symbol: security, Remaining: Q(0), Quantity: action.SharesAdded}
		}
		if !rightsLot.Remaining.Equal(rightsLot.Quantity) {
			return &PartiallySoldError{Symbol: security, Remaining: rightsLot.Remaining, Quantity: rightsLot.Quantity}
		}
	}
	if on.IsZero() {
		on = Today()
	}

	// Sells are replayed in commit order, not settlement order, so a sale
	// settling before the applied date can still have consumed the action's
	// shares. Flip the action off and check that the remaining history
	// replays to the exact same gains; back out otherwise.
	action.Active = false
	if !l.replaysUnchanged(gains) {
		action.Active = true
		return &PostActionSalesError{Symbol: security, AppliedDate: action.AppliedDate}
	}
	action.ReversedDate = on
	log.Printf("%s: reversed %s for %s with ex-date %s", on, kind, security, exDate)
	return nil
}

// replaysUnchanged reports whether the history replays cleanly and produces
// the given realized gains unchanged. Realized gains are immutable once
// produced; any mutation of the history that would rewrite one is invalid.
func (l *Ledger) replaysUnchanged(before []RealizedGain) bool {
	s, err := l.replay()
	if err != nil {
		return false
	}
	if len(s.gains) != len(before) {
		return false
	}
	for i := range before {
		a, b := before[i], s.gains[i]
		if a.Security != b.Security || a.SaleDate != b.SaleDate ||
			!a.Quantity.Equal(b.Quantity) || !a.CostBasis.Equal(b.CostBasis) ||
			!a.Gain.Equal(b.Gain) {
			return false
		}
	}
	return true
}

// findRightsLot locates the lot created by a rights action in the symbol's
// current queue.
func (l *Ledger) findRightsLot(action *CorporateAction) (Lot, bool) {
	for _, currentLot := range l.mustReplay().queues[action.Security] {
		if currentLot.Origin == OriginRights &&
			currentLot.AcquisitionDate == action.SubscriptionDate &&
			currentLot.Quantity.Equal(action.SharesAdded) &&
			currentLot.UnitCost.Equal(action.IssuePrice) {
			return currentLot, true
		}
	}
	return Lot{}, false
}

// MarshalJSON implements the json.Marshaler interface for CorporateAction.
func (a *CorporateAction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("command", a.What())
	w.Append("date", a.ExDate)
	w.Optional("memo", a.Memo)
	w.Append("security", a.Security)
	w.Append("ratio", a.RatioText)
	if a.Kind == RightsIssue {
		w.Append("issuePrice", a.IssuePrice.exact())
		w.Append("subscription", a.SubscriptionDate)
	}
	w.Append("applied", a.AppliedDate)
	w.Append("active", a.Active)
	if !a.ReversedDate.IsZero() {
		w.Append("reversed", a.ReversedDate)
	}
	w.Append("sharesAdded", a.SharesAdded)
	w.Append("lotsAffected", a.LotsAffected)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for CorporateAction.
func (a *CorporateAction) UnmarshalJSON(data []byte) error {
	var temp struct {
		Command      CommandType `json:"command"`
		Date         Date        `json:"date"`
		Memo         string      `json:"memo"`
		Security     string      `json:"security"`
		Ratio        string      `json:"ratio"`
		IssuePrice   Money       `json:"issuePrice"`
		Subscription Date        `json:"subscription"`
		Applied      Date        `json:"applied"`
		Active       bool        `json:"active"`
		Reversed     Date        `json:"reversed"`
		SharesAdded  Quantity    `json:"sharesAdded"`
		LotsAffected int         `json:"lotsAffected"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	var parsed decimal.Decimal
	var err error
	switch temp.Command {
	case CmdBonus:
		a.Kind = BonusIssue
		parsed, err = ParseBonusRatio(temp.Ratio)
	case CmdRights:
		a.Kind = RightsIssue
		parsed, err = ParseRightsRatio(temp.Ratio)
	default:
		return errValidation("command", "unknown corporate action %q", temp.Command)
	}
	if err != nil {
		return err
	}

	a.Security = temp.Security
	a.ExDate = temp.Date
	a.AppliedDate = temp.Applied
	a.ReversedDate = temp.Reversed
	a.Memo = temp.Memo
	a.Active = temp.Active
	a.RatioText = temp.Ratio
	a.Ratio = parsed
	a.IssuePrice = temp.IssuePrice
	a.SubscriptionDate = temp.Subscription
	a.SharesAdded = temp.SharesAdded
	a.LotsAffected = temp.LotsAffected
	return nil
}
