package cgt

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// this file contains functions to handle the legacy backup format: the full
// ledger state as one JSON document, {transactions, holdings, realizedGains,
// corporateActions}. Holdings and realized gains are derived data and are
// ignored on import; the ledger is rebuilt by replay.

// jarray extracts an array at a jsonpath, tolerating its absence.
func jarray(jobj any, path string) ([]any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		// An absent section is an empty one.
		return nil, nil
	}
	jlist, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("backup property %q is not an array", path)
	}
	return jlist, nil
}

// jstring reads a string attribute of a backup object.
func jstring(jobj map[string]any, key string) string {
	s, _ := jobj[key].(string)
	return s
}

// jnumber reads a numeric attribute of a backup object. The legacy format
// writes every number as a JSON float.
func jnumber(jobj map[string]any, key string) (float64, bool) {
	v, ok := jobj[key].(float64)
	return v, ok
}

// jdate reads and parses a date attribute.
func jdate(jobj map[string]any, key string) (Date, error) {
	s := jstring(jobj, key)
	if s == "" {
		return Date{}, nil
	}
	return ParseDate(s)
}

// importedEntry pairs a decoded entry with the date that fixes its position
// in commit order: the trade date for trades, the applied date for actions.
type importedEntry struct {
	on Date
	e  entry
}

// ImportBackup reads a legacy backup document and rebuilds a ledger from its
// transactions and corporate actions. Entries are ordered by trade date, with
// corporate actions interleaved at their applied date, and the rebuilt
// history is validated by replay before being returned.
func ImportBackup(r io.Reader) (*Ledger, error) {
	var jobj any
	if err := json.NewDecoder(r).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("cannot parse backup document: %w", err)
	}

	currency := ""
	if jval, err := jsonpath.Get("$.currency", jobj); err == nil {
		currency, _ = jval.(string)
	}

	jtxs, err := jarray(jobj, "$.transactions")
	if err != nil {
		return nil, err
	}
	jactions, err := jarray(jobj, "$.corporateActions")
	if err != nil {
		return nil, err
	}

	var imported []importedEntry
	for i, jtx := range jtxs {
		jmap, ok := jtx.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("backup transaction %d is not an object", i)
		}
		e, err := importTransaction(jmap, currency)
		if err != nil {
			return nil, fmt.Errorf("backup transaction %d: %w", i, err)
		}
		imported = append(imported, importedEntry{on: e.When(), e: e})
	}
	for i, jaction := range jactions {
		jmap, ok := jaction.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("backup corporate action %d is not an object", i)
		}
		action, err := importAction(jmap, currency)
		if err != nil {
			return nil, fmt.Errorf("backup corporate action %d: %w", i, err)
		}
		imported = append(imported, importedEntry{on: action.AppliedDate, e: action})
	}

	// The backup carries no commit order, so it is reconstructed from dates.
	// The sort is stable: same-day entries keep their document order.
	slices.SortStableFunc(imported, func(a, b importedEntry) int {
		switch {
		case a.on.Before(b.on):
			return -1
		case a.on.After(b.on):
			return 1
		default:
			return 0
		}
	})

	ledger := NewLedger(currency)
	for _, item := range imported {
		ledger.entries = append(ledger.entries, item.e)
	}
	if _, err := ledger.replay(); err != nil {
		return nil, fmt.Errorf("backup does not replay: %w", err)
	}
	return ledger, nil
}

func importTransaction(jmap map[string]any, currency string) (Transaction, error) {
	kind := strings.ToLower(jstring(jmap, "type"))
	symbol := jstring(jmap, "symbol")
	day, err := jdate(jmap, "date")
	if err != nil {
		return nil, err
	}
	quantity, ok := jnumber(jmap, "quantity")
	if !ok {
		return nil, fmt.Errorf("missing quantity")
	}
	price, ok := jnumber(jmap, "price")
	if !ok {
		return nil, fmt.Errorf("missing price")
	}
	commission, _ := jnumber(jmap, "commission")
	memo := jstring(jmap, "memo")

	switch kind {
	case "buy":
		return NewBuy(day, memo, symbol, Q(quantity), M(price, currency), M(commission, currency)), nil
	case "sell":
		return NewSell(day, memo, symbol, Q(quantity), M(price, currency), M(commission, currency)), nil
	default:
		return nil, fmt.Errorf("unknown transaction type %q", jstring(jmap, "type"))
	}
}

func importAction(jmap map[string]any, currency string) (*CorporateAction, error) {
	exDate, err := jdate(jmap, "exDate")
	if err != nil {
		return nil, err
	}
	appliedDate, err := jdate(jmap, "appliedDate")
	if err != nil {
		return nil, err
	}
	active, ok := jmap["active"].(bool)
	if !ok {
		active = true
	}

	parameters, _ := jmap["parameters"].(map[string]any)
	ratio := jstring(parameters, "ratio")

	action := &CorporateAction{
		Security:    jstring(jmap, "symbol"),
		ExDate:      exDate,
		AppliedDate: appliedDate,
		Active:      active,
		RatioText:   ratio,
	}

	switch strings.ToLower(jstring(jmap, "kind")) {
	case "bonus":
		action.Kind = BonusIssue
		action.Ratio, err = ParseBonusRatio(ratio)
		if err != nil {
			return nil, err
		}
	case "rights":
		action.Kind = RightsIssue
		action.Ratio, err = ParseRightsRatio(ratio)
		if err != nil {
			return nil, err
		}
		issuePrice, ok := jnumber(parameters, "issuePrice")
		if !ok {
			return nil, fmt.Errorf("missing issuePrice")
		}
		action.IssuePrice = M(issuePrice, currency)
		action.SubscriptionDate, err = jdate(parameters, "subscriptionDate")
		if err != nil {
			return nil, err
		}
		if action.SubscriptionDate.IsZero() {
			action.SubscriptionDate = exDate.Add(defaultSubscriptionLag)
		}
	default:
		return nil, fmt.Errorf("unknown corporate action kind %q", jstring(jmap, "kind"))
	}

	if summary, ok := jmap["resultSummary"].(map[string]any); ok {
		if shares, ok := jnumber(summary, "sharesAdded"); ok {
			action.SharesAdded = Q(shares)
		}
		if lots, ok := jnumber(summary, "lotsAffected"); ok {
			action.LotsAffected = int(lots)
		}
	}
	return action, nil
}

// ExportBackup writes the full ledger state in the backup document shape:
// transactions and corporate actions as recorded, holdings and realized
// gains derived at export time. The whole state is rewritten on every call.
func ExportBackup(w io.Writer, ledger *Ledger) error {
	doc := struct {
		Currency         string             `json:"currency"`
		Transactions     []Transaction      `json:"transactions"`
		Holdings         []Holding          `json:"holdings"`
		RealizedGains    []RealizedGain     `json:"realizedGains"`
		CorporateActions []*CorporateAction `json:"corporateActions"`
	}{
		Currency:         ledger.Currency(),
		Transactions:     make([]Transaction, 0),
		Holdings:         ledger.Holdings(),
		RealizedGains:    ledger.RealizedGains(),
		CorporateActions: ledger.Actions(),
	}
	for _, tx := range ledger.Transactions() {
		doc.Transactions = append(doc.Transactions, tx)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("cannot write backup document: %w", err)
	}
	return nil
}
