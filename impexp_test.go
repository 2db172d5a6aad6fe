package cgt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

const sampleBackup = `{
  "currency": "PKR",
  "transactions": [
    {"type": "BUY", "symbol": "HBL", "date": "2025-01-01", "quantity": 100, "price": 100},
    {"type": "SELL", "symbol": "HBL", "date": "2025-03-01", "quantity": 40, "price": 150, "commission": 25}
  ],
  "corporateActions": [
    {
      "kind": "bonus",
      "symbol": "HBL",
      "exDate": "2025-02-03",
      "appliedDate": "2025-02-05",
      "active": true,
      "parameters": {"ratio": "25%"},
      "resultSummary": {"sharesAdded": 25, "lotsAffected": 1}
    }
  ],
  "holdings": [],
  "realizedGains": []
}`

func TestImportBackup(t *testing.T) {
	l, err := ImportBackup(strings.NewReader(sampleBackup))
	if err != nil {
		t.Fatalf("ImportBackup() returned an unexpected error: %v", err)
	}
	if l.Currency() != "PKR" {
		t.Errorf("Currency() = %q, want PKR", l.Currency())
	}

	// The bonus interleaves between the buy and the sell by date: the buy
	// becomes 125 shares at 80, the sell takes 40 of them.
	if pos := l.Position("HBL"); !pos.Equal(Q(85)) {
		t.Errorf("Position = %s, want 85", pos)
	}
	gains := l.RealizedGains()
	if len(gains) != 1 {
		t.Fatalf("RealizedGains() = %d, want 1", len(gains))
	}
	if want := M(2800, "PKR"); !gains[0].Gain.Equal(want) {
		t.Errorf("imported gain = %s, want %s", gains[0].Gain, want)
	}

	actions := l.Actions()
	if len(actions) != 1 || actions[0].Kind != BonusIssue || !actions[0].SharesAdded.Equal(Q(25)) {
		t.Errorf("imported actions = %+v, want one bonus adding 25 shares", actions)
	}
}

func TestImportBackupRights(t *testing.T) {
	const backup = `{
  "currency": "PKR",
  "transactions": [
    {"type": "BUY", "symbol": "OGDC", "date": "2025-01-01", "quantity": 40, "price": 200}
  ],
  "corporateActions": [
    {
      "kind": "rights",
      "symbol": "OGDC",
      "exDate": "2025-02-03",
      "appliedDate": "2025-02-10",
      "parameters": {"ratio": "1:4", "issuePrice": 180, "subscriptionDate": "2025-02-20"}
    }
  ]
}`
	l, err := ImportBackup(strings.NewReader(backup))
	if err != nil {
		t.Fatalf("ImportBackup() returned an unexpected error: %v", err)
	}
	if pos := l.Position("OGDC"); !pos.Equal(Q(50)) {
		t.Errorf("Position = %s, want 50", pos)
	}
	queue := l.Lots("OGDC")
	if len(queue) != 2 || queue[1].Origin != OriginRights || !queue[1].UnitCost.Equal(M(180, "PKR")) {
		t.Errorf("rights lot not rebuilt: %+v", queue)
	}
}

func TestImportBackupRejectsUnknownType(t *testing.T) {
	const backup = `{
  "currency": "PKR",
  "transactions": [
    {"type": "TRANSFER", "symbol": "HBL", "date": "2025-01-01", "quantity": 100, "price": 100}
  ]
}`
	if _, err := ImportBackup(strings.NewReader(backup)); err == nil {
		t.Error("ImportBackup() should reject an unknown transaction type")
	}
}

func TestImportBackupRejectsInvalidHistory(t *testing.T) {
	const backup = `{
  "currency": "PKR",
  "transactions": [
    {"type": "SELL", "symbol": "HBL", "date": "2025-01-01", "quantity": 100, "price": 100}
  ]
}`
	if _, err := ImportBackup(strings.NewReader(backup)); err == nil {
		t.Error("ImportBackup() should reject a history that does not replay")
	}
}

func TestExportBackup(t *testing.T) {
	l := NewLedger("PKR")
	mustBuy(t, l, "2025-01-01", "HBL", 100, 100)
	if _, err := l.Sell(MustParse("2025-03-01"), "", "HBL", Q(40), M(150, "PKR"), M(0, "PKR")); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := ExportBackup(&buf, l); err != nil {
		t.Fatalf("ExportBackup() returned an unexpected error: %v", err)
	}

	var doc struct {
		Currency         string            `json:"currency"`
		Transactions     []json.RawMessage `json:"transactions"`
		Holdings         []json.RawMessage `json:"holdings"`
		RealizedGains    []json.RawMessage `json:"realizedGains"`
		CorporateActions []json.RawMessage `json:"corporateActions"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc.Currency != "PKR" {
		t.Errorf("exported currency = %q, want PKR", doc.Currency)
	}
	if len(doc.Transactions) != 2 {
		t.Errorf("exported transactions = %d, want 2", len(doc.Transactions))
	}
	if len(doc.Holdings) != 1 {
		t.Errorf("exported holdings = %d, want 1", len(doc.Holdings))
	}
	if len(doc.RealizedGains) != 1 {
		t.Errorf("exported realized gains = %d, want 1", len(doc.RealizedGains))
	}
}
