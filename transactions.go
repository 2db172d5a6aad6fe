package cgt

import (
	"encoding/json"
)

// CommandType is a typed string for identifying ledger entries.
type CommandType string

// Command types used for identifying ledger entries.
const (
	CmdBuy    CommandType = "buy"
	CmdSell   CommandType = "sell"
	CmdBonus  CommandType = "bonus"
	CmdRights CommandType = "rights"
)

// Transaction defines the common interface for trade records in the ledger.
type Transaction interface {
	What() CommandType // What returns the command type of the transaction (e.g., "buy", "sell").
	When() Date        // When returns the trade date of the transaction.
	Equal(Transaction) bool
}

type baseCmd struct {
	Command CommandType `json:"command"`        // Command specifies the type of entry (e.g., "buy", "sell").
	Date    Date        `json:"date"`           // Date is the trade date.
	Memo    string      `json:"memo,omitempty"` // Memo provides an optional note for the entry.
}

// What returns the command name identifying the type of entry.
func (t baseCmd) What() CommandType {
	return t.Command
}

// When returns the trade date of the entry.
func (t baseCmd) When() Date {
	return t.Date
}

// MarshalJSON implements the json.Marshaler interface for baseCmd.
func (t baseCmd) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("command", t.Command)
	w.Append("date", t.Date)
	w.Optional("memo", t.Memo)
	return w.MarshalJSON()
}

// secCmd is a component for security-based entries.
type secCmd struct {
	baseCmd
	Security string `json:"security"` // Security is the ticker symbol of the instrument.
}

// MarshalJSON implements the json.Marshaler interface for secCmd.
func (t secCmd) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(t.baseCmd)
	w.Append("security", t.Security)
	return w.MarshalJSON()
}

// tradeCmd is the common component of buy and sell transactions.
type tradeCmd struct {
	secCmd
	Quantity   Quantity // Quantity is the number of shares traded.
	Price      Money    // Price is the price per share.
	Commission Money    // Commission is tracked separately, never folded into the gain figure.
}

// Settlement returns the date the trade settles, which is the tax-relevant
// acquisition or disposal date.
func (t tradeCmd) Settlement() Date { return t.Date.Settlement() }

// Amount returns the trade consideration, quantity times price per share,
// excluding commission.
func (t tradeCmd) Amount() Money { return t.Price.Mul(t.Quantity) }

// Validate checks the common trade fields.
func (t tradeCmd) Validate() error {
	if t.Security == "" {
		return errValidation("security", "ticker is missing")
	}
	if t.Date.IsZero() {
		return errValidation("date", "trade date is missing")
	}
	if !t.Quantity.IsPositive() {
		return errValidation("quantity", "must be positive, got %s", t.Quantity)
	}
	if !t.Price.IsPositive() {
		return errValidation("price", "must be positive, got %s", t.Price)
	}
	if t.Commission.IsNegative() {
		return errValidation("commission", "must not be negative, got %s", t.Commission)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for tradeCmd.
func (t tradeCmd) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(t.secCmd)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price.exact())
	if !t.Commission.IsZero() {
		w.Append("commission", t.Commission)
	}
	return w.MarshalJSON()
}

func (t *tradeCmd) UnmarshalJSON(data []byte) error {
	var temp struct {
		secCmd
		Quantity   Quantity `json:"quantity"`
		Price      Money    `json:"price"`
		Commission Money    `json:"commission"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	t.secCmd = temp.secCmd
	t.Quantity = temp.Quantity
	t.Price = temp.Price
	t.Commission = temp.Commission
	return nil
}

// Buy represents a purchase of a quantity of a security at a price per share.
// It creates a new lot at the tail of the symbol's queue, dated at settlement.
type Buy struct {
	tradeCmd
}

// NewBuy creates a new Buy transaction.
func NewBuy(day Date, memo, security string, quantity Quantity, price, commission Money) Buy {
	return Buy{
		tradeCmd: tradeCmd{
			secCmd:     secCmd{baseCmd: baseCmd{Command: CmdBuy, Date: day, Memo: memo}, Security: security},
			Quantity:   quantity,
			Price:      price,
			Commission: commission,
		},
	}
}

func (t Buy) Equal(other Transaction) bool {
	o, ok := other.(Buy)
	return ok && t.secCmd == o.secCmd && t.Quantity.Equal(o.Quantity) &&
		t.Price.Equal(o.Price) && t.Commission.Equal(o.Commission)
}

// Sell represents a disposal of a quantity of a security at a price per
// share. It consumes lots head to tail in FIFO order.
type Sell struct {
	tradeCmd
}

// NewSell creates a new Sell transaction.
func NewSell(day Date, memo, security string, quantity Quantity, price, commission Money) Sell {
	return Sell{
		tradeCmd: tradeCmd{
			secCmd:     secCmd{baseCmd: baseCmd{Command: CmdSell, Date: day, Memo: memo}, Security: security},
			Quantity:   quantity,
			Price:      price,
			Commission: commission,
		},
	}
}

func (t Sell) Equal(other Transaction) bool {
	o, ok := other.(Sell)
	return ok && t.secCmd == o.secCmd && t.Quantity.Equal(o.Quantity) &&
		t.Price.Equal(o.Price) && t.Commission.Equal(o.Commission)
}

