package cgt

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// cmdHeader identifies the optional first line of a ledger file, carrying
// file-level attributes.
const cmdHeader CommandType = "ledger"

// DecodeLedger decodes a ledger from a stream of JSONL data: one entry per
// line, in commit order. Commit order is semantic and is preserved as is;
// corporate action reversibility depends on which sales came after which
// actions, so lines are never re-sorted.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	ledger := NewLedger("")
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var identifier struct {
			Command CommandType `json:"command"`
		}
		if err := json.Unmarshal(lineBytes, &identifier); err != nil {
			return nil, fmt.Errorf("could not identify command in line %q: %w", string(lineBytes), err)
		}

		var decoded entry
		var err error

		switch identifier.Command {
		case cmdHeader:
			var header struct {
				Currency string `json:"currency"`
			}
			if err := json.Unmarshal(lineBytes, &header); err != nil {
				return nil, fmt.Errorf("invalid ledger header %q: %w", string(lineBytes), err)
			}
			ledger.currency = header.Currency
			continue
		case CmdBuy:
			var tx Buy
			err = json.Unmarshal(lineBytes, &tx.tradeCmd)
			decoded = tx
		case CmdSell:
			var tx Sell
			err = json.Unmarshal(lineBytes, &tx.tradeCmd)
			decoded = tx
		case CmdBonus, CmdRights:
			action := &CorporateAction{}
			err = json.Unmarshal(lineBytes, action)
			decoded = action
		default:
			err = fmt.Errorf("unknown ledger command: %q", identifier.Command)
		}

		if err != nil {
			return nil, err
		}
		ledger.entries = append(ledger.entries, decoded)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}

	// Files written before the header line existed carry the currency only
	// on their money fields; recover it from the first trade.
	if ledger.currency == "" {
		for _, tx := range ledger.Transactions() {
			switch v := tx.(type) {
			case Buy:
				ledger.currency = v.Price.Currency()
			case Sell:
				ledger.currency = v.Price.Currency()
			}
			break
		}
	}

	// Reject histories that do not replay: a sell exceeding its holdings, or
	// a malformed action. Everything downstream assumes a valid history.
	if _, err := ledger.replay(); err != nil {
		return nil, fmt.Errorf("invalid ledger: %w", err)
	}
	return ledger, nil
}

// EncodeEntry marshals a single ledger entry to JSON and writes it to the
// writer, followed by a newline, in JSONL format.
func EncodeEntry(w io.Writer, e entry) error {
	jsonData, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %s entry: %w", e.What(), err)
	}

	if _, err := w.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("failed to write %s entry: %w", e.What(), err)
	}
	return nil
}

// EncodeLedger persists the full ledger to an io.Writer in JSONL format: a
// header line with the reporting currency, then every entry in commit order.
// The whole state is rewritten each time; there is no delta format.
func EncodeLedger(w io.Writer, ledger *Ledger) error {
	if _, err := fmt.Fprintf(w, "{%q:%q,%q:%q}\n", "command", cmdHeader, "currency", ledger.currency); err != nil {
		return fmt.Errorf("failed to write ledger header: %w", err)
	}

	for _, e := range ledger.entries {
		if err := EncodeEntry(w, e); err != nil {
			return err
		}
	}

	return nil
}
