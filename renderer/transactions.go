package renderer

import (
	"fmt"
	"strings"

	"github.com/psxtools/cgt"
)

// TransactionsMarkdown renders trade transactions in commit order.
func TransactionsMarkdown(transactions []cgt.Transaction) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Transactions\n\n")

	if len(transactions) == 0 {
		fmt.Fprintln(&b, "No transactions recorded.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Date | Type | Security | Quantity | Price | Settles | Memo |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|:---|:---|")
	for _, tx := range transactions {
		switch v := tx.(type) {
		case cgt.Buy:
			fmt.Fprintf(&b, "| %s | buy | %s | %s | %s | %s | %s |\n",
				v.Date, v.Security, v.Quantity, v.Price, v.Settlement(), v.Memo)
		case cgt.Sell:
			fmt.Fprintf(&b, "| %s | sell | %s | %s | %s | %s | %s |\n",
				v.Date, v.Security, v.Quantity, v.Price, v.Settlement(), v.Memo)
		}
	}

	return b.String()
}
