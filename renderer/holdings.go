package renderer

import (
	"bytes"
	"fmt"

	"github.com/psxtools/cgt"
	md "github.com/nao1215/markdown"
)

// HoldingsMarkdown renders the open positions, one table row per symbol,
// with an optional per-lot breakdown.
func HoldingsMarkdown(holdings []cgt.Holding, showLots bool) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Holdings")

	if len(holdings) == 0 {
		doc.PlainText("No open positions.")
		doc.Build()
		return buf.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Security", "Quantity", "Avg Cost", "Cost Basis"},
	}
	for _, h := range holdings {
		table.Rows = append(table.Rows, []string{
			h.Security,
			h.Quantity.String(),
			h.AverageCost.String(),
			h.CostBasis.String(),
		})
	}
	doc.Table(table)

	if showLots {
		for _, h := range holdings {
			doc.H2(h.Security)
			lotTable := md.TableSet{
				Alignment: []md.TableAlignment{
					md.AlignLeft,
					md.AlignRight,
					md.AlignRight,
					md.AlignLeft,
				},
				Header: []string{"Acquired", "Remaining", "Unit Cost", "Origin"},
			}
			for _, l := range h.Lots {
				lotTable.Rows = append(lotTable.Rows, []string{
					l.AcquisitionDate.String(),
					l.Remaining.String(),
					l.UnitCost.String(),
					string(l.Origin),
				})
			}
			doc.Table(lotTable)
		}
	}

	doc.Build()
	return buf.String()
}

// ActionsMarkdown renders the corporate action audit log, reversed records
// included.
func ActionsMarkdown(actions []*cgt.CorporateAction) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Corporate Actions")

	if len(actions) == 0 {
		doc.PlainText("No corporate actions recorded.")
		doc.Build()
		return buf.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"Security", "Kind", "Ex-Date", "Ratio", "Shares", "Status"},
	}
	for _, a := range actions {
		status := fmt.Sprintf("applied %s", a.AppliedDate)
		if !a.Active {
			status = fmt.Sprintf("reversed %s", a.ReversedDate)
		}
		ratio := a.RatioText
		if a.Kind == cgt.RightsIssue {
			ratio = fmt.Sprintf("%s @ %s", a.RatioText, a.IssuePrice)
		}
		table.Rows = append(table.Rows, []string{
			a.Security,
			a.Kind.String(),
			a.ExDate.String(),
			ratio,
			a.SharesAdded.String(),
			status,
		})
	}
	doc.Table(table)

	doc.Build()
	return buf.String()
}
