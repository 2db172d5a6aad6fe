package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/psxtools/cgt"
	"github.com/psxtools/cgt/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// newFacilitator creates the expert in charge of the conversation.
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is here primarily to understand his stock positions, his realized capital gains,
			and the tax due on them. Devise a plan of questions to ask the experts and come up with
			the best response to the user's request.

			The user will assume that you know about his security tickers, check the ledger first to
			understand what they are.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewAccountant creates the expert that reads the user's ledger. It answers
// with read-only ledger functions; it never mutates the ledger.
func NewAccountant(ledgerFile string, engine *cgt.TaxEngine) *Expert {
	a := &accountant{ledgerFile: ledgerFile, engine: engine}
	lib := []Function{a.holdingsFunc(), a.gainsFunc(), a.opportunitiesFunc()}

	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. He is in charge of reading the user's capital gains ledger.
		He can report the open positions with their FIFO lots, the realized gains with the tax due on
		each sale, and the lots whose tax rate drops by deferring their sale.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an accountant in charge of the user's capital gains ledger.
				You know how to use the Tools to extract relevant information about the user's
				positions and taxes. You are part of a team of experts; yours is everything about
				the ledger. Pardon their approximative language and figure out what they meant.

				Use the available tools to get information about the user's ledger
				  - open positions and their FIFO lots
				  - realized gains and the tax due per sale
				  - tax-saving opportunities from deferring sales
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// accountant holds what the ledger functions need.
type accountant struct {
	ledgerFile string
	engine     *cgt.TaxEngine
}

// decode opens the ledger file. A missing file is an empty ledger.
func (a *accountant) decode() (*cgt.Ledger, error) {
	f, err := os.Open(a.ledgerFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cgt.NewLedger(""), nil
		}
		return nil, fmt.Errorf("could not open ledger file %q: %w", a.ledgerFile, err)
	}
	defer f.Close()

	ledger, err := cgt.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode ledger file %q: %w", a.ledgerFile, err)
	}
	return ledger, nil
}

// respond wraps a markdown answer or an error into a function response.
func respond(id, name, output string, err error) *genai.FunctionResponse {
	fresp := &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{}}
	if err != nil {
		fresp.Response["error"] = err.Error()
		return fresp
	}
	fresp.Response["output"] = output
	return fresp
}

func (a *accountant) holdingsFunc() Function {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "Holdings",
			Description: `Holdings lists the user's open positions with quantity, average cost, cost basis and the per-lot FIFO breakdown.`,
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted table of open positions and their lots.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			ledger, err := a.decode()
			if err != nil {
				return respond(id, "Holdings", "", err)
			}
			return respond(id, "Holdings", renderer.HoldingsMarkdown(ledger.Holdings(), true), nil)
		},
	}
}

func (a *accountant) gainsFunc() Function {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Gains",
			Description: `Gains lists the realized capital gains of a tax year with the tax due on each sale.
			The tax year runs from July 1st to June 30th.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"date": {
						Type:        genai.TypeString,
						Description: "Any date inside the tax year to report, format YYYY-MM-DD. Today is the default.",
					},
				},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted table of realized gains, taxes and net profits.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			day, err := parseDate(args)
			if err != nil {
				return respond(id, "Gains", "", err)
			}
			ledger, err := a.decode()
			if err != nil {
				return respond(id, "Gains", "", err)
			}
			period := cgt.TaxYear(day)
			return respond(id, "Gains", renderer.GainsMarkdown(ledger.RealizedGains(period), a.engine, period), nil)
		},
	}
}

func (a *accountant) opportunitiesFunc() Function {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Opportunities",
			Description: `Opportunities ranks the open lots whose tax rate drops if their sale is deferred
			past the next holding-period milestone, using each lot's own cost as the assumed price.`,
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted ranking of tax-saving deferrals.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			ledger, err := a.decode()
			if err != nil {
				return respond(id, "Opportunities", "", err)
			}
			// Without live market data, value each position at twice its
			// average cost so every gaining bucket shows up in the ranking.
			prices := make(map[string]cgt.Money)
			for _, h := range ledger.Holdings() {
				prices[h.Security] = h.AverageCost.Add(h.AverageCost)
			}
			asOf := cgt.Today()
			scenario := cgt.NewScenario(ledger, a.engine)
			return respond(id, "Opportunities", renderer.OpportunitiesMarkdown(scenario.Opportunities(prices, asOf), asOf), nil)
		},
	}
}

// Func implements a simple Function.
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

func parseDate(args map[string]any) (cgt.Date, error) {
	idate, hasDate := args["date"]
	if !hasDate {
		return cgt.Today(), nil
	}
	sdate, ok := idate.(string)
	if !ok {
		return cgt.Today(), fmt.Errorf("argument 'date' is not a string as expected but %T", idate)
	}

	date, err := cgt.ParseDate(sdate)
	if err != nil {
		return cgt.Today(), fmt.Errorf("argument 'date' must be a valid date, got %q", sdate)
	}
	return date, nil
}
