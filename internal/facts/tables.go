package facts

import (
	"fmt"
	"sort"

	"github.com/solguard/erc20lint/internal/detectors"
	"github.com/solguard/erc20lint/internal/ir"
)

// Tables is the relational fact model handed to the policy engine.
// Each slice is a relation (table) with flat rows.
type Tables struct {
	Contracts      []ContractRow      `json:"contracts"`
	Functions      []FunctionRow      `json:"functions"`
	Modifiers      []ModifierRow      `json:"modifiers"`
	StateVariables []StateVariableRow `json:"state_variables"`
	Findings       []FindingRow       `json:"findings"`
}

type ContractRow struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	IsToken bool   `json:"is_token"`
}

type FunctionRow struct {
	Contract  string `json:"contract"`
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Selector  string `json:"selector"`
	Nodes     int    `json:"nodes"`
}

type ModifierRow struct {
	Contract string `json:"contract"`
	Function string `json:"function"`
	Name     string `json:"name"`
}

type StateVariableRow struct {
	Contract string `json:"contract"`
	Name     string `json:"name"`
	Type     string `json:"type"`
}

type FindingRow struct {
	Detector string `json:"detector"`
	Contract string `json:"contract"`
	Function string `json:"function"`
	Message  string `json:"message"`
	Impact   string `json:"impact"`
	Limit    string `json:"limit,omitempty"`
}

// BuildTables flattens a decoded contract set into the normalized
// relational model. Findings are appended separately once detectors ran.
func BuildTables(contracts []*ir.Contract) Tables {
	tables := emptyTables()

	for _, c := range contracts {
		address := ""
		if c.HasAddress() {
			address = c.Address.Hex()
		}
		tables.Contracts = append(tables.Contracts, ContractRow{
			Name:    c.Name,
			Address: address,
			IsToken: c.IsToken,
		})

		for _, v := range c.StateVariables {
			tables.StateVariables = append(tables.StateVariables, StateVariableRow{
				Contract: c.Name,
				Name:     v.Name,
				Type:     v.Type.Name,
			})
		}

		for _, f := range c.Functions {
			tables.Functions = append(tables.Functions, FunctionRow{
				Contract:  c.Name,
				Name:      f.Name,
				Signature: f.Signature,
				Selector:  fmt.Sprintf("%#x", f.Selector()),
				Nodes:     len(f.Nodes),
			})

			for _, m := range f.Modifiers {
				tables.Modifiers = append(tables.Modifiers, ModifierRow{
					Contract: c.Name,
					Function: f.Name,
					Name:     m.Name,
				})
			}
		}
	}

	sort.Slice(tables.Contracts, func(i, j int) bool { return tables.Contracts[i].Name < tables.Contracts[j].Name })

	return tables
}

// AppendFindings converts one detector's findings to rows and appends
// them, preserving detector registration order.
func AppendFindings(tables Tables, d detectors.Detector, findings []detectors.Finding) Tables {
	for _, f := range findings {
		row := FindingRow{
			Detector: d.Argument(),
			Contract: f.Contract,
			Function: f.Function,
			Message:  f.Message,
			Impact:   string(d.Impact()),
		}
		if f.Limit != nil {
			row.Limit = f.Limit.String()
		}
		tables.Findings = append(tables.Findings, row)
	}
	return tables
}
