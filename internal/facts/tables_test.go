package facts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/solguard/erc20lint/internal/detectors"
	"github.com/solguard/erc20lint/internal/ir"
)

func sampleContracts() []*ir.Contract {
	return []*ir.Contract{
		{
			Name:    "Zed",
			IsToken: false,
		},
		{
			Name:    "Alpha",
			Address: common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
			IsToken: true,
			StateVariables: []*ir.Variable{
				{Name: "balanceOf", Type: ir.Type{Name: "mapping(address => uint256)"}, IsState: true},
			},
			Functions: []*ir.Function{
				{
					Name:      "transfer",
					Signature: "transfer(address,uint256)",
					Modifiers: []ir.Modifier{{Name: "whenNotPaused"}},
					Nodes:     []ir.Node{{Type: ir.NodeEntry}},
				},
			},
		},
	}
}

func TestBuildTables(t *testing.T) {
	tables := BuildTables(sampleContracts())

	if len(tables.Contracts) != 2 {
		t.Fatalf("expected 2 contract rows, got %d", len(tables.Contracts))
	}
	// Contract rows come out sorted by name.
	if tables.Contracts[0].Name != "Alpha" || tables.Contracts[1].Name != "Zed" {
		t.Fatalf("contract rows not sorted: %+v", tables.Contracts)
	}
	if !tables.Contracts[0].IsToken || tables.Contracts[0].Address == "" {
		t.Fatalf("token flag or address lost: %+v", tables.Contracts[0])
	}
	if tables.Contracts[1].Address != "" {
		t.Fatalf("address-less contract must produce an empty address column")
	}

	if len(tables.Functions) != 1 {
		t.Fatalf("expected 1 function row, got %d", len(tables.Functions))
	}
	fn := tables.Functions[0]
	if fn.Selector != "0xa9059cbb" {
		t.Fatalf("expected transfer selector 0xa9059cbb, got %s", fn.Selector)
	}
	if fn.Nodes != 1 {
		t.Fatalf("expected node count 1, got %d", fn.Nodes)
	}

	if len(tables.Modifiers) != 1 || tables.Modifiers[0].Name != "whenNotPaused" {
		t.Fatalf("modifier rows wrong: %+v", tables.Modifiers)
	}
	if len(tables.StateVariables) != 1 || tables.StateVariables[0].Type != "mapping(address => uint256)" {
		t.Fatalf("state variable rows wrong: %+v", tables.StateVariables)
	}
	if len(tables.Findings) != 0 {
		t.Fatalf("findings must start empty")
	}
}

func TestBuildTablesEmptySet(t *testing.T) {
	tables := BuildTables(nil)

	// Empty relations, not nil: the policy engine expects arrays.
	if tables.Contracts == nil || tables.Findings == nil {
		t.Fatalf("tables must marshal as empty arrays, got %+v", tables)
	}
	if len(tables.Contracts) != 0 {
		t.Fatalf("expected no rows, got %+v", tables.Contracts)
	}
}

func TestAppendFindings(t *testing.T) {
	d := detectors.ByArgument("erc20-transfer-limit")
	if d == nil {
		t.Fatalf("transfer-limit detector not registered")
	}

	tables := BuildTables(nil)
	tables = AppendFindings(tables, d, []detectors.Finding{
		{Contract: "Alpha", Function: "transfer", Message: "caps transfers", Limit: big.NewInt(100)},
		{Contract: "Alpha", Function: "transferFrom", Message: "caps transfers"},
	})

	if len(tables.Findings) != 2 {
		t.Fatalf("expected 2 finding rows, got %d", len(tables.Findings))
	}
	if tables.Findings[0].Detector != "erc20-transfer-limit" {
		t.Fatalf("detector column wrong: %+v", tables.Findings[0])
	}
	if tables.Findings[0].Limit != "100" {
		t.Fatalf("limit column wrong: %+v", tables.Findings[0])
	}
	if tables.Findings[1].Limit != "" {
		t.Fatalf("limit-less finding must produce an empty limit column")
	}
	if tables.Findings[0].Impact != "informational" {
		t.Fatalf("impact column wrong: %+v", tables.Findings[0])
	}
}
