package facts

import "testing"

func TestComputeDeltaAddsAndRemoves(t *testing.T) {
	prev := Tables{
		Contracts: []ContractRow{
			{Name: "Alpha", IsToken: true},
		},
		Findings: []FindingRow{
			{Detector: "erc20-transfer-limit", Contract: "Alpha", Function: "transfer", Limit: "100"},
		},
	}
	next := Tables{
		Contracts: []ContractRow{
			{Name: "Beta", IsToken: true},
		},
		Findings: []FindingRow{
			{Detector: "erc20-transfer-limit", Contract: "Beta", Function: "transfer", Limit: "250"},
		},
	}

	delta := ComputeDelta(prev, next)

	if len(delta.Added.Contracts) != 1 || delta.Added.Contracts[0].Name != "Beta" {
		t.Fatalf("expected contract Beta added, got %+v", delta.Added.Contracts)
	}
	if len(delta.Removed.Contracts) != 1 || delta.Removed.Contracts[0].Name != "Alpha" {
		t.Fatalf("expected contract Alpha removed, got %+v", delta.Removed.Contracts)
	}
	if len(delta.Added.Findings) != 1 || delta.Added.Findings[0].Limit != "250" {
		t.Fatalf("expected finding added, got %+v", delta.Added.Findings)
	}
	if len(delta.Removed.Findings) != 1 || delta.Removed.Findings[0].Limit != "100" {
		t.Fatalf("expected finding removed, got %+v", delta.Removed.Findings)
	}
}

func TestComputeDeltaUnchangedSnapshot(t *testing.T) {
	tables := twoContractTables()

	delta := ComputeDelta(tables, tables)

	if len(delta.Added.Contracts) != 0 || len(delta.Removed.Contracts) != 0 {
		t.Fatalf("identical snapshots must produce an empty delta, got %+v", delta)
	}
}
