package policy

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/solguard/erc20lint/internal/facts"
)

func sampleInput(severities map[string]string) Input {
	return Input{
		Facts: facts.Tables{
			Contracts: []facts.ContractRow{
				{Name: "Token", IsToken: true},
			},
			Functions:      []facts.FunctionRow{},
			Modifiers:      []facts.ModifierRow{},
			StateVariables: []facts.StateVariableRow{},
			Findings: []facts.FindingRow{
				{
					Detector: "erc20-transfer-limit",
					Contract: "Token",
					Function: "transfer",
					Message:  "Token.transfer caps transfers at 100",
					Impact:   "informational",
					Limit:    "100",
				},
				{
					Detector: "erc20-change-balance",
					Contract: "Token",
					Function: "reassign",
					Message:  "Token.reassign is owner-restricted but performs a transfer and rewrites balanceOf",
					Impact:   "informational",
				},
			},
		},
		Severities: severities,
	}
}

func TestDefaultPolicyPassesFindingsThrough(t *testing.T) {
	engine, err := New("")
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	result, err := engine.Evaluate(sampleInput(nil))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if len(result.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %+v", len(result.Findings), result.Findings)
	}
	// Sorted by detector: change-balance first.
	if result.Findings[0].Detector != "erc20-change-balance" {
		t.Fatalf("expected sorted findings, got %+v", result.Findings)
	}
	if result.Findings[0].Severity != "info" || result.Findings[1].Severity != "info" {
		t.Fatalf("default severity must be info, got %+v", result.Findings)
	}
	if result.Findings[1].Limit != "100" {
		t.Fatalf("limit must survive policy evaluation, got %+v", result.Findings[1])
	}
	if result.Summary.TotalFindings != 2 || result.Summary.Info != 2 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
}

func TestSeverityOverrides(t *testing.T) {
	engine, err := New("")
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	result, err := engine.Evaluate(sampleInput(map[string]string{
		"erc20-transfer-limit": "warning",
	}))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	for _, f := range result.Findings {
		switch f.Detector {
		case "erc20-transfer-limit":
			if f.Severity != "warning" {
				t.Fatalf("expected warning severity, got %+v", f)
			}
		case "erc20-change-balance":
			if f.Severity != "info" {
				t.Fatalf("expected unchanged info severity, got %+v", f)
			}
		}
	}
	if result.Summary.Warnings != 1 || result.Summary.Info != 1 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
}

func TestOffSuppressesDetector(t *testing.T) {
	engine, err := New("")
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	result, err := engine.Evaluate(sampleInput(map[string]string{
		"erc20-change-balance": "off",
	}))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if len(result.Findings) != 1 {
		t.Fatalf("expected 1 finding after suppression, got %+v", result.Findings)
	}
	if result.Findings[0].Detector != "erc20-transfer-limit" {
		t.Fatalf("wrong detector suppressed: %+v", result.Findings)
	}
	if result.Summary.TotalFindings != 1 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
}

func TestEmptyFindingsYieldEmptyResult(t *testing.T) {
	engine, err := New("")
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	input := Input{Facts: facts.Tables{
		Contracts:      []facts.ContractRow{},
		Functions:      []facts.FunctionRow{},
		Modifiers:      []facts.ModifierRow{},
		StateVariables: []facts.StateVariableRow{},
		Findings:       []facts.FindingRow{},
	}}

	result, err := engine.Evaluate(input)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(result.Findings) != 0 || result.Summary.TotalFindings != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	engine, err := New("")
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}

	input := sampleInput(nil)
	first, err := engine.Evaluate(input)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	second, err := engine.Evaluate(input)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-evaluation changed results:\n%+v\n%+v", first, second)
	}
}

func TestPolicyDirOverride(t *testing.T) {
	dir := t.TempDir()
	custom := `package erc20.compliance

import rego.v1

all_findings contains finding if {
	some row in input.facts.findings
	row.detector == "erc20-transfer-limit"
	finding := {
		"detector": row.detector,
		"contract": row.contract,
		"function": row.function,
		"message": row.message,
		"severity": "error",
		"limit": object.get(row, "limit", ""),
	}
}

summary := {
	"total_findings": count(all_findings),
	"errors": count({f | some f in all_findings; f.severity == "error"}),
	"warnings": 0,
	"info": 0,
}
`
	if err := os.WriteFile(filepath.Join(dir, "custom.rego"), []byte(custom), 0644); err != nil {
		t.Fatalf("writing custom policy: %v", err)
	}

	engine, err := New(dir)
	if err != nil {
		t.Fatalf("creating engine with custom policy: %v", err)
	}

	result, err := engine.Evaluate(sampleInput(nil))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if len(result.Findings) != 1 || result.Findings[0].Severity != "error" {
		t.Fatalf("custom policy not applied: %+v", result.Findings)
	}
	if result.Summary.Errors != 1 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
}

func TestMissingPolicyDirFails(t *testing.T) {
	if _, err := New(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory without policies")
	}
}
