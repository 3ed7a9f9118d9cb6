package runner

// =============================================================================
// RUNNER PHILOSOPHY: TRUST THE SNAPSHOT, VALIDATE WITH CUE
// =============================================================================
//
// The runner sits between the front end's snapshot export and the report.
// Its job is to:
// 1. Collect and schema-validate snapshot files
// 2. Decode them into the IR contract set
// 3. Run every registered detector over the set
// 4. Hand fact tables plus raw findings to the OPA finding policy
//
// The runner should NOT work around export bugs. If it needs to "fix"
// decoded data, the front end's export is broken: the CUE validator exists
// to make that failure loud instead of silent.
// =============================================================================

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/solguard/erc20lint/internal/config"
	"github.com/solguard/erc20lint/internal/detectors"
	"github.com/solguard/erc20lint/internal/facts"
	"github.com/solguard/erc20lint/internal/ir"
	"github.com/solguard/erc20lint/internal/policy"
	"github.com/solguard/erc20lint/internal/validator"
)

// Runner drives one analysis pass over a set of snapshot files.
type Runner struct {
	// Configuration loaded from erc20lint.json
	Config *config.Config

	// Verbose output
	Verbose bool
}

// LintResult is the structured result of one run.
type LintResult struct {
	// Findings after policy evaluation
	Findings []policy.Finding

	// Summary counts
	Summary policy.Summary

	// Extraction statistics
	Stats Stats
}

// Stats provides counts of analyzed elements.
type Stats struct {
	Snapshots      int
	Contracts      int
	Tokens         int
	Functions      int
	StateVariables int
}

// New creates a Runner with default configuration.
func New() *Runner {
	return NewWithConfig(config.DefaultConfig())
}

// NewWithConfig creates a Runner with the given configuration.
func NewWithConfig(cfg *config.Config) *Runner {
	return &Runner{Config: cfg}
}

// Run analyzes the snapshot file or directory at path.
func (r *Runner) Run(path string) (*LintResult, error) {
	files, contracts, err := r.loadContracts(path)
	if err != nil {
		return nil, err
	}

	tables := facts.BuildTables(contracts)

	for _, d := range detectors.All() {
		if !r.Config.IsDetectorEnabled(d.Argument()) {
			if r.Verbose {
				fmt.Printf("detector %s disabled\n", d.Argument())
			}
			continue
		}
		findings := d.Detect(contracts)
		if r.Verbose {
			fmt.Printf("detector %s: %d finding(s)\n", d.Argument(), len(findings))
		}
		tables = facts.AppendFindings(tables, d, findings)
	}

	factsValidator, err := validator.NewFactsValidator()
	if err != nil {
		return nil, fmt.Errorf("creating facts validator: %w", err)
	}
	if err := factsValidator.Validate(tables); err != nil {
		return nil, err
	}

	engine, err := policy.New(r.Config.PolicyDir)
	if err != nil {
		return nil, fmt.Errorf("creating policy engine: %w", err)
	}
	evaluated, err := engine.Evaluate(policy.Input{
		Facts:      tables,
		Severities: r.Config.Detectors,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluating finding policy: %w", err)
	}

	result := &LintResult{
		Findings: evaluated.Findings,
		Summary:  evaluated.Summary,
		Stats: Stats{
			Snapshots:      len(files),
			Contracts:      len(tables.Contracts),
			Functions:      len(tables.Functions),
			StateVariables: len(tables.StateVariables),
		},
	}
	for _, c := range tables.Contracts {
		if c.IsToken {
			result.Stats.Tokens++
		}
	}
	return result, nil
}

// Facts validates and decodes the snapshots at path and returns only the
// relational fact tables, without running detectors or the policy. This
// is the facts subcommand's export path; deltas between successive
// exports come from facts.ComputeDelta over two of these.
func (r *Runner) Facts(path string) (facts.Tables, error) {
	_, contracts, err := r.loadContracts(path)
	if err != nil {
		return facts.Tables{}, err
	}
	return facts.BuildTables(contracts), nil
}

// loadContracts collects the snapshot files at path, schema-validates
// each one and decodes them into a single contract set.
func (r *Runner) loadContracts(path string) ([]string, []*ir.Contract, error) {
	files, err := r.collectSnapshotFiles(path)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no snapshot files found at %s", path)
	}

	snapshotValidator, err := validator.New()
	if err != nil {
		return nil, nil, fmt.Errorf("creating snapshot validator: %w", err)
	}

	var contracts []*ir.Contract
	for _, file := range files {
		if r.Verbose {
			fmt.Printf("loading %s\n", file)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", file, err)
		}
		if err := snapshotValidator.ValidateJSON(data); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", file, err)
		}
		snap, err := ir.DecodeSnapshot(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", file, err)
		}
		contracts = append(contracts, snap.Contracts...)
	}
	return files, contracts, nil
}

// collectSnapshotFiles resolves path to the list of snapshot JSON files,
// honoring the config's ignore patterns. Files sort for deterministic
// output.
func (r *Runner) collectSnapshotFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(p, ".json") {
				return nil
			}
			if r.Config.ShouldIgnoreFile(p) {
				return nil
			}
			files = append(files, p)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	} else {
		if !r.Config.ShouldIgnoreFile(path) {
			files = append(files, path)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Print writes the result as text. Findings group under their severity
// marker, followed by the summary line.
func (res *LintResult) Print(w io.Writer) {
	for _, f := range res.Findings {
		limit := ""
		if f.Limit != "" {
			limit = fmt.Sprintf(" (limit %s)", f.Limit)
		}
		fmt.Fprintf(w, "%s [%s] %s.%s: %s%s\n", f.Severity, f.Detector, f.Contract, f.Function, f.Message, limit)
	}
	fmt.Fprintf(w, "%d contract(s), %d token(s), %d function(s) analyzed: %d finding(s) (%d error, %d warning, %d info)\n",
		res.Stats.Contracts, res.Stats.Tokens, res.Stats.Functions,
		res.Summary.TotalFindings, res.Summary.Errors, res.Summary.Warnings, res.Summary.Info)
}
