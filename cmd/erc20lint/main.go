// =============================================================================
// erc20lint - Main Entry Point
// =============================================================================
//
// This tool turns a Solidity front end's IR snapshot into ERC20 findings,
// flagging token patterns that deserve a second look before deployment.
//
// THE PIPELINE:
//   1. A Solidity front end exports contracts as a JSON IR snapshot
//   2. CUE Validator enforces the snapshot contract (crash on drift)
//   3. Decoder builds the in-memory contract model
//   4. Registered detectors match structural patterns over function nodes
//   5. OPA evaluates the finding policy (severities, suppression)
//   6. Findings are reported per contract and function
//
// WHEN INVESTIGATING FALSE POSITIVES:
//   Start at the beginning of the pipeline, not the end!
//   Snapshot issues → Decoder issues → Detector issues → Policy issues
// =============================================================================

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/solguard/erc20lint/internal/config"
	"github.com/solguard/erc20lint/internal/detectors"
	"github.com/solguard/erc20lint/internal/facts"
	"github.com/solguard/erc20lint/internal/runner"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "init":
		runInit()
	case "detectors":
		listDetectors()
	case "facts":
		runFacts(os.Args[2:])
	case "-v", "--verbose":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		runLint(os.Args[2], true)
	case "-h", "--help", "help":
		printUsage()
	case "-c", "--config":
		if len(os.Args) < 4 {
			printUsage()
			os.Exit(1)
		}
		runLintWithConfig(os.Args[2], os.Args[3], false)
	default:
		runLint(cmd, false)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: erc20lint [command] [options] <path>

Commands:
  init              Create an erc20lint.json configuration file
  detectors         List the registered detectors
  facts             Export fact tables as JSON; see 'erc20lint facts -h'
  <path>            Analyze a snapshot file or a directory of snapshots

Options:
  -v, --verbose     Enable verbose output
  -c, --config      Specify config file: erc20lint -c config.json <path>
  -h, --help        Show this help message

Configuration:
  erc20lint looks for configuration in:
    1. ./erc20lint.json
    2. ./.erc20lint.json
    3. ./erc20lint.yaml
    4. ~/.config/erc20lint/config.json

  Run 'erc20lint init' to create a default configuration file.`)
}

func runInit() {
	configPath := "erc20lint.json"

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - Detector severities (off, info, warning, error)")
	fmt.Println("  - Snapshot ignore patterns")
	fmt.Println("  - A custom policy directory")
}

// runFacts exports the relational fact tables for a snapshot path, for
// downstream tooling and for diffing successive front-end exports.
func runFacts(args []string) {
	fs := flag.NewFlagSet("facts", flag.ExitOnError)
	output := fs.String("output", "", "write facts JSON to file (default: stdout)")
	fs.StringVar(output, "o", "", "write facts JSON to file (shorthand)")
	deltaFrom := fs.String("delta-from", "", "previous facts JSON to compute delta from")
	deltaOut := fs.String("delta-out", "", "write delta JSON to file (requires --delta-from)")
	contracts := fs.String("contracts", "", "comma-separated contract names to restrict the tables to")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: erc20lint facts [--output file] [--contracts A,B] [--delta-from prev.json --delta-out delta.json] <path>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	r := runner.NewWithConfig(cfg)
	tables, err := r.Facts(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *contracts != "" {
		names := map[string]bool{}
		for _, name := range strings.Split(*contracts, ",") {
			names[strings.TrimSpace(name)] = true
		}
		tables = facts.FilterTablesByContracts(tables, names)
	}

	if *output != "" {
		if err := writeJSON(*output, tables); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing facts: %v\n", err)
			os.Exit(1)
		}
	} else {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tables); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding facts: %v\n", err)
			os.Exit(1)
		}
	}

	if *deltaFrom != "" || *deltaOut != "" {
		if *deltaFrom == "" || *deltaOut == "" {
			fmt.Fprintln(os.Stderr, "Error: --delta-from and --delta-out must be used together")
			os.Exit(1)
		}
		prev, err := readTables(*deltaFrom)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading delta-from: %v\n", err)
			os.Exit(1)
		}
		delta := facts.ComputeDelta(prev, tables)
		if err := writeJSON(*deltaOut, delta); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing delta: %v\n", err)
			os.Exit(1)
		}
	}
}

func readTables(path string) (facts.Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return facts.Tables{}, err
	}
	defer func() { _ = f.Close() }()

	var tables facts.Tables
	if err := json.NewDecoder(f).Decode(&tables); err != nil {
		return facts.Tables{}, err
	}
	return tables, nil
}

func writeJSON(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func listDetectors() {
	for _, d := range detectors.All() {
		fmt.Printf("%s (%s impact, %s confidence)\n", d.Argument(), d.Impact(), d.Confidence())
		fmt.Printf("  %s\n", d.Description())
		fmt.Printf("  Recommendation: %s\n", d.Recommendation())
	}
}

func runLint(path string, verbose bool) {
	// Load config from default locations
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Warning: Could not load config: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	run(cfg, path, verbose)
}

func runLintWithConfig(configPath, lintPath string, verbose bool) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", configPath, err)
		os.Exit(1)
	}

	run(cfg, lintPath, verbose)
}

func run(cfg *config.Config, path string, verbose bool) {
	r := runner.NewWithConfig(cfg)
	r.Verbose = verbose

	result, err := r.Run(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result.Print(os.Stdout)
	if result.Summary.Errors > 0 {
		os.Exit(1)
	}
}
