package policy

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-policy-agent/opa/rego"

	"github.com/solguard/erc20lint/internal/facts"
)

//go:embed rules/default.rego
var defaultRulesFS embed.FS

// Engine evaluates OPA policies over fact tables and raw detector
// findings. Policies assign severities and can suppress findings; the
// default bundled policy passes everything through at the detector's
// configured severity.
type Engine struct {
	queries map[string]rego.PreparedEvalQuery
}

// Finding is a policy-evaluated finding with its final severity.
type Finding struct {
	Detector string `json:"detector"`
	Contract string `json:"contract"`
	Function string `json:"function"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Limit    string `json:"limit,omitempty"`
}

// Result contains the evaluation results.
type Result struct {
	Findings []Finding
	Summary  Summary
}

// Summary provides aggregate counts.
type Summary struct {
	TotalFindings int `json:"total_findings"`
	Errors        int `json:"errors"`
	Warnings      int `json:"warnings"`
	Info          int `json:"info"`
}

// Input is the data structure passed to OPA.
type Input struct {
	Facts      facts.Tables      `json:"facts"`
	Severities map[string]string `json:"severities"`
}

// New creates a policy engine. With an empty policyDir the embedded
// default rules are used; otherwise every .rego file in the directory is
// loaded.
func New(policyDir string) (*Engine, error) {
	modules, err := loadModules(policyDir)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		queries: make(map[string]rego.PreparedEvalQuery),
	}

	opts := append(modules, rego.Query("data.erc20.compliance.all_findings"))
	query, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preparing findings query: %w", err)
	}
	engine.queries["findings"] = query

	opts = append(modules, rego.Query("data.erc20.compliance.summary"))
	query, err = rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preparing summary query: %w", err)
	}
	engine.queries["summary"] = query

	return engine, nil
}

func loadModules(policyDir string) ([]func(*rego.Rego), error) {
	if policyDir == "" {
		content, err := defaultRulesFS.ReadFile("rules/default.rego")
		if err != nil {
			return nil, fmt.Errorf("loading embedded policy: %w", err)
		}
		return []func(*rego.Rego){rego.Module("default.rego", string(content))}, nil
	}

	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, fmt.Errorf("finding policy files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no policy files found in %s", policyDir)
	}

	var modules []func(*rego.Rego)
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		modules = append(modules, rego.Module(f, string(content)))
	}
	return modules, nil
}

// Evaluate runs the policies against the input data.
func (e *Engine) Evaluate(input Input) (*Result, error) {
	ctx := context.Background()

	inputMap, err := structToMap(input)
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	result := &Result{}

	rs, err := e.queries["findings"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating findings: %w", err)
	}

	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		findings, ok := rs[0].Expressions[0].Value.([]interface{})
		if ok {
			for _, f := range findings {
				fmap, ok := f.(map[string]interface{})
				if !ok {
					continue
				}
				result.Findings = append(result.Findings, Finding{
					Detector: getString(fmap, "detector"),
					Contract: getString(fmap, "contract"),
					Function: getString(fmap, "function"),
					Message:  getString(fmap, "message"),
					Severity: getString(fmap, "severity"),
					Limit:    getString(fmap, "limit"),
				})
			}
		}
	}

	// Set iteration order is not contractual; sort for stable output.
	sort.Slice(result.Findings, func(i, j int) bool {
		a, b := result.Findings[i], result.Findings[j]
		if a.Detector != b.Detector {
			return a.Detector < b.Detector
		}
		if a.Contract != b.Contract {
			return a.Contract < b.Contract
		}
		return a.Function < b.Function
	})

	rs, err = e.queries["summary"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating summary: %w", err)
	}

	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		smap, ok := rs[0].Expressions[0].Value.(map[string]interface{})
		if ok {
			result.Summary = Summary{
				TotalFindings: getInt(smap, "total_findings"),
				Errors:        getInt(smap, "errors"),
				Warnings:      getInt(smap, "warnings"),
				Info:          getInt(smap, "info"),
			}
		}
	}

	return result, nil
}

func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case json.Number:
			i, _ := n.Int64()
			return int(i)
		}
	}
	return 0
}
