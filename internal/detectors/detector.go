package detectors

import (
	"math/big"

	"github.com/solguard/erc20lint/internal/ir"
)

// Impact classifies how severe a matched pattern is on its own.
type Impact string

// Confidence classifies how likely a match is a true positive.
type Confidence string

const (
	ImpactInformational Impact = "informational"
	ImpactLow           Impact = "low"
	ImpactMedium        Impact = "medium"
	ImpactHigh          Impact = "high"

	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Detector is one heuristic check over the front end's contract set.
// Argument is the short flag-style name the CLI and config use; the title,
// description and recommendation feed the documentation generator.
// Detect reads the immutable snapshot and returns findings; it never
// errors — data that doesn't match a pattern simply produces nothing.
type Detector interface {
	Argument() string
	Title() string
	Description() string
	Recommendation() string
	Impact() Impact
	Confidence() Confidence
	Detect(contracts []*ir.Contract) []Finding
}

// Finding names one (contract, function) pair a detector flagged.
// Limit is only set by checks that extract a numeric bound.
type Finding struct {
	Contract string   `json:"contract"`
	Function string   `json:"function"`
	Message  string   `json:"message"`
	Limit    *big.Int `json:"limit,omitempty"`
}

var registry []Detector

// Register adds a detector to the global registry. Called from init, so
// registration order follows file order and stays deterministic.
func Register(d Detector) {
	registry = append(registry, d)
}

// All returns the registered detectors in registration order.
func All() []Detector {
	out := make([]Detector, len(registry))
	copy(out, registry)
	return out
}

// ByArgument returns the registered detector with the given argument
// name, or nil.
func ByArgument(arg string) Detector {
	for _, d := range registry {
		if d.Argument() == arg {
			return d
		}
	}
	return nil
}
