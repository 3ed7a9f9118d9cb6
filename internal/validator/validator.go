package validator

// =============================================================================
// VALIDATOR PHILOSOPHY: CRASH EARLY, CRASH LOUD
// =============================================================================
//
// The CUE validator is the contract guard between the front end's snapshot
// export and everything downstream of it.
//
// Without validation, a renamed field or wrong type in the export means:
// - The decoder silently fills zero values
// - Detectors see empty node lists
// - You think the contracts are clean
//
// With validation there is an immediate crash with a precise error
// ("field 'signature' not allowed" names exactly what drifted). When it
// fails, fix the export or the schema — never suppress the error.
// =============================================================================

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed snapshot_schema.cue
var snapshotSchemaFS embed.FS

//go:embed facts_schema.cue
var factsSchemaFS embed.FS

// SnapshotValidator validates raw snapshot JSON before decoding.
type SnapshotValidator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New creates a SnapshotValidator with the embedded CUE schema.
func New() (*SnapshotValidator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := snapshotSchemaFS.ReadFile("snapshot_schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &SnapshotValidator{
		ctx:    ctx,
		schema: schema,
	}, nil
}

// ValidateJSON checks snapshot JSON against the #Snapshot definition.
// Returns nil if valid, or a detailed error explaining what failed.
func (v *SnapshotValidator) ValidateJSON(jsonBytes []byte) error {
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("compiling snapshot as CUE: %w", dataValue.Err())
	}

	snapshotDef := v.schema.LookupPath(cue.ParsePath("#Snapshot"))
	if snapshotDef.Err() != nil {
		return fmt.Errorf("looking up #Snapshot definition: %w", snapshotDef.Err())
	}

	unified := snapshotDef.Unify(dataValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("snapshot schema validation failed: %w", err)
	}

	return nil
}

// ValidationErrors returns every individual schema violation for snapshot
// JSON, for error reports that name all drifted fields at once.
func (v *SnapshotValidator) ValidationErrors(jsonBytes []byte) []string {
	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return []string{fmt.Sprintf("compile error: %v", dataValue.Err())}
	}

	snapshotDef := v.schema.LookupPath(cue.ParsePath("#Snapshot"))
	if snapshotDef.Err() != nil {
		return []string{fmt.Sprintf("schema lookup error: %v", snapshotDef.Err())}
	}

	unified := snapshotDef.Unify(dataValue)
	err := unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}

// FactsValidator validates relational fact tables against the facts
// schema.
type FactsValidator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewFactsValidator creates a validator for relational fact tables.
func NewFactsValidator() (*FactsValidator, error) {
	ctx := cuecontext.New()

	schemaBytes, err := factsSchemaFS.ReadFile("facts_schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading facts schema: %w", err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling facts schema: %w", schema.Err())
	}

	return &FactsValidator{
		ctx:    ctx,
		schema: schema,
	}, nil
}

// Validate checks that the fact tables conform to the facts schema.
func (v *FactsValidator) Validate(data interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling facts to JSON: %w", err)
	}

	dataValue := v.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("compiling facts as CUE: %w", dataValue.Err())
	}

	factsDef := v.schema.LookupPath(cue.ParsePath("#FactTables"))
	if factsDef.Err() != nil {
		return fmt.Errorf("looking up #FactTables definition: %w", factsDef.Err())
	}

	unified := factsDef.Unify(dataValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("facts schema validation failed: %w", err)
	}

	return nil
}
