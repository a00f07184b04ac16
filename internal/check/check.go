// Package check defines the interface every srslint check implements and the
// registry the runner iterates. A check sees one parsed file at a time and
// reports violations; checks that can repair what they find also return a
// corrected buffer.
package check

import (
	"srslint/internal/aaa"
	"srslint/internal/cfunc"
	"srslint/internal/model"
	"srslint/internal/patterns"
	"srslint/internal/reconcile"
	"srslint/internal/srstag"
)

// Input is the per-file context handed to a check. File, Tags, and Role are
// derived from the same buffer; Canon is shared and read-only.
type Input struct {
	Path  string
	File  *cfunc.File
	Tags  []srstag.Tag
	Canon model.CanonicalMap
	Role  model.Role
}

// Output is what one check produced for one file. Fixed, when non-nil, is the
// complete corrected buffer; the runner re-parses it before the next check.
type Output struct {
	Violations []model.Violation
	Notes      []string
	Fixed      []byte
}

// Check is the interface every srslint check implements.
type Check interface {
	// Name returns the check's canonical short identifier (e.g. "srs").
	Name() string

	// Run inspects one file and reports findings.
	Run(in Input) Output
}

// Registry returns all checks in execution order. Repairing checks run
// before purely diagnostic ones so a diagnostic never sees a stale buffer.
func Registry() []Check {
	return []Check{srsCheck{}, patternsCheck{}, aaaCheck{}}
}

// ---------------------------------------------------------------------------
// srs: requirement tag reconciliation and placement
// ---------------------------------------------------------------------------

type srsCheck struct{}

func (srsCheck) Name() string { return "srs" }

func (srsCheck) Run(in Input) Output {
	res := reconcile.Reconcile(in.Path, in.File, in.Tags, in.Canon, in.Role)
	return Output{Violations: res.Violations, Notes: res.Notes, Fixed: res.Fixed}
}

// ---------------------------------------------------------------------------
// patterns: deprecated construct detection
// ---------------------------------------------------------------------------

type patternsCheck struct{}

func (patternsCheck) Name() string { return "patterns" }

func (patternsCheck) Run(in Input) Output {
	res := patterns.Check(in.Path, in.File)
	return Output{Violations: res.Violations, Fixed: res.Fixed}
}

// ---------------------------------------------------------------------------
// aaa: arrange/act/assert marker validation (test files only)
// ---------------------------------------------------------------------------

type aaaCheck struct{}

func (aaaCheck) Name() string { return "aaa" }

func (aaaCheck) Run(in Input) Output {
	if in.Role != model.RoleTest {
		return Output{}
	}
	return Output{Violations: aaa.Validate(in.Path, in.File)}
}
