// Package model holds the shared data types produced by the srslint checks:
// violations, scan anomalies, file roles, and the canonical requirement map.
package model

import "sort"

// Kind identifies the class of a violation.
type Kind string

const (
	MissingArrange         Kind = "missing-arrange"
	MissingAct             Kind = "missing-act"
	MissingAssert          Kind = "missing-assert"
	WrongOrder             Kind = "wrong-order"
	MissingTag             Kind = "missing-tag"
	TextDrift              Kind = "text-drift"
	WrongPrefixForFileRole Kind = "wrong-prefix-for-file-role"
	DuplicateIDConflict    Kind = "duplicate-id-conflict"
	DeprecatedPattern      Kind = "deprecated-pattern"
)

// Violation is one finding, positioned for CI reporting.
// Line and Col are 1-based.
type Violation struct {
	File    string
	Line    int
	Col     int
	Kind    Kind
	Message string
}

// Anomaly records malformed input the scanner recovered from (unterminated
// string, comment, or brace at EOF). Anomalies are reported alongside
// violations but never make a run fail.
type Anomaly struct {
	File    string
	Line    int
	Col     int
	Message string
}

// Role tells a check which tag prefix family a file must use.
type Role int

const (
	RoleProduction Role = iota
	RoleTest
)

func (r Role) String() string {
	if r == RoleTest {
		return "test"
	}
	return "production"
}

// CanonicalRequirement is one entry of the externally supplied source of
// truth: the requirement id (without prefix family, e.g. "SRS_MODULE_01_001")
// and its canonical text.
type CanonicalRequirement struct {
	ID   string
	Text string
}

// CanonicalMap indexes canonical requirements by id. It is the only resource
// shared across parallel file scans and is read-only once built.
type CanonicalMap map[string]CanonicalRequirement

// SortViolations orders violations by (file, line, col, kind) for stable output.
func SortViolations(vs []Violation) {
	sort.Slice(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return a.Kind < b.Kind
	})
}
