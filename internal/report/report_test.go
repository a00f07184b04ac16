package report_test

import (
	"errors"
	"strings"
	"testing"

	"srslint/internal/model"
	"srslint/internal/report"
	"srslint/internal/runner"
)

func TestGenerateListing(t *testing.T) {
	sum := &runner.Summary{Files: []runner.FileResult{
		{
			Path: "src/mod.c",
			Violations: []model.Violation{
				{File: "src/mod.c", Line: 3, Col: 1, Kind: model.TextDrift, Message: "tag SRS_MOD_01_001 text differs from canonical"},
			},
			Anomalies: []model.Anomaly{
				{File: "src/mod.c", Line: 9, Col: 1, Message: "unterminated block comment"},
			},
		},
		{Path: "src/other.c", Err: errors.New("read failed")},
	}}

	out := report.Generate(sum, report.Options{})
	for _, want := range []string{
		"src/mod.c:3:1: text-drift: tag SRS_MOD_01_001 text differs from canonical",
		"src/mod.c:9:1: anomaly: unterminated block comment",
		"src/other.c: analysis failed: read failed",
		"2 file(s) scanned, 1 violation(s), 1 analysis failure(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateDiffs(t *testing.T) {
	sum := &runner.Summary{Files: []runner.FileResult{
		{
			Path:  "mod.c",
			Src:   []byte("// Codes_SRS_M_01_001: [ wrong ]\n"),
			Fixed: []byte("// Codes_SRS_M_01_001: [ right ]\n"),
		},
	}}

	out := report.Generate(sum, report.Options{Diffs: true})
	if !strings.Contains(out, "-// Codes_SRS_M_01_001: [ wrong ]") {
		t.Errorf("diff missing removed line:\n%s", out)
	}
	if !strings.Contains(out, "+// Codes_SRS_M_01_001: [ right ]") {
		t.Errorf("diff missing added line:\n%s", out)
	}

	plain := report.Generate(sum, report.Options{})
	if strings.Contains(plain, "+// Codes_SRS_M_01_001") {
		t.Error("diff rendered without Diffs option")
	}
}
