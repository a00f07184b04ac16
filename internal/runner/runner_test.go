package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"srslint/internal/config"
	"srslint/internal/model"
	"srslint/internal/runner"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

var canon = model.CanonicalMap{
	"SRS_MOD_01_001": {ID: "SRS_MOD_01_001", Text: "mod_create shall allocate memory."},
}

func TestRunClassifiesAndAggregates(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/mod.c": "/* Codes_SRS_MOD_01_001: [ wrong text ]*/\nvoid* p = malloc(1);\n",
		"tests/mod_ut/mod_ut.c": `/*Tests_SRS_MOD_01_001: [ mod_create shall allocate memory. ]*/
TEST_FUNCTION(mod_create_succeeds)
{
    // arrange
    int x = 0;
    // act
    x = mod_create();
}
`,
		"README.md": "not scanned\n",
	})

	sum, err := runner.Run(context.Background(), runner.Options{Root: root, Canon: canon})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sum.Files) != 2 {
		t.Fatalf("scanned %d files, want 2: %+v", len(sum.Files), sum.Files)
	}
	// Stable path order.
	if sum.Files[0].Path != "src/mod.c" || sum.Files[1].Path != "tests/mod_ut/mod_ut.c" {
		t.Errorf("order = %s, %s", sum.Files[0].Path, sum.Files[1].Path)
	}
	if sum.Files[0].Role != model.RoleProduction || sum.Files[1].Role != model.RoleTest {
		t.Errorf("roles = %v, %v", sum.Files[0].Role, sum.Files[1].Role)
	}

	vs := sum.Violations()
	kinds := map[model.Kind]int{}
	for _, v := range vs {
		kinds[v.Kind]++
	}
	if kinds[model.TextDrift] != 1 {
		t.Errorf("text-drift count = %d: %+v", kinds[model.TextDrift], vs)
	}
	if kinds[model.MissingAssert] != 1 {
		t.Errorf("missing-assert count = %d: %+v", kinds[model.MissingAssert], vs)
	}
}

func TestRunFixMode(t *testing.T) {
	root := writeTree(t, map[string]string{
		"mod.c": "/* Codes_SRS_MOD_01_001: [ wrong text ]*/\n#include \"vld.h\"\n",
	})
	sum, err := runner.Run(context.Background(), runner.Options{Root: root, Canon: canon, Fix: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	fixed := string(sum.Files[0].Fixed)
	want := "/* Codes_SRS_MOD_01_001: [ mod_create shall allocate memory. ]*/\n"
	if fixed != want {
		t.Errorf("fixed = %q, want %q", fixed, want)
	}
}

func TestRunWithoutFixLeavesBufferAlone(t *testing.T) {
	root := writeTree(t, map[string]string{
		"mod.c": "/* Codes_SRS_MOD_01_001: [ wrong text ]*/\n",
	})
	sum, err := runner.Run(context.Background(), runner.Options{Root: root, Canon: canon})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Files[0].Fixed != nil {
		t.Error("check mode must not produce a fixed buffer")
	}
	if len(sum.Files[0].Violations) == 0 {
		t.Error("drift must still be reported")
	}
}

func TestRunDenyAndHiddenDirs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"deps/vendor.c": "#include \"vld.h\"\n",
		".git/blob.c":   "not code",
		"mod.c":         "int x;\n",
	})
	cfg := config.Default()
	cfg.Deny = []string{"Read(./deps/**)"}
	sum, err := runner.Run(context.Background(), runner.Options{Root: root, Cfg: cfg, Canon: canon})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sum.Files) != 1 || sum.Files[0].Path != "mod.c" {
		t.Errorf("files = %+v, want only mod.c", sum.Files)
	}
}

func TestRunChecksFilter(t *testing.T) {
	root := writeTree(t, map[string]string{
		"mod_ut.c": "/* Codes_SRS_MOD_01_001: [ wrong text ]*/\nTEST_FUNCTION(no_markers)\n{\n    int x = 0;\n}\n",
	})
	cfg := config.Default()
	cfg.Checks = []string{"aaa"}
	sum, err := runner.Run(context.Background(), runner.Options{Root: root, Cfg: cfg, Canon: canon})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, v := range sum.Violations() {
		switch v.Kind {
		case model.MissingArrange, model.MissingAct, model.MissingAssert, model.WrongOrder:
		default:
			t.Errorf("unexpected violation kind %s with only aaa enabled", v.Kind)
		}
	}
}

func TestRunRecordsAnomalies(t *testing.T) {
	root := writeTree(t, map[string]string{
		"mod.c": "/* never closed\n",
	})
	sum, err := runner.Run(context.Background(), runner.Options{Root: root, Canon: canon})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sum.Files[0].Anomalies) != 1 {
		t.Errorf("anomalies = %+v, want one unterminated-comment record", sum.Files[0].Anomalies)
	}
	if sum.Files[0].Err != nil {
		t.Errorf("anomaly must not fail the file: %v", sum.Files[0].Err)
	}
}
