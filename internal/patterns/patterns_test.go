package patterns_test

import (
	"strings"
	"testing"

	"srslint/internal/cfunc"
	"srslint/internal/model"
	"srslint/internal/patterns"
)

func check(t *testing.T, src string) patterns.Result {
	t.Helper()
	f := cfunc.Parse([]byte(src), nil)
	return patterns.Check("sample.c", f)
}

func TestVldIncludeFlaggedAndRemoved(t *testing.T) {
	src := "#include <stdio.h>\n#include \"vld.h\"\n\nint main(void) { return 0; }\n"
	res := check(t, src)
	if len(res.Violations) != 1 || res.Violations[0].Kind != model.DeprecatedPattern {
		t.Fatalf("violations = %+v", res.Violations)
	}
	if res.Violations[0].Line != 2 {
		t.Errorf("line = %d, want 2", res.Violations[0].Line)
	}
	want := "#include <stdio.h>\n\nint main(void) { return 0; }\n"
	if string(res.Fixed) != want {
		t.Errorf("fixed = %q, want %q", res.Fixed, want)
	}
}

func TestVldAngleInclude(t *testing.T) {
	res := check(t, "#ifdef USE_VLD\n#include <vld.h>\n#endif\n")
	if len(res.Violations) != 1 {
		t.Errorf("violations = %+v", res.Violations)
	}
	// The surrounding ifdef stays; only the include line goes.
	if string(res.Fixed) != "#ifdef USE_VLD\n#endif\n" {
		t.Errorf("fixed = %q", res.Fixed)
	}
}

func TestVldForceSuppression(t *testing.T) {
	for _, marker := range []string{"// force", "// FORCE", "/* force */"} {
		res := check(t, "#include \"vld.h\"  "+marker+"\n")
		if len(res.Violations) != 0 {
			t.Errorf("%s: violations = %+v", marker, res.Violations)
		}
		if res.Fixed != nil {
			t.Errorf("%s: forced line must not be rewritten", marker)
		}
	}
}

func TestVldInCommentIgnored(t *testing.T) {
	src := "// #include \"vld.h\"\n/*\n#include \"vld.h\"\n*/\nconst char* s = \"#include \\\"vld.h\\\"\";\n"
	res := check(t, src)
	if len(res.Violations) != 0 {
		t.Errorf("violations = %+v", res.Violations)
	}
}

func TestEnableMocksRewritten(t *testing.T) {
	src := `#include "some_header.h"

#define ENABLE_MOCKS
#include "c_pal/gballoc_hl.h"
#undef ENABLE_MOCKS

#include "my_module.h"
`
	res := check(t, src)
	if len(res.Violations) != 2 {
		t.Fatalf("violations = %+v, want 2", res.Violations)
	}
	want := `#include "some_header.h"

#include "umock_c/umock_c_ENABLE_MOCKS.h" // ============================== ENABLE_MOCKS
#include "c_pal/gballoc_hl.h"
#include "umock_c/umock_c_DISABLE_MOCKS.h" // ============================== DISABLE_MOCKS

#include "my_module.h"
`
	if string(res.Fixed) != want {
		t.Errorf("fixed =\n%s\nwant\n%s", res.Fixed, want)
	}
}

func TestEnableMocksMixedForce(t *testing.T) {
	src := `#define ENABLE_MOCKS
#include "c_util/rc_string.h"
#undef ENABLE_MOCKS

#define ENABLE_MOCKS  // force
#include "azure_c_shared_utility/map.h"
#undef ENABLE_MOCKS  // force
`
	res := check(t, src)
	if len(res.Violations) != 2 {
		t.Fatalf("violations = %+v, want 2 (forced pair ignored)", res.Violations)
	}
	fixed := string(res.Fixed)
	if !strings.Contains(fixed, "#define ENABLE_MOCKS  // force") {
		t.Error("forced define was rewritten")
	}
	if !strings.Contains(fixed, `#include "umock_c/umock_c_ENABLE_MOCKS.h"`) {
		t.Error("unforced define was not rewritten")
	}
}

func TestEnableMocksIdentifierPrefixIgnored(t *testing.T) {
	res := check(t, "#define ENABLE_MOCKS_EXTRA 1\n#undef ENABLE_MOCKS_EXTRA\n")
	if len(res.Violations) != 0 {
		t.Errorf("violations = %+v", res.Violations)
	}
}

func TestCrlfTerminatorsPreserved(t *testing.T) {
	src := "#include \"other.h\"\r\n#define ENABLE_MOCKS\r\n#include \"dep.h\"\r\n#undef ENABLE_MOCKS\r\n#include \"vld.h\"\r\nint x;\r\n"
	res := check(t, src)
	if len(res.Violations) != 3 {
		t.Fatalf("violations = %+v, want 3", res.Violations)
	}
	want := "#include \"other.h\"\r\n" +
		"#include \"umock_c/umock_c_ENABLE_MOCKS.h\" // ============================== ENABLE_MOCKS\r\n" +
		"#include \"dep.h\"\r\n" +
		"#include \"umock_c/umock_c_DISABLE_MOCKS.h\" // ============================== DISABLE_MOCKS\r\n" +
		"int x;\r\n"
	if string(res.Fixed) != want {
		t.Errorf("fixed = %q\nwant    %q", res.Fixed, want)
	}
}

func TestCrlfForceSuppression(t *testing.T) {
	res := check(t, "#include \"vld.h\"  // force\r\nint x;\r\n")
	if len(res.Violations) != 0 || res.Fixed != nil {
		t.Errorf("forced CRLF line flagged: %+v", res)
	}
}

func TestCleanFile(t *testing.T) {
	src := `#include "umock_c/umock_c_ENABLE_MOCKS.h" // ============================== ENABLE_MOCKS
#include "c_pal/gballoc_hl.h"
#include "umock_c/umock_c_DISABLE_MOCKS.h" // ============================== DISABLE_MOCKS
`
	res := check(t, src)
	if len(res.Violations) != 0 || res.Fixed != nil {
		t.Errorf("clean file flagged: %+v", res)
	}
}
