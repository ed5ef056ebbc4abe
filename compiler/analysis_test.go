package compiler

import (
	"testing"

	"github.com/huff-language/huff2/internal/parser"
)

func analyse(t *testing.T, src, entry string) []error {
	t.Helper()
	root, perrs := parser.Parse("t.h2", src)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	table, diags := BuildDefTable(root)
	if len(diags) > 0 {
		t.Fatalf("def table errors: %v", diags)
	}
	return Analyse(table, entry)
}

func TestAnalyseCleanProgram(t *testing.T) {
	diags := analyse(t, `
#define macro MAIN() = takes(0) returns(0) {
  0x01 0x02 add stop
}
`, "MAIN")
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
}

func TestAnalyseDuplicateLabel(t *testing.T) {
	diags := analyse(t, `
#define macro MAIN() = takes(0) returns(0) {
  a:
    stop
  a:
    stop
}
`, "MAIN")
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(diags), diags)
	}
	if _, ok := diags[0].(*DuplicateLabelDefinition); !ok {
		t.Errorf("expected DuplicateLabelDefinition, got %T", diags[0])
	}
}

func TestAnalyseMacroArgumentCountMismatch(t *testing.T) {
	diags := analyse(t, `
#define macro ADD(x) = takes(1) returns(1) {
  <x> add
}
#define macro MAIN() = takes(0) returns(0) {
  0x01 ADD(0x01, 0x02) stop
}
`, "MAIN")
	found := false
	for _, d := range diags {
		if _, ok := d.(*MacroArgumentCountMismatch); ok {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a MacroArgumentCountMismatch among %v", diags)
	}
}

func TestAnalyseUndefinedMacroReference(t *testing.T) {
	diags := analyse(t, `
#define macro MAIN() = takes(0) returns(0) {
  NOPE() stop
}
`, "MAIN")
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(diags), diags)
	}
	if _, ok := diags[0].(*DefinitionNotFound); !ok {
		t.Errorf("expected DefinitionNotFound, got %T", diags[0])
	}
}

func TestAnalyseDuplicateMacroArg(t *testing.T) {
	diags := analyse(t, `
#define macro DUP(x, x) = takes(2) returns(1) {
  <x> <x> add
}
#define macro MAIN() = takes(0) returns(0) {
  0x01 0x02 DUP(0x01, 0x02) stop
}
`, "MAIN")
	found := false
	for _, d := range diags {
		if _, ok := d.(*DuplicateMacroArgDefinition); ok {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a DuplicateMacroArgDefinition among %v", diags)
	}
}
