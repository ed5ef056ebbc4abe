package compiler

import (
	"math/big"
	"testing"

	"github.com/huff-language/huff2/internal/parser"
)

func TestEvaluateConstantsFreeStoragePointer(t *testing.T) {
	root, perrs := parser.Parse("t.h2", `
#define constant A = FREE_STORAGE_POINTER()
#define constant B = FREE_STORAGE_POINTER()
#define macro MAIN() = takes(0) returns(0) { stop }
`)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	table, diags := BuildDefTable(root)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	consts, diags := EvaluateConstants(table, nil)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if consts["A"].Cmp(big.NewInt(0)) != 0 {
		t.Errorf("A = %s, want 0", consts["A"])
	}
	if consts["B"].Cmp(big.NewInt(1)) != 0 {
		t.Errorf("B = %s, want 1", consts["B"])
	}
}

func TestEvaluateConstantsOverride(t *testing.T) {
	root, perrs := parser.Parse("t.h2", `#define constant FOO = 0x05`)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	table, _ := BuildDefTable(root)
	consts, diags := EvaluateConstants(table, map[string]*big.Int{"FOO": big.NewInt(9)})
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if consts["FOO"].Cmp(big.NewInt(9)) != 0 {
		t.Errorf("FOO = %s, want 9", consts["FOO"])
	}
}

func TestEvaluateConstantsNoConstantToOverride(t *testing.T) {
	root, perrs := parser.Parse("t.h2", `#define constant FOO = 0x05`)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	table, _ := BuildDefTable(root)
	_, diags := EvaluateConstants(table, map[string]*big.Int{"BAR": big.NewInt(1)})
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(diags), diags)
	}
	if _, ok := diags[0].(*NoConstantToOverride); !ok {
		t.Errorf("expected NoConstantToOverride, got %T", diags[0])
	}
}
