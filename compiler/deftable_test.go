package compiler

import (
	"testing"

	"github.com/huff-language/huff2/internal/parser"
)

func TestBuildDefTableCollision(t *testing.T) {
	root, perrs := parser.Parse("t.h2", `
#define constant FOO = 0x01
#define constant FOO = 0x02
`)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	table, diags := BuildDefTable(root)
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(diags), diags)
	}
	if _, ok := table.ByName["FOO"]; ok {
		t.Error("colliding name should not appear in the def table")
	}
}

func TestBuildDefTableIncludeNotYetSupported(t *testing.T) {
	root, perrs := parser.Parse("t.h2", `#include "other.h2"`)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	_, diags := BuildDefTable(root)
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(diags), diags)
	}
	if _, ok := diags[0].(*NotYetSupported); !ok {
		t.Errorf("expected NotYetSupported, got %T", diags[0])
	}
}

func TestBuildDefTablePreservesDocumentOrder(t *testing.T) {
	root, perrs := parser.Parse("t.h2", `
#define constant A = 0x01
#define constant B = 0x02
#define constant C = 0x03
`)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	table, diags := BuildDefTable(root)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	want := []string{"A", "B", "C"}
	if len(table.Order) != len(want) {
		t.Fatalf("got %d defs, want %d", len(table.Order), len(want))
	}
	for i, name := range want {
		if table.Order[i].DefName().Value != name {
			t.Errorf("order[%d] = %q, want %q", i, table.Order[i].DefName().Value, name)
		}
	}
}
