package compiler

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/huff-language/huff2/internal/opcodes"
	"github.com/huff-language/huff2/internal/parser"
)

func compileOK(t *testing.T, src, entry string) []byte {
	t.Helper()
	root, perrs := parser.Parse("t.h2", src)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	target, err := opcodes.FindTarget(opcodes.LatestTarget)
	if err != nil {
		t.Fatal(err)
	}
	result, diags := Compile(root, Options{EntryPoint: entry, Target: target, PushMode: Minimised})
	if len(diags) > 0 {
		t.Fatalf("compile errors: %v", diags)
	}
	return result.Runtime
}

func TestExpandJumpTable(t *testing.T) {
	got := compileOK(t, `
#define jumptable TABLE { a b }
#define macro MAIN() = takes(0) returns(0) {
  a:
    stop
  b:
    stop
  __tablestart(TABLE) stop
}
`, "MAIN")
	want, _ := hex.DecodeString("5b005b0060070000000002")
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestExpandCodeTable(t *testing.T) {
	got := compileOK(t, `
#define table DATA { 0xdeadbeef }
#define macro MAIN() = takes(0) returns(0) {
  __tablesize(DATA) stop
}
`, "MAIN")
	want, _ := hex.DecodeString("600400deadbeef")
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestExpandCodesizeOfIncludedMacro(t *testing.T) {
	got := compileOK(t, `
#define macro HELPER() = takes(0) returns(0) {
  0x01 0x02 add stop
}
#define macro MAIN() = takes(0) returns(0) {
  __codesize(HELPER) stop
}
`, "MAIN")
	want, _ := hex.DecodeString("600600600160020100")
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}
