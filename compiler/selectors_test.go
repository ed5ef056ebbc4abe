package compiler

import (
	"encoding/hex"
	"testing"

	"github.com/huff-language/huff2/internal/ast"
)

func sol(kind ast.SolTypeKind, bits int) ast.SolType {
	return ast.SolType{Kind: kind, Bits: bits}
}

func TestFuncSelectorKnownValue(t *testing.T) {
	// transfer(address,uint256) -> 0xa9059cbb, the canonical ERC-20 selector.
	sel, err := funcSelector("transfer", []ast.SolType{
		sol(ast.SolAddress, 0),
		sol(ast.SolUint, 256),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := hex.EncodeToString(sel[:]); got != "a9059cbb" {
		t.Errorf("got %s, want a9059cbb", got)
	}
}

func TestFuncSelectorRejectsInvalidSignature(t *testing.T) {
	if _, err := funcSelector("", nil); err == nil {
		t.Error("expected an error for an empty function name")
	}
}

func TestEventTopicKnownValue(t *testing.T) {
	topic := eventTopic("Transfer", []ast.SolType{
		sol(ast.SolAddress, 0),
		sol(ast.SolAddress, 0),
		sol(ast.SolUint, 256),
	})
	want := "ddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	if got := hex.EncodeToString(topic[:]); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
