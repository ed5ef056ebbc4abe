package compiler

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"

	"github.com/huff-language/huff2/internal/ast"
)

// keccak256 computes the 32-byte keccak-256 digest of data, matching
// geas's own use of golang.org/x/crypto/sha3 for the same purpose
// (asm/builtins.go's keccak256Macro/selectorMacro).
func keccak256(data []byte) [32]byte {
	w := sha3.NewLegacyKeccak256()
	w.Write(data)
	var out [32]byte
	copy(out[:], w.Sum(nil))
	return out
}

// funcSelector computes the 4-byte selector of a SolFunction or SolError
// definition: the first four bytes of keccak256(canonical signature).
// The canonical signature is independently validated against
// go-ethereum's own ABI selector grammar as a second opinion, exactly as
// geas's selectorMacro validates a literal signature string with
// abi.ParseSelector before hashing it.
func funcSelector(name string, params []ast.SolType) ([4]byte, error) {
	sig := ast.Signature(name, params)
	if _, err := abi.ParseSelector(sig); err != nil {
		return [4]byte{}, fmt.Errorf("invalid function/error signature %q: %w", sig, err)
	}
	digest := keccak256([]byte(sig))
	var out [4]byte
	copy(out[:], digest[:4])
	return out, nil
}

// eventTopic computes the 32-byte topic hash of a SolEvent definition.
func eventTopic(name string, params []ast.SolType) [32]byte {
	sig := ast.Signature(name, params)
	return keccak256([]byte(sig))
}
