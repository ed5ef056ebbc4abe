package compiler

import (
	"math/big"

	"github.com/huff-language/huff2/internal/opcodes"
)

// WrapDeployment implements component D, the default deployment
// preamble: given already-assembled runtime bytecode, it builds a fresh
// assembly stream for an init sequence that returns that runtime code as
// the deployed contract, and assembles it (§4.D feeds the wrapped stream
// through §4.E once more).
//
// Three cases, chosen by the runtime length n:
//   - n == 0: empty output, no init code at all.
//   - 1 <= n <= 32: the runtime fits in one stack word. It is pushed as
//     an immediate (right-aligned, so it occupies the low n bytes of the
//     word), stored to memory at offset 0, then returned as the n-byte
//     window ending at byte 32 -- which is exactly where it landed.
//     RETURNDATASIZE stands in for a literal zero (guaranteed zero this
//     early in execution) to save a byte over PUSH1 0x00. The n == 32
//     case additionally reuses MSIZE (32, after the one MSTORE) in place
//     of a literal size push.
//   - n > 32: the standard copy-and-return pattern: CODECOPY the runtime
//     block (appended as a trailing data section) into memory at offset
//     0, then RETURN it.
func WrapDeployment(runtime []byte, mode PushMode) ([]byte, error) {
	n := len(runtime)
	switch {
	case n == 0:
		return nil, nil
	case n <= 32:
		return Assemble(smallWrapperStream(runtime), mode)
	default:
		return Assemble(largeWrapperStream(runtime), mode)
	}
}

func smallWrapperStream(runtime []byte) []AsmItem {
	n := len(runtime)
	stream := []AsmItem{
		lenPush(n, runtime),
		OpItem{Mnemonic: "RETURNDATASIZE"},
		OpItem{Mnemonic: "MSTORE"},
	}
	if n == 32 {
		stream = append(stream,
			OpItem{Mnemonic: "MSIZE"},
			OpItem{Mnemonic: "RETURNDATASIZE"},
		)
	} else {
		stream = append(stream,
			lenPush(n, nil),
			lenPush(32-n, nil),
		)
	}
	return append(stream, OpItem{Mnemonic: "RETURN"})
}

func largeWrapperStream(runtime []byte) []AsmItem {
	n := len(runtime)
	const start, end = 1, 2

	return []AsmItem{
		lenPush(n, nil),
		OpItem{Mnemonic: "DUP1"},
		RefItem{Direct: true, A: start, Pushed: true},
		OpItem{Mnemonic: "RETURNDATASIZE"},
		OpItem{Mnemonic: "CODECOPY"},
		OpItem{Mnemonic: "RETURNDATASIZE"},
		OpItem{Mnemonic: "RETURN"},
		MarkItem{Mark: start},
		DataItem{Bytes: runtime},
		MarkItem{Mark: end},
	}
}

// lenPush builds a minimal-width PUSHk item for the integer n. If data is
// non-nil, its bytes are used as the immediate verbatim with k = len(data)
// and n is not used (the n<=32 case pushes the runtime bytes themselves);
// otherwise the immediate is n's own big-endian encoding.
func lenPush(n int, data []byte) AsmItem {
	if data != nil {
		op, err := opcodes.PushOp(len(data))
		if err != nil {
			panic(err)
		}
		return OpItem{Mnemonic: op.Name, Data: data}
	}
	v := big.NewInt(int64(n))
	width := minimalPushWidth(v)
	op, err := opcodes.PushOp(width)
	if err != nil {
		panic(err)
	}
	return OpItem{Mnemonic: op.Name, Data: padBigEndian(v, width)}
}
