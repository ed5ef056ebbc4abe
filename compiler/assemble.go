package compiler

import (
	"fmt"
	"math/big"

	"github.com/huff-language/huff2/internal/opcodes"
)

// PushMode selects how the assembler (component E) sizes pushed
// references.
type PushMode int

const (
	// Minimised iterates to a fixed point, picking the smallest PUSHk
	// that fits each reference's resolved value.
	Minimised PushMode = iota
	// Maximised always uses PUSH32; stable in a single pass, useful as a
	// baseline for the "minimised <= maximised" testable property and as
	// a debugging aid.
	Maximised
)

// refState is the assembler's mutable per-Ref bookkeeping during the
// fixed-point iteration: the currently assumed push width.
type refState struct {
	width int
}

// Assemble (component E) resolves an assembly stream into final bytecode.
func Assemble(stream []AsmItem, mode PushMode) ([]byte, error) {
	refStates := make(map[int]*refState) // index into stream -> state, for Pushed RefItems only
	for i, item := range stream {
		ref, ok := item.(RefItem)
		if !ok || !ref.Pushed {
			continue
		}
		width := 1
		if mode == Maximised {
			width = 32
		}
		refStates[i] = &refState{width: width}
	}

	var offsets map[int]int
	for {
		offsets = layoutOffsets(stream, refStates)
		if mode == Maximised {
			break
		}
		changed := false
		for i, item := range stream {
			ref, ok := item.(RefItem)
			if !ok || !ref.Pushed {
				continue
			}
			state := refStates[i]
			v, err := resolveRefValue(ref, offsets)
			if err != nil {
				return nil, err
			}
			want := minimalPushWidth(v)
			if want != state.width {
				state.width = want
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	return render(stream, refStates, offsets)
}

// layoutOffsets computes the byte offset of every item and every mark,
// given the current assumed widths of pushed references.
func layoutOffsets(stream []AsmItem, refStates map[int]*refState) map[int]int {
	offsets := make(map[int]int)
	pc := 0
	for i, item := range stream {
		switch it := item.(type) {
		case OpItem:
			pc += 1 + len(it.Data)
		case MarkItem:
			offsets[int(it.Mark)] = pc
		case RefItem:
			if it.Pushed {
				pc += 1 + refStates[i].width
			} else {
				pc += it.Width
			}
		case DataItem:
			pc += len(it.Bytes)
		}
	}
	return offsets
}

func resolveRefValue(ref RefItem, offsets map[int]int) (*big.Int, error) {
	if ref.Direct {
		off, ok := offsets[ref.A]
		if !ok {
			return nil, fmt.Errorf("internal error: mark %d referenced but never defined", ref.A)
		}
		return big.NewInt(int64(off)), nil
	}
	offA, ok := offsets[ref.A]
	if !ok {
		return nil, fmt.Errorf("internal error: mark %d referenced but never defined", ref.A)
	}
	offB, ok := offsets[ref.B]
	if !ok {
		return nil, fmt.Errorf("internal error: mark %d referenced but never defined", ref.B)
	}
	return big.NewInt(int64(offB - offA)), nil
}

func minimalPushWidth(v *big.Int) int {
	w := (v.BitLen() + 7) / 8
	if w < 1 {
		w = 1
	}
	return w
}

func render(stream []AsmItem, refStates map[int]*refState, offsets map[int]int) ([]byte, error) {
	var out []byte
	for i, item := range stream {
		switch it := item.(type) {
		case OpItem:
			op, ok := opcodes.ByName(it.Mnemonic)
			if !ok {
				return nil, fmt.Errorf("unknown opcode %q", it.Mnemonic)
			}
			out = append(out, op.Code)
			out = append(out, it.Data...)

		case MarkItem:
			// contributes no bytes

		case RefItem:
			v, err := resolveRefValue(it, offsets)
			if err != nil {
				return nil, err
			}
			if v.Sign() < 0 {
				return nil, fmt.Errorf("reference resolved to negative value %s", v)
			}
			if it.Pushed {
				width := refStates[i].width
				op, err := opcodes.PushOp(width)
				if err != nil {
					return nil, err
				}
				out = append(out, op.Code)
				out = append(out, padBigEndian(v, width)...)
			} else {
				if v.BitLen() > it.Width*8 {
					return nil, fmt.Errorf("reference value %s does not fit in %d byte(s)", v, it.Width)
				}
				out = append(out, padBigEndian(v, it.Width)...)
			}

		case DataItem:
			out = append(out, it.Bytes...)
		}
	}
	return out, nil
}

func padBigEndian(v *big.Int, width int) []byte {
	b := v.Bytes()
	out := make([]byte, width)
	copy(out[width-len(b):], b)
	return out
}
