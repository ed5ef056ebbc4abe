package compiler

// AsmItem is one element of the flat assembly stream produced by the
// expander (component C) and consumed by the assembler (component E).
type AsmItem interface {
	isAsmItem()
}

// OpItem is a concrete opcode, already fully resolved at expansion time:
// Data holds its immediate bytes (non-nil only for PUSH-family opcodes
// emitted for a literal VariablePush, ConstantReference, computed
// selector/topic hash, or one of the deployment wrapper's literal pushes
// — values that do not depend on any mark offset and so need no later
// resolution by the assembler).
type OpItem struct {
	Mnemonic string
	Data     []byte
}

func (OpItem) isAsmItem() {}

// MarkItem is a zero-width placeholder for a code position.
type MarkItem struct {
	Mark int
}

func (MarkItem) isAsmItem() {}

// RefItem is a reference to one or two marks, resolved by the assembler
// once all offsets are known. Direct references name mark A; Delta
// references resolve to offset(B) - offset(A). Pushed references are
// emitted as a PUSHk whose width the assembler's PushMode picks (minimal
// in Minimised, PUSH32 in Maximised); non-pushed references are emitted as Width
// raw big-endian bytes (used for jump-table entries).
type RefItem struct {
	Direct bool
	A, B   int
	Pushed bool
	Width  int
}

func (RefItem) isAsmItem() {}

// DataItem is a run of raw bytes appended verbatim (code tables, and the
// assembled bytecode of an included macro).
type DataItem struct {
	Bytes []byte
}

func (DataItem) isAsmItem() {}
