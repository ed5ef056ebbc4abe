package ast

import "math/big"

// Definition is the common interface of the seven top-level definition
// variants. Definition values are created by the parser, owned by the
// program, and never mutated once analysis begins.
type Definition interface {
	DefName() Name
	DefSpan() Span
	DefKind() string // human-readable kind ("macro", "constant", ...)
}

// ConstExpr is the right-hand side of a constant definition: either a literal
// 256-bit value, or a free-storage-pointer placeholder resolved by counting.
type ConstExpr interface {
	isConstExpr()
}

// LiteralConstExpr is a constant whose value is given directly in source.
type LiteralConstExpr struct {
	Value *big.Int
}

func (LiteralConstExpr) isConstExpr() {}

// FreeStoragePointerExpr is the FREE_STORAGE_POINTER() placeholder. Its value
// is assigned by the constant evaluator: the n-th FSP constant (in document
// order) evaluates to n, starting at zero.
type FreeStoragePointerExpr struct{}

func (FreeStoragePointerExpr) isConstExpr() {}

// MacroDef is a parameterised sequence of macro statements. The entry point
// nominated for compilation must be a MacroDef with zero parameters.
type MacroDef struct {
	Name    Name
	Span    Span
	Args    []Name
	Takes   *int // optional declared stack-in hint
	Returns *int // optional declared stack-out hint
	Body    []MacroStatement
}

func (d *MacroDef) DefName() Name  { return d.Name }
func (d *MacroDef) DefSpan() Span  { return d.Span }
func (d *MacroDef) DefKind() string { return "macro" }

// ConstantDef binds a name to a ConstExpr.
type ConstantDef struct {
	Name Name
	Span Span
	Expr ConstExpr
}

func (d *ConstantDef) DefName() Name  { return d.Name }
func (d *ConstantDef) DefSpan() Span  { return d.Span }
func (d *ConstantDef) DefKind() string { return "constant" }

// JumpTableDef is an ordered list of label names, materialised at expansion
// time into a contiguous run of fixed-width big-endian offsets.
type JumpTableDef struct {
	Name       Name
	Span       Span
	EntryWidth int // bytes per entry, 1..32
	Labels     []Name
}

func (d *JumpTableDef) DefName() Name  { return d.Name }
func (d *JumpTableDef) DefSpan() Span  { return d.Span }
func (d *JumpTableDef) DefKind() string { return "table" }

// CodeTableDef is a raw byte literal, addressable as a data block.
type CodeTableDef struct {
	Name  Name
	Span  Span
	Bytes []byte
}

func (d *CodeTableDef) DefName() Name  { return d.Name }
func (d *CodeTableDef) DefSpan() Span  { return d.Span }
func (d *CodeTableDef) DefKind() string { return "table" }

// SolFunctionDef is a Solidity-style function signature, used only to
// compute its 4-byte selector via __FUNC_SIG.
type SolFunctionDef struct {
	Name    Name
	Span    Span
	Params  []SolType
	Returns []SolType
}

func (d *SolFunctionDef) DefName() Name  { return d.Name }
func (d *SolFunctionDef) DefSpan() Span  { return d.Span }
func (d *SolFunctionDef) DefKind() string { return "function" }

// SolEventDef is a Solidity-style event signature, used only to compute its
// 32-byte topic hash via __EVENT_HASH.
type SolEventDef struct {
	Name   Name
	Span   Span
	Params []SolType
}

func (d *SolEventDef) DefName() Name  { return d.Name }
func (d *SolEventDef) DefSpan() Span  { return d.Span }
func (d *SolEventDef) DefKind() string { return "event" }

// SolErrorDef is a Solidity-style custom error signature, used only to
// compute its 4-byte selector via __ERROR.
type SolErrorDef struct {
	Name   Name
	Span   Span
	Params []SolType
}

func (d *SolErrorDef) DefName() Name  { return d.Name }
func (d *SolErrorDef) DefSpan() Span  { return d.Span }
func (d *SolErrorDef) DefKind() string { return "error" }
