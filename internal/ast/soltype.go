package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// SolTypeKind distinguishes the members of the canonical ABI type grammar
// recognised in function/event/error declarations.
type SolTypeKind int

const (
	SolAddress SolTypeKind = iota
	SolBool
	SolString
	SolBytes   // dynamic bytes
	SolBytesN  // fixed-size bytesN, N in 1..32
	SolUint    // uintN, N in 8..256 step 8
	SolInt     // intN, N in 8..256 step 8
	SolTuple   // (t1,t2,...)
	SolArray   // T[N]
	SolSlice   // T[]
)

// SolType is a node in the canonical type grammar. Its Canonical method
// produces the exact textual form that enters a selector or topic hash.
type SolType struct {
	Kind  SolTypeKind
	Bits  int       // for SolUint/SolInt: bit width; for SolBytesN: byte width
	Size  int       // for SolArray: fixed length
	Elem  *SolType  // for SolArray/SolSlice: element type
	Comps []SolType // for SolTuple: component types, in order
}

// Canonical renders the type in the canonical form used by selector/topic
// computation: fixed uints as "uintN", tuples as "(t1,t2,...)", arrays as
// "T[N]" or "T[]".
func (t SolType) Canonical() string {
	switch t.Kind {
	case SolAddress:
		return "address"
	case SolBool:
		return "bool"
	case SolString:
		return "string"
	case SolBytes:
		return "bytes"
	case SolBytesN:
		return "bytes" + strconv.Itoa(t.Bits)
	case SolUint:
		return "uint" + strconv.Itoa(t.Bits)
	case SolInt:
		return "int" + strconv.Itoa(t.Bits)
	case SolTuple:
		var b strings.Builder
		b.WriteByte('(')
		for i, c := range t.Comps {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(c.Canonical())
		}
		b.WriteByte(')')
		return b.String()
	case SolArray:
		return fmt.Sprintf("%s[%d]", t.Elem.Canonical(), t.Size)
	case SolSlice:
		return t.Elem.Canonical() + "[]"
	default:
		return "<invalid type>"
	}
}

// Signature joins a function/event/error name with the canonical form of
// each parameter type, comma-separated, no spaces: "name(t1,t2,...)".
func Signature(name string, params []SolType) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Canonical())
	}
	b.WriteByte(')')
	return b.String()
}
