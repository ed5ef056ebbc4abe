package ast

// RootSection is a top-level form: either a Definition, or an #include
// directive. Root is the parser's output: an ordered sequence of these.
type RootSection interface {
	SectionSpan() Span
}

// Root is the toplevel of a parsed source unit.
type Root []RootSection

// DefinitionSection wraps a top-level Definition.
type DefinitionSection struct {
	Def Definition
}

func (s DefinitionSection) SectionSpan() Span { return s.Def.DefSpan() }

// IncludeSection is a parsed `#include "path"` directive. The core reports
// this as NotYetSupported; it never resolves or loads the file.
type IncludeSection struct {
	Path string
	Span Span
}

func (s IncludeSection) SectionSpan() Span { return s.Span }
