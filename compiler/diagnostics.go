// Package compiler implements the middle and back end of the huff2
// compiler: definition-table construction, constant evaluation, semantic
// analysis, macro expansion, and assembly (spec components A-E). It
// consumes an already-parsed ast.Root; lexing and parsing are external
// collaborators living in internal/lexer and internal/parser.
package compiler

import (
	"fmt"
	"strings"

	"github.com/huff-language/huff2/internal/ast"
)

// Diagnostic is the common interface of every error the analyser and
// definition table builder can emit. Diagnostics are values: callers
// collect them in a slice rather than treating them as control flow.
type Diagnostic interface {
	error
	DiagSpan() ast.Span
}

// InvocationFrame is one link of an invocation chain attached to a
// diagnostic: the macro doing the calling, and the name it called.
type InvocationFrame struct {
	CallerMacro ast.Name
	CalleeName  ast.Name
}

func (f InvocationFrame) String() string {
	return fmt.Sprintf("%s -> %s", f.CallerMacro.Value, f.CalleeName.Value)
}

func chainString(chain []InvocationFrame) string {
	parts := make([]string, len(chain))
	for i, f := range chain {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

// InclusionFrame is one link of a code-inclusion chain: the entry point
// being embedded, the invocation stack active when the inclusion was
// requested, and the span of the __codesize/__codeoffset call that
// requested it.
type InclusionFrame struct {
	EntryPoint  ast.Name
	InvokeStack []InvocationFrame
	Span        ast.Span
}

// DefinitionNameCollision reports two or more top-level definitions
// sharing a name.
type DefinitionNameCollision struct {
	Names         []ast.Name
	DuplicateName string
}

func (e *DefinitionNameCollision) Error() string {
	return fmt.Sprintf("duplicate top-level definition name %q (%d definitions)", e.DuplicateName, len(e.Names))
}
func (e *DefinitionNameCollision) DiagSpan() ast.Span { return e.Names[0].Span }

// NoConstantToOverride reports a -c override whose name is not a
// Constant definition.
type NoConstantToOverride struct {
	Name string
}

func (e *NoConstantToOverride) Error() string {
	return fmt.Sprintf("no constant named %q to override", e.Name)
}
func (e *NoConstantToOverride) DiagSpan() ast.Span { return ast.Span{} }

// EntryPointNotFound reports that the nominated entry point name has no
// definition, or names a definition that is not a macro.
type EntryPointNotFound struct {
	Name string
}

func (e *EntryPointNotFound) Error() string       { return fmt.Sprintf("entry point %q not found", e.Name) }
func (e *EntryPointNotFound) DiagSpan() ast.Span { return ast.Span{} }

// EntryPointHasArgs reports that the entry point macro has one or more
// formal parameters (invariant 10).
type EntryPointHasArgs struct {
	Target ast.Name
}

func (e *EntryPointHasArgs) Error() string {
	return fmt.Sprintf("entry point macro %q must take zero arguments", e.Target.Value)
}
func (e *EntryPointHasArgs) DiagSpan() ast.Span { return e.Target.Span }

// RecursiveMacroInvocation reports a cycle in the macro invocation graph.
type RecursiveMacroInvocation struct {
	Chain []InvocationFrame
}

func (e *RecursiveMacroInvocation) Error() string {
	return fmt.Sprintf("recursive macro invocation: %s", chainString(e.Chain))
}
func (e *RecursiveMacroInvocation) DiagSpan() ast.Span {
	if len(e.Chain) == 0 {
		return ast.Span{}
	}
	return e.Chain[len(e.Chain)-1].CalleeName.Span
}

// RecursiveCodeInclusion reports a cycle in the code-inclusion graph
// (edges induced by __codesize/__codeoffset).
type RecursiveCodeInclusion struct {
	Chain []InclusionFrame
}

func (e *RecursiveCodeInclusion) Error() string {
	names := make([]string, len(e.Chain))
	for i, f := range e.Chain {
		names[i] = f.EntryPoint.Value
	}
	return fmt.Sprintf("recursive code inclusion: %s", strings.Join(names, " -> "))
}
func (e *RecursiveCodeInclusion) DiagSpan() ast.Span {
	if len(e.Chain) == 0 {
		return ast.Span{}
	}
	return e.Chain[len(e.Chain)-1].Span
}

// MacroLabelNotFound reports a label reference that resolved against no
// entry in the label-scope stack.
type MacroLabelNotFound struct {
	Scope    ast.Name
	Chain    []InvocationFrame
	NotFound ast.Name
}

func (e *MacroLabelNotFound) Error() string {
	return fmt.Sprintf("label %q not found (in %s)", e.NotFound.Value, e.Scope.Value)
}
func (e *MacroLabelNotFound) DiagSpan() ast.Span { return e.NotFound.Span }

// MacroArgNotFound reports a macro-argument reference that does not name
// a formal parameter of the enclosing macro.
type MacroArgNotFound struct {
	Scope    ast.Name
	NotFound ast.Name
}

func (e *MacroArgNotFound) Error() string {
	return fmt.Sprintf("macro argument %q not found in %s", e.NotFound.Value, e.Scope.Value)
}
func (e *MacroArgNotFound) DiagSpan() ast.Span { return e.NotFound.Span }

// DefinitionNotFound is the generic "no such constant/macro/table/..."
// diagnostic, parameterised by the kind of definition expected.
type DefinitionNotFound struct {
	DefType string
	Name    ast.Name
}

func (e *DefinitionNotFound) Error() string {
	return fmt.Sprintf("undefined %s %q", e.DefType, e.Name.Value)
}
func (e *DefinitionNotFound) DiagSpan() ast.Span { return e.Name.Span }

// MacroArgumentCountMismatch reports a macro call whose argument count
// does not match the callee's formal arity.
type MacroArgumentCountMismatch struct {
	Macro ast.Name
	Call  ast.Name
	Want  int
	Got   int
}

func (e *MacroArgumentCountMismatch) Error() string {
	return fmt.Sprintf("macro %q takes %d argument(s), got %d", e.Macro.Value, e.Want, e.Got)
}
func (e *MacroArgumentCountMismatch) DiagSpan() ast.Span { return e.Call.Span }

// DuplicateLabelDefinition reports two labels of the same name defined
// in one macro body.
type DuplicateLabelDefinition struct {
	Macro ast.Name
	Name  string
	Spans []ast.Span
}

func (e *DuplicateLabelDefinition) Error() string {
	return fmt.Sprintf("duplicate label %q in macro %q", e.Name, e.Macro.Value)
}
func (e *DuplicateLabelDefinition) DiagSpan() ast.Span { return e.Spans[0] }

// DuplicateMacroArgDefinition reports two formal parameters of the same
// name in one macro's signature.
type DuplicateMacroArgDefinition struct {
	Macro ast.Name
	Name  string
}

func (e *DuplicateMacroArgDefinition) Error() string {
	return fmt.Sprintf("duplicate argument %q in macro %q", e.Name, e.Macro.Value)
}
func (e *DuplicateMacroArgDefinition) DiagSpan() ast.Span { return e.Macro.Span }

// NotYetSupported reports a syntactically valid but unimplemented
// feature: #include resolution, or code introspection of a parameterised
// macro.
type NotYetSupported struct {
	Intent string
	Span   ast.Span
}

func (e *NotYetSupported) Error() string       { return fmt.Sprintf("not yet supported: %s", e.Intent) }
func (e *NotYetSupported) DiagSpan() ast.Span { return e.Span }
