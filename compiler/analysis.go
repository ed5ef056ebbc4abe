package compiler

import "github.com/huff-language/huff2/internal/ast"

// inclusionRequest is a codesize/codeoffset reference discovered during
// analysis, queued for component B step 6 (independent entry-point
// analysis of included macros, with code-inclusion cycle detection).
type inclusionRequest struct {
	Name                 ast.Name
	InvokeStackAtRequest []InvocationFrame
	Span                 ast.Span
}

// Analyser implements component B: semantic analysis of the transitive
// invocation graph rooted at an entry point.
type Analyser struct {
	defs  *DefTable
	diags []error

	scope           *LabelScope
	markCounter     int
	activeMacros    map[string]bool
	invocationStack []InvocationFrame

	// inclusionCollector accumulates codesize/codeoffset discoveries made
	// during whichever entry-point analysis is currently running (the
	// main entry point, or one drained from the inclusion worklist).
	inclusionCollector []inclusionRequest
}

// Analyse runs component B against defs, rooted at entryPoint, and
// returns every diagnostic found. It never stops at the first error.
func Analyse(defs *DefTable, entryPoint string) []error {
	a := &Analyser{
		defs:         defs,
		scope:        NewLabelScope(),
		activeMacros: make(map[string]bool),
	}

	def, ok := defs.ByName[entryPoint]
	if !ok {
		a.diags = append(a.diags, &EntryPointNotFound{Name: entryPoint})
		return a.diags
	}
	md, ok := def.(*ast.MacroDef)
	if !ok {
		a.diags = append(a.diags, &EntryPointNotFound{Name: entryPoint})
		return a.diags
	}
	if len(md.Args) > 0 {
		a.diags = append(a.diags, &EntryPointHasArgs{Target: md.Name})
	}

	a.activeMacros[md.Name.Value] = true
	a.analyseMacroBody(md)
	delete(a.activeMacros, md.Name.Value)

	pending := a.inclusionCollector
	a.inclusionCollector = nil
	for _, req := range pending {
		a.analyseInclusionEntry(req, nil)
	}

	return a.diags
}

func (a *Analyser) analyseInclusionEntry(req inclusionRequest, parentStack []InclusionFrame) {
	frame := InclusionFrame{EntryPoint: req.Name, InvokeStack: req.InvokeStackAtRequest, Span: req.Span}
	for _, f := range parentStack {
		if f.EntryPoint.Value == req.Name.Value {
			chain := append(append([]InclusionFrame{}, parentStack...), frame)
			a.diags = append(a.diags, &RecursiveCodeInclusion{Chain: chain})
			return
		}
	}
	def, ok := a.defs.ByName[req.Name.Value]
	if !ok {
		return // already reported as DefinitionNotFound at discovery time
	}
	md, ok := def.(*ast.MacroDef)
	if !ok {
		return
	}

	savedActive, savedInvStack := a.activeMacros, a.invocationStack
	savedCollector := a.inclusionCollector
	a.activeMacros = make(map[string]bool)
	a.invocationStack = nil
	a.inclusionCollector = nil

	a.activeMacros[md.Name.Value] = true
	a.analyseMacroBody(md)

	discovered := a.inclusionCollector
	a.activeMacros, a.invocationStack = savedActive, savedInvStack
	a.inclusionCollector = savedCollector

	newStack := append(append([]InclusionFrame{}, parentStack...), frame)
	for _, d := range discovered {
		a.analyseInclusionEntry(d, newStack)
	}
}

// analyseMacroBody analyses the body of a macro already pushed onto
// activeMacros/invocationStack by the caller.
func (a *Analyser) analyseMacroBody(m *ast.MacroDef) {
	a.scope.EnterContext()
	defer a.scope.LeaveContext()

	seenArgs := make(map[string]bool)
	for _, arg := range m.Args {
		if seenArgs[arg.Value] {
			a.diags = append(a.diags, &DuplicateMacroArgDefinition{Macro: m.Name, Name: arg.Value})
			continue
		}
		seenArgs[arg.Value] = true
	}

	labelSpans := make(map[string][]ast.Span)
	var labelOrder []string
	for _, st := range m.Body {
		ld, ok := st.(*ast.LabelDefStatement)
		if !ok {
			continue
		}
		if _, seen := labelSpans[ld.Label.Value]; !seen {
			labelOrder = append(labelOrder, ld.Label.Value)
		}
		labelSpans[ld.Label.Value] = append(labelSpans[ld.Label.Value], ld.Label.Span)
	}
	for _, name := range labelOrder {
		spans := labelSpans[name]
		if len(spans) > 1 {
			a.diags = append(a.diags, &DuplicateLabelDefinition{Macro: m.Name, Name: name, Spans: spans})
		}
		a.markCounter++
		a.scope.Push(name, a.markCounter)
	}

	for _, st := range m.Body {
		a.analyseStatement(m, st)
	}
}

func (a *Analyser) analyseStatement(m *ast.MacroDef, st ast.MacroStatement) {
	switch s := st.(type) {
	case *ast.LabelDefStatement:
		// handled in the pre-pass above
	case *ast.InstructionStatement:
		a.analyseInstruction(m, s.Instr)
	case *ast.InvokeStatement:
		a.analyseInvoke(m, s.Call)
	}
}

func (a *Analyser) analyseInstruction(m *ast.MacroDef, instr ast.Instruction) {
	switch i := instr.(type) {
	case *ast.OpInstruction, *ast.VariablePushInstruction:
		// nothing to resolve

	case *ast.LabelRefInstruction:
		if _, ok := a.scope.Lookup(i.Label.Value); !ok {
			a.diags = append(a.diags, &MacroLabelNotFound{
				Scope:    m.Name,
				Chain:    append([]InvocationFrame{}, a.invocationStack...),
				NotFound: i.Label,
			})
		}

	case *ast.MacroArgRefInstruction:
		found := false
		for _, arg := range m.Args {
			if arg.Value == i.Arg.Value {
				found = true
				break
			}
		}
		if !found {
			a.diags = append(a.diags, &MacroArgNotFound{Scope: m.Name, NotFound: i.Arg})
		}

	case *ast.ConstantRefInstruction:
		if def, ok := a.defs.ByName[i.Const.Value]; !ok {
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "constant", Name: i.Const})
		} else if _, ok := def.(*ast.ConstantDef); !ok {
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "constant", Name: i.Const})
		}
	}
}

func (a *Analyser) analyseInvoke(m *ast.MacroDef, call ast.Invoke) {
	switch c := call.(type) {
	case *ast.MacroCallInvoke:
		for _, arg := range c.Args {
			a.analyseInstruction(m, arg)
		}

		def, ok := a.defs.ByName[c.Macro.Value]
		if !ok {
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "macro", Name: c.Macro})
			return
		}
		callee, ok := def.(*ast.MacroDef)
		if !ok {
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "macro", Name: c.Macro})
			return
		}
		if len(callee.Args) != len(c.Args) {
			a.diags = append(a.diags, &MacroArgumentCountMismatch{
				Macro: callee.Name, Call: c.Macro, Want: len(callee.Args), Got: len(c.Args),
			})
		}

		if a.activeMacros[callee.Name.Value] {
			chain := append(append([]InvocationFrame{}, a.invocationStack...),
				InvocationFrame{CallerMacro: m.Name, CalleeName: c.Macro})
			a.diags = append(a.diags, &RecursiveMacroInvocation{Chain: chain})
			return
		}
		a.activeMacros[callee.Name.Value] = true
		a.invocationStack = append(a.invocationStack, InvocationFrame{CallerMacro: m.Name, CalleeName: c.Macro})
		a.analyseMacroBody(callee)
		a.invocationStack = a.invocationStack[:len(a.invocationStack)-1]
		delete(a.activeMacros, callee.Name.Value)

	case *ast.BuiltinInvoke:
		a.analyseBuiltin(m, c)
	}
}

func (a *Analyser) analyseBuiltin(m *ast.MacroDef, c *ast.BuiltinInvoke) {
	switch c.Kind {
	case ast.BuiltinTableStart, ast.BuiltinTableSize:
		def, ok := a.defs.ByName[c.Arg.Value]
		if !ok {
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "table", Name: c.Arg})
			return
		}
		switch def.(type) {
		case *ast.JumpTableDef, *ast.CodeTableDef:
		default:
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "table", Name: c.Arg})
		}

	case ast.BuiltinCodeSize, ast.BuiltinCodeOffset:
		def, ok := a.defs.ByName[c.Arg.Value]
		if !ok {
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "macro", Name: c.Arg})
			return
		}
		target, ok := def.(*ast.MacroDef)
		if !ok {
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "macro", Name: c.Arg})
			return
		}
		if len(target.Args) > 0 {
			a.diags = append(a.diags, &NotYetSupported{
				Intent: "code introspection for macros with arguments",
				Span:   c.Span,
			})
		}
		a.inclusionCollector = append(a.inclusionCollector, inclusionRequest{
			Name:                 target.Name,
			InvokeStackAtRequest: append([]InvocationFrame{}, a.invocationStack...),
			Span:                 c.Span,
		})

	case ast.BuiltinFuncSig, ast.BuiltinError:
		def, ok := a.defs.ByName[c.Arg.Value]
		if !ok {
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "function", Name: c.Arg})
			return
		}
		switch def.(type) {
		case *ast.SolFunctionDef, *ast.SolErrorDef:
		default:
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "function", Name: c.Arg})
		}

	case ast.BuiltinEventHash:
		def, ok := a.defs.ByName[c.Arg.Value]
		if !ok {
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "event", Name: c.Arg})
			return
		}
		if _, ok := def.(*ast.SolEventDef); !ok {
			a.diags = append(a.diags, &DefinitionNotFound{DefType: "event", Name: c.Arg})
		}
	}
}
