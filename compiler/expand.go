package compiler

import (
	"fmt"
	"math/big"

	"github.com/huff-language/huff2/internal/ast"
	"github.com/huff-language/huff2/internal/opcodes"
)

// includedEntry is a macro queued for inclusion as a contiguous data
// section, via __codesize/__codeoffset.
type includedEntry struct {
	Name       string
	Start, End int
}

// tableEntry is a JumpTable or CodeTable queued for emission as a
// contiguous data section, via __tablestart/__tablesize. A jump table's
// referenced labels are resolved to marks at discovery time (when the
// builtin is encountered), per the direct-parent-only policy (§4.B, and
// the Open Question in §9: the expander enforces direct-parent scoping
// even though label visibility elsewhere uses the full scope stack).
type tableEntry struct {
	Name       string
	Start, End int

	IsCodeTable bool
	CodeBytes   []byte

	EntryWidth int
	LabelMarks []int
}

// Expander implements component C: lowering a validated entry point into
// a flat assembly stream.
type Expander struct {
	defs   *DefTable
	consts Constants
	target opcodes.Target
	diags  []error

	stream      []AsmItem
	markCounter int
	scope       *LabelScope

	includedWorklist []*includedEntry
	includedSeen     map[string]*includedEntry

	tableWorklist []*tableEntry
	tableSeen     map[string]*tableEntry

	currentMacro ast.Name
}

// Expand runs component C for entryPoint, producing an assembly stream
// ready for Assemble. Callers are expected to run this only after
// Analyse has reported zero diagnostics. The one source error that only
// this pass detects is a jump-table label not defined in the macro that
// references the table (reported as MacroLabelNotFound by beginTable);
// any other diagnostic returned here reflects a bug in that contract
// (the __codesize/__codeoffset introspection NotYetSupported case is
// caught by analysis, not here).
func Expand(defs *DefTable, consts Constants, entryPoint string, target opcodes.Target) ([]AsmItem, []error) {
	e := &Expander{
		defs:         defs,
		consts:       consts,
		target:       target,
		scope:        NewLabelScope(),
		includedSeen: make(map[string]*includedEntry),
		tableSeen:    make(map[string]*tableEntry),
	}

	def, ok := defs.ByName[entryPoint]
	if !ok {
		return nil, []error{&EntryPointNotFound{Name: entryPoint}}
	}
	md, ok := def.(*ast.MacroDef)
	if !ok {
		return nil, []error{&EntryPointNotFound{Name: entryPoint}}
	}

	e.markCounter++
	entryStart := e.markCounter
	e.markCounter++
	entryEnd := e.markCounter

	e.emit(MarkItem{Mark: entryStart})
	e.expandMacroBody(md, nil)

	for len(e.includedWorklist) > 0 {
		entry := e.includedWorklist[0]
		e.includedWorklist = e.includedWorklist[1:]
		bytecode, errs := e.compileIncluded(entry.Name)
		e.diags = append(e.diags, errs...)
		e.emit(MarkItem{Mark: entry.Start})
		e.emit(DataItem{Bytes: bytecode})
		e.emit(MarkItem{Mark: entry.End})
	}

	for len(e.tableWorklist) > 0 {
		entry := e.tableWorklist[0]
		e.tableWorklist = e.tableWorklist[1:]
		e.emit(MarkItem{Mark: entry.Start})
		if entry.IsCodeTable {
			e.emit(DataItem{Bytes: entry.CodeBytes})
		} else {
			for _, mark := range entry.LabelMarks {
				e.emit(RefItem{Direct: true, A: mark, Pushed: false, Width: entry.EntryWidth})
			}
		}
		e.emit(MarkItem{Mark: entry.End})
	}

	e.emit(MarkItem{Mark: entryEnd})
	return e.stream, e.diags
}

// compileIncluded runs the whole entry-point pipeline (expansion +
// assembly) for a macro referenced via __codesize/__codeoffset, in a
// fresh expansion context, as described in §4.C step 3.
func (e *Expander) compileIncluded(name string) ([]byte, []error) {
	stream, diags := Expand(e.defs, e.consts, name, e.target)
	if len(diags) > 0 {
		return nil, diags
	}
	code, err := Assemble(stream, Minimised)
	if err != nil {
		return nil, []error{err}
	}
	return code, nil
}

func (e *Expander) emit(item AsmItem) { e.stream = append(e.stream, item) }

// expandMacroBody expands macro m's body under argument environment env
// (formal parameter name -> already-resolved assembly item).
func (e *Expander) expandMacroBody(m *ast.MacroDef, env map[string]AsmItem) {
	savedMacro := e.currentMacro
	e.currentMacro = m.Name
	defer func() { e.currentMacro = savedMacro }()

	e.scope.EnterContext()
	defer e.scope.LeaveContext()

	marks := make(map[*ast.LabelDefStatement]int)
	for _, st := range m.Body {
		ld, ok := st.(*ast.LabelDefStatement)
		if !ok {
			continue
		}
		e.markCounter++
		marks[ld] = e.markCounter
		e.scope.Push(ld.Label.Value, e.markCounter)
	}

	for _, st := range m.Body {
		switch s := st.(type) {
		case *ast.LabelDefStatement:
			e.emit(MarkItem{Mark: marks[s]})
			e.emit(OpItem{Mnemonic: "JUMPDEST"})
		case *ast.InstructionStatement:
			item, err := e.evalInstruction(s.Instr, env)
			if err != nil {
				e.diags = append(e.diags, err)
				continue
			}
			e.emit(item)
		case *ast.InvokeStatement:
			e.expandInvoke(m, s.Call, env)
		}
	}
}

// evalInstruction lowers one Instruction to a single assembly item,
// under the current label scope and argument environment.
func (e *Expander) evalInstruction(instr ast.Instruction, env map[string]AsmItem) (AsmItem, error) {
	switch i := instr.(type) {
	case *ast.OpInstruction:
		return OpItem{Mnemonic: i.Mnemonic}, nil

	case *ast.VariablePushInstruction:
		return e.pushItemForValue(i.Value)

	case *ast.LabelRefInstruction:
		mark, ok := e.scope.Lookup(i.Label.Value)
		if !ok {
			return nil, &MacroLabelNotFound{Scope: e.currentMacro, NotFound: i.Label}
		}
		return RefItem{Direct: true, A: mark, Pushed: true}, nil

	case *ast.MacroArgRefInstruction:
		item, ok := env[i.Arg.Value]
		if !ok {
			return nil, &MacroArgNotFound{Scope: e.currentMacro, NotFound: i.Arg}
		}
		return item, nil

	case *ast.ConstantRefInstruction:
		v, ok := e.consts[i.Const.Value]
		if !ok {
			return nil, &DefinitionNotFound{DefType: "constant", Name: i.Const}
		}
		return e.pushItemForValue(v)

	default:
		return nil, fmt.Errorf("internal error: unhandled instruction type %T", instr)
	}
}

// pushItemForValue builds a concrete PUSH opcode item for a literal
// value known at expansion time (no mark dependency): zero uses PUSH0
// when the target VM version supports it, else PUSH1 0x00; other values
// use the minimum-width push that carries them.
func (e *Expander) pushItemForValue(v *big.Int) (AsmItem, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative push value %s", v)
	}
	if v.BitLen() > 256 {
		return nil, fmt.Errorf("push value %s overflows 256 bits", v)
	}
	if v.Sign() == 0 {
		if e.target.SupportsOp0 {
			return OpItem{Mnemonic: "PUSH0"}, nil
		}
		return OpItem{Mnemonic: "PUSH1", Data: []byte{0}}, nil
	}
	width := (v.BitLen() + 7) / 8
	op, err := opcodes.PushOp(width)
	if err != nil {
		return nil, err
	}
	return OpItem{Mnemonic: op.Name, Data: padBigEndian(v, width)}, nil
}

func (e *Expander) expandInvoke(m *ast.MacroDef, call ast.Invoke, env map[string]AsmItem) {
	switch c := call.(type) {
	case *ast.MacroCallInvoke:
		def, ok := e.defs.ByName[c.Macro.Value]
		if !ok {
			return
		}
		callee, ok := def.(*ast.MacroDef)
		if !ok {
			return
		}
		newEnv := make(map[string]AsmItem, len(c.Args))
		for i, argInstr := range c.Args {
			if i >= len(callee.Args) {
				break
			}
			item, err := e.evalInstruction(argInstr, env)
			if err != nil {
				e.diags = append(e.diags, err)
				continue
			}
			newEnv[callee.Args[i].Value] = item
		}
		e.expandMacroBody(callee, newEnv)

	case *ast.BuiltinInvoke:
		e.expandBuiltin(c)
	}
}

func (e *Expander) expandBuiltin(c *ast.BuiltinInvoke) {
	switch c.Kind {
	case ast.BuiltinCodeSize, ast.BuiltinCodeOffset:
		entry := e.includedSeen[c.Arg.Value]
		if entry == nil {
			e.markCounter++
			start := e.markCounter
			e.markCounter++
			end := e.markCounter
			entry = &includedEntry{Name: c.Arg.Value, Start: start, End: end}
			e.includedSeen[c.Arg.Value] = entry
			e.includedWorklist = append(e.includedWorklist, entry)
		}
		if c.Kind == ast.BuiltinCodeSize {
			e.emit(RefItem{Direct: false, A: entry.Start, B: entry.End, Pushed: true})
		} else {
			e.emit(RefItem{Direct: true, A: entry.Start, Pushed: true})
		}

	case ast.BuiltinTableStart, ast.BuiltinTableSize:
		entry := e.tableSeen[c.Arg.Value]
		if entry == nil {
			entry = e.beginTable(c)
			if entry == nil {
				return
			}
			e.tableSeen[c.Arg.Value] = entry
			e.tableWorklist = append(e.tableWorklist, entry)
		}
		if c.Kind == ast.BuiltinTableSize {
			e.emit(RefItem{Direct: false, A: entry.Start, B: entry.End, Pushed: true})
		} else {
			e.emit(RefItem{Direct: true, A: entry.Start, Pushed: true})
		}

	case ast.BuiltinFuncSig, ast.BuiltinError:
		def, ok := e.defs.ByName[c.Arg.Value]
		if !ok {
			return
		}
		var name string
		var params []ast.SolType
		switch d := def.(type) {
		case *ast.SolFunctionDef:
			name, params = d.Name.Value, d.Params
		case *ast.SolErrorDef:
			name, params = d.Name.Value, d.Params
		default:
			return
		}
		sel, err := funcSelector(name, params)
		if err != nil {
			e.diags = append(e.diags, err)
			return
		}
		e.emit(OpItem{Mnemonic: "PUSH4", Data: sel[:]})

	case ast.BuiltinEventHash:
		def, ok := e.defs.ByName[c.Arg.Value]
		if !ok {
			return
		}
		ed, ok := def.(*ast.SolEventDef)
		if !ok {
			return
		}
		topic := eventTopic(ed.Name.Value, ed.Params)
		e.emit(OpItem{Mnemonic: "PUSH32", Data: topic[:]})
	}
}

// beginTable allocates marks for a JumpTable or CodeTable referenced for
// the first time, resolving jump-table labels against the direct
// enclosing macro's own label set (CurrentContext), not the full scope
// stack.
func (e *Expander) beginTable(c *ast.BuiltinInvoke) *tableEntry {
	def, ok := e.defs.ByName[c.Arg.Value]
	if !ok {
		return nil
	}
	e.markCounter++
	start := e.markCounter
	e.markCounter++
	end := e.markCounter

	switch d := def.(type) {
	case *ast.CodeTableDef:
		return &tableEntry{Name: c.Arg.Value, Start: start, End: end, IsCodeTable: true, CodeBytes: d.Bytes}

	case *ast.JumpTableDef:
		direct := e.scope.CurrentContext()
		lookup := func(name string) (int, bool) {
			for i := len(direct) - 1; i >= 0; i-- {
				if direct[i].Name == name {
					return direct[i].Mark, true
				}
			}
			return 0, false
		}
		marks := make([]int, 0, len(d.Labels))
		for _, label := range d.Labels {
			mark, ok := lookup(label.Value)
			if !ok {
				e.diags = append(e.diags, &MacroLabelNotFound{Scope: e.currentMacro, NotFound: label})
				continue
			}
			marks = append(marks, mark)
		}
		return &tableEntry{Name: c.Arg.Value, Start: start, End: end, EntryWidth: d.EntryWidth, LabelMarks: marks}

	default:
		return nil
	}
}
