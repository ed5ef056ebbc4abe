// Package parser implements the recursive-descent parser that turns a token
// stream into an ast.Root. Like the lexer it sits on, the parser is an
// external collaborator from the compiler core's perspective (§6): the core
// never touches source text, only the Root it produces.
package parser

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/huff-language/huff2/internal/ast"
	"github.com/huff-language/huff2/internal/lexer"
	"github.com/huff-language/huff2/internal/opcodes"
)

// ParseError is a syntax error with its source position.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

type parser struct {
	file   string
	toks   []lexer.Token
	pos    int
	errors []error
}

// Parse tokenizes and parses source text into an ast.Root. Parse errors are
// returned as a slice; a non-empty slice means root is incomplete or nil.
func Parse(file, src string) (ast.Root, []error) {
	toks, err := lexer.All(src)
	if err != nil {
		return nil, []error{&ParseError{File: file, Msg: err.Error()}}
	}
	p := &parser{file: file, toks: toks}
	root := p.parseRoot()
	return root, p.errors
}

func (p *parser) span(start, end lexer.Token) ast.Span {
	return ast.Span{File: p.file, Start: start.Start, End: end.End, Line: start.Line}
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errorf(tok lexer.Token, format string, args ...any) {
	p.errors = append(p.errors, &ParseError{File: p.file, Line: tok.Line, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) expectPunct(ch string) (lexer.Token, bool) {
	t := p.cur()
	if t.Kind == lexer.Punct && t.Text == ch {
		p.advance()
		return t, true
	}
	p.errorf(t, "expected %q, got %s", ch, t)
	return t, false
}

func (p *parser) expectIdent() (lexer.Token, bool) {
	t := p.cur()
	if t.Kind == lexer.Ident {
		p.advance()
		return t, true
	}
	p.errorf(t, "expected identifier, got %s", t)
	return t, false
}

func (p *parser) name(t lexer.Token) ast.Name {
	return ast.Name{Value: t.Text, Span: p.span(t, t)}
}

// parseRoot parses the whole token stream, one top-level form at a time.
// A form that fails to parse is skipped up to the next plausible top-level
// boundary so that later errors can still be reported.
func (p *parser) parseRoot() ast.Root {
	var root ast.Root
	for p.cur().Kind != lexer.EOF {
		before := p.pos
		sec, ok := p.parseSection()
		if ok {
			root = append(root, sec)
		} else {
			for p.cur().Kind != lexer.Keyword && p.cur().Kind != lexer.EOF {
				p.advance()
			}
		}
		if p.pos == before {
			// parseSection made no progress; force one token forward to avoid looping.
			p.advance()
		}
	}
	return root
}

func (p *parser) parseSection() (ast.RootSection, bool) {
	tok := p.cur()
	if tok.Kind != lexer.Keyword {
		p.errorf(tok, "expected #define or #include, got %s", tok)
		return nil, false
	}
	p.advance()
	switch tok.Text {
	case "#include":
		return p.parseInclude(tok)
	case "#define":
		def, ok := p.parseDefinition()
		if !ok {
			return nil, false
		}
		return ast.DefinitionSection{Def: def}, true
	default:
		p.errorf(tok, "unknown directive %s", tok.Text)
		return nil, false
	}
}

func (p *parser) parseInclude(kw lexer.Token) (ast.RootSection, bool) {
	str := p.cur()
	if str.Kind != lexer.Str {
		p.errorf(str, "expected filename string after #include")
		return nil, false
	}
	p.advance()
	return ast.IncludeSection{Path: str.Text, Span: p.span(kw, str)}, true
}

func (p *parser) parseDefinition() (ast.Definition, bool) {
	kw := p.cur()
	if kw.Kind != lexer.Ident {
		p.errorf(kw, "expected macro/constant/jumptable/table/function/event/error after #define")
		return nil, false
	}
	switch kw.Text {
	case "macro":
		p.advance()
		return p.parseMacro(kw)
	case "constant":
		p.advance()
		return p.parseConstant(kw)
	case "jumptable":
		p.advance()
		return p.parseJumpTable(kw)
	case "table":
		p.advance()
		return p.parseTable(kw)
	case "function":
		p.advance()
		return p.parseSolFunction(kw)
	case "event":
		p.advance()
		return p.parseSolEvent(kw)
	case "error":
		p.advance()
		return p.parseSolError(kw)
	default:
		p.errorf(kw, "unknown definition kind %q", kw.Text)
		return nil, false
	}
}

func (p *parser) parseMacro(kw lexer.Token) (ast.Definition, bool) {
	nameTok, ok := p.expectIdent()
	if !ok {
		return nil, false
	}
	if _, ok := p.expectPunct("("); !ok {
		return nil, false
	}
	var args []ast.Name
	for p.cur().Kind != lexer.Punct || p.cur().Text != ")" {
		t, ok := p.expectIdent()
		if !ok {
			return nil, false
		}
		args = append(args, p.name(t))
		if p.cur().Kind == lexer.Punct && p.cur().Text == "," {
			p.advance()
			continue
		}
		break
	}
	if _, ok := p.expectPunct(")"); !ok {
		return nil, false
	}
	if _, ok := p.expectPunct("="); !ok {
		return nil, false
	}

	var takes, returns *int
	if p.cur().Kind == lexer.Ident && p.cur().Text == "takes" {
		p.advance()
		n, ok := p.parseParenInt()
		if !ok {
			return nil, false
		}
		takes = &n
		if t := p.cur(); t.Kind != lexer.Ident || t.Text != "returns" {
			p.errorf(t, "expected 'returns' after 'takes'")
			return nil, false
		}
		p.advance()
		n2, ok := p.parseParenInt()
		if !ok {
			return nil, false
		}
		returns = &n2
	}

	if _, ok := p.expectPunct("{"); !ok {
		return nil, false
	}
	var body []ast.MacroStatement
	for !(p.cur().Kind == lexer.Punct && p.cur().Text == "}") {
		if p.cur().Kind == lexer.EOF {
			p.errorf(p.cur(), "unterminated macro body")
			return nil, false
		}
		st, ok := p.parseMacroStatement()
		if !ok {
			return nil, false
		}
		body = append(body, st)
	}
	closeBrace := p.cur()
	p.advance()

	return &ast.MacroDef{
		Name:    p.name(nameTok),
		Span:    p.span(kw, closeBrace),
		Args:    args,
		Takes:   takes,
		Returns: returns,
		Body:    body,
	}, true
}

func (p *parser) parseParenInt() (int, bool) {
	if _, ok := p.expectPunct("("); !ok {
		return 0, false
	}
	t := p.cur()
	if t.Kind != lexer.Dec {
		p.errorf(t, "expected a decimal number")
		return 0, false
	}
	p.advance()
	n, _ := strconv.Atoi(t.Text)
	if _, ok := p.expectPunct(")"); !ok {
		return 0, false
	}
	return n, true
}

func (p *parser) parseMacroStatement() (ast.MacroStatement, bool) {
	tok := p.cur()
	if tok.Kind == lexer.Ident {
		next := p.toks[min(p.pos+1, len(p.toks)-1)] // builtin min (go1.21+)
		if next.Kind == lexer.Punct && next.Text == ":" {
			p.advance()
			p.advance()
			return &ast.LabelDefStatement{Label: p.name(tok)}, true
		}
		if next.Kind == lexer.Punct && next.Text == "(" {
			call, ok := p.parseInvoke()
			if !ok {
				return nil, false
			}
			return &ast.InvokeStatement{Call: call}, true
		}
	}
	instr, ok := p.parseInstruction()
	if !ok {
		return nil, false
	}
	return &ast.InstructionStatement{Instr: instr}, true
}

var builtinNames = map[string]ast.BuiltinKind{
	"__tablestart":  ast.BuiltinTableStart,
	"__tablesize":   ast.BuiltinTableSize,
	"__codesize":    ast.BuiltinCodeSize,
	"__codeoffset":  ast.BuiltinCodeOffset,
	"__FUNC_SIG":    ast.BuiltinFuncSig,
	"__EVENT_HASH":  ast.BuiltinEventHash,
	"__ERROR":       ast.BuiltinError,
}

func (p *parser) parseInvoke() (ast.Invoke, bool) {
	nameTok, _ := p.expectIdent()
	startTok := nameTok
	if kind, ok := builtinNames[nameTok.Text]; ok {
		if _, ok := p.expectPunct("("); !ok {
			return nil, false
		}
		argTok, ok := p.expectIdent()
		if !ok {
			return nil, false
		}
		closeTok, ok := p.expectPunct(")")
		if !ok {
			return nil, false
		}
		return &ast.BuiltinInvoke{Span: p.span(startTok, closeTok), Kind: kind, Arg: p.name(argTok)}, true
	}

	if _, ok := p.expectPunct("("); !ok {
		return nil, false
	}
	var args []ast.Instruction
	for !(p.cur().Kind == lexer.Punct && p.cur().Text == ")") {
		arg, ok := p.parseInstruction()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if p.cur().Kind == lexer.Punct && p.cur().Text == "," {
			p.advance()
			continue
		}
		break
	}
	closeTok, ok := p.expectPunct(")")
	if !ok {
		return nil, false
	}
	return &ast.MacroCallInvoke{Span: p.span(startTok, closeTok), Macro: p.name(nameTok), Args: args}, true
}

func (p *parser) parseInstruction() (ast.Instruction, bool) {
	tok := p.cur()
	switch {
	case tok.Kind == lexer.Hex:
		p.advance()
		v, ok := parseHexLiteral(tok.Text)
		if !ok {
			p.errorf(tok, "malformed hex literal %q", tok.Text)
			return nil, false
		}
		return &ast.VariablePushInstruction{Span: p.span(tok, tok), Value: v}, true

	case tok.Kind == lexer.Dec:
		p.advance()
		v, ok := new(big.Int).SetString(tok.Text, 10)
		if !ok {
			p.errorf(tok, "malformed decimal literal %q", tok.Text)
			return nil, false
		}
		return &ast.VariablePushInstruction{Span: p.span(tok, tok), Value: v}, true

	case tok.Kind == lexer.Punct && tok.Text == "<":
		p.advance()
		argTok, ok := p.expectIdent()
		if !ok {
			return nil, false
		}
		closeTok, ok := p.expectPunct(">")
		if !ok {
			return nil, false
		}
		return &ast.MacroArgRefInstruction{Span: p.span(tok, closeTok), Arg: p.name(argTok)}, true

	case tok.Kind == lexer.Punct && tok.Text == "[":
		p.advance()
		constTok, ok := p.expectIdent()
		if !ok {
			return nil, false
		}
		closeTok, ok := p.expectPunct("]")
		if !ok {
			return nil, false
		}
		return &ast.ConstantRefInstruction{Span: p.span(tok, closeTok), Const: p.name(constTok)}, true

	case tok.Kind == lexer.Ident:
		p.advance()
		upper := strings.ToUpper(tok.Text)
		if op, ok := opcodes.ByName(upper); ok && !strings.HasPrefix(op.Name, "PUSH") {
			return &ast.OpInstruction{Span: p.span(tok, tok), Mnemonic: op.Name}, true
		}
		return &ast.LabelRefInstruction{Span: p.span(tok, tok), Label: p.name(tok)}, true

	default:
		p.errorf(tok, "expected an instruction, got %s", tok)
		return nil, false
	}
}

func parseHexLiteral(text string) (*big.Int, bool) {
	digits := strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	if digits == "" {
		return nil, false
	}
	v, ok := new(big.Int).SetString(digits, 16)
	return v, ok
}

func (p *parser) parseConstant(kw lexer.Token) (ast.Definition, bool) {
	nameTok, ok := p.expectIdent()
	if !ok {
		return nil, false
	}
	if _, ok := p.expectPunct("="); !ok {
		return nil, false
	}
	tok := p.cur()
	if tok.Kind == lexer.Ident && tok.Text == "FREE_STORAGE_POINTER" {
		p.advance()
		if _, ok := p.expectPunct("("); !ok {
			return nil, false
		}
		closeTok, ok := p.expectPunct(")")
		if !ok {
			return nil, false
		}
		return &ast.ConstantDef{
			Name: p.name(nameTok),
			Span: p.span(kw, closeTok),
			Expr: ast.FreeStoragePointerExpr{},
		}, true
	}

	instr, ok := p.parseInstruction()
	if !ok {
		return nil, false
	}
	lit, ok := instr.(*ast.VariablePushInstruction)
	if !ok {
		p.errorf(tok, "constant value must be a literal or FREE_STORAGE_POINTER()")
		return nil, false
	}
	return &ast.ConstantDef{
		Name: p.name(nameTok),
		Span: ast.Span{File: p.file, Start: kw.Start, End: lit.Span.End, Line: kw.Line},
		Expr: ast.LiteralConstExpr{Value: lit.Value},
	}, true
}

func (p *parser) parseJumpTable(kw lexer.Token) (ast.Definition, bool) {
	width := 2
	if p.cur().Kind == lexer.Punct && p.cur().Text == "<" {
		p.advance()
		t := p.cur()
		if t.Kind != lexer.Dec {
			p.errorf(t, "expected jump table entry width")
			return nil, false
		}
		p.advance()
		width, _ = strconv.Atoi(t.Text)
		if _, ok := p.expectPunct(">"); !ok {
			return nil, false
		}
	}
	if width < 1 || width > 32 {
		p.errorf(kw, "jump table entry width must be in 1..32, got %d", width)
		return nil, false
	}
	nameTok, ok := p.expectIdent()
	if !ok {
		return nil, false
	}
	if _, ok := p.expectPunct("{"); !ok {
		return nil, false
	}
	var labels []ast.Name
	for !(p.cur().Kind == lexer.Punct && p.cur().Text == "}") {
		t, ok := p.expectIdent()
		if !ok {
			return nil, false
		}
		labels = append(labels, p.name(t))
	}
	closeTok := p.cur()
	p.advance()
	return &ast.JumpTableDef{
		Name:       p.name(nameTok),
		Span:       p.span(kw, closeTok),
		EntryWidth: width,
		Labels:     labels,
	}, true
}

func (p *parser) parseTable(kw lexer.Token) (ast.Definition, bool) {
	nameTok, ok := p.expectIdent()
	if !ok {
		return nil, false
	}
	if _, ok := p.expectPunct("{"); !ok {
		return nil, false
	}
	var data []byte
	for !(p.cur().Kind == lexer.Punct && p.cur().Text == "}") {
		t := p.cur()
		if t.Kind != lexer.Hex {
			p.errorf(t, "expected raw hex bytes in table body")
			return nil, false
		}
		p.advance()
		digits := strings.TrimPrefix(t.Text, "0x")
		if len(digits)%2 != 0 {
			p.errorf(t, "odd-length hex literal %q in table body", t.Text)
			return nil, false
		}
		b, err := hexDecode(digits)
		if err != nil {
			p.errorf(t, "%s", err)
			return nil, false
		}
		data = append(data, b...)
	}
	closeTok := p.cur()
	p.advance()
	return &ast.CodeTableDef{Name: p.name(nameTok), Span: p.span(kw, closeTok), Bytes: data}, true
}

func hexDecode(s string) ([]byte, error) {
	out := make([]byte, len(s)/2)
	for i := range out {
		hi, err := hexVal(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexVal(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexVal(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q", c)
	}
}

func (p *parser) parseSolTypeList() ([]ast.SolType, bool) {
	if _, ok := p.expectPunct("("); !ok {
		return nil, false
	}
	var types []ast.SolType
	for !(p.cur().Kind == lexer.Punct && p.cur().Text == ")") {
		t, ok := p.parseSolType()
		if !ok {
			return nil, false
		}
		types = append(types, t)
		if p.cur().Kind == lexer.Punct && p.cur().Text == "," {
			p.advance()
			continue
		}
		break
	}
	if _, ok := p.expectPunct(")"); !ok {
		return nil, false
	}
	return types, true
}

func (p *parser) parseSolType() (ast.SolType, bool) {
	var base ast.SolType
	tok := p.cur()
	if tok.Kind == lexer.Punct && tok.Text == "(" {
		p.advance()
		var comps []ast.SolType
		for !(p.cur().Kind == lexer.Punct && p.cur().Text == ")") {
			c, ok := p.parseSolType()
			if !ok {
				return ast.SolType{}, false
			}
			comps = append(comps, c)
			if p.cur().Kind == lexer.Punct && p.cur().Text == "," {
				p.advance()
				continue
			}
			break
		}
		if _, ok := p.expectPunct(")"); !ok {
			return ast.SolType{}, false
		}
		base = ast.SolType{Kind: ast.SolTuple, Comps: comps}
	} else {
		nameTok, ok := p.expectIdent()
		if !ok {
			return ast.SolType{}, false
		}
		base, ok = parseBaseType(nameTok.Text)
		if !ok {
			p.errorf(nameTok, "unknown type %q", nameTok.Text)
			return ast.SolType{}, false
		}
	}

	for p.cur().Kind == lexer.Punct && p.cur().Text == "[" {
		p.advance()
		if p.cur().Kind == lexer.Punct && p.cur().Text == "]" {
			p.advance()
			elem := base
			base = ast.SolType{Kind: ast.SolSlice, Elem: &elem}
			continue
		}
		t := p.cur()
		if t.Kind != lexer.Dec {
			p.errorf(t, "expected array length or ']'")
			return ast.SolType{}, false
		}
		p.advance()
		n, _ := strconv.Atoi(t.Text)
		if _, ok := p.expectPunct("]"); !ok {
			return ast.SolType{}, false
		}
		elem := base
		base = ast.SolType{Kind: ast.SolArray, Size: n, Elem: &elem}
	}
	return base, true
}

func parseBaseType(name string) (ast.SolType, bool) {
	switch name {
	case "address":
		return ast.SolType{Kind: ast.SolAddress}, true
	case "bool":
		return ast.SolType{Kind: ast.SolBool}, true
	case "string":
		return ast.SolType{Kind: ast.SolString}, true
	case "bytes":
		return ast.SolType{Kind: ast.SolBytes}, true
	}
	if strings.HasPrefix(name, "bytes") {
		if n, err := strconv.Atoi(name[5:]); err == nil && n >= 1 && n <= 32 {
			return ast.SolType{Kind: ast.SolBytesN, Bits: n}, true
		}
	}
	if strings.HasPrefix(name, "uint") {
		if n, err := strconv.Atoi(name[4:]); err == nil && n >= 8 && n <= 256 && n%8 == 0 {
			return ast.SolType{Kind: ast.SolUint, Bits: n}, true
		}
	}
	if strings.HasPrefix(name, "int") {
		if n, err := strconv.Atoi(name[3:]); err == nil && n >= 8 && n <= 256 && n%8 == 0 {
			return ast.SolType{Kind: ast.SolInt, Bits: n}, true
		}
	}
	return ast.SolType{}, false
}

func (p *parser) parseSolFunction(kw lexer.Token) (ast.Definition, bool) {
	nameTok, ok := p.expectIdent()
	if !ok {
		return nil, false
	}
	params, ok := p.parseSolTypeList()
	if !ok {
		return nil, false
	}
	// Optional visibility/mutability keywords are accepted and ignored, matching
	// how functions are conventionally declared for ABI purposes only.
	for p.cur().Kind == lexer.Ident {
		switch p.cur().Text {
		case "public", "external", "view", "pure", "payable", "nonpayable":
			p.advance()
			continue
		}
		break
	}
	var rets []ast.SolType
	end := p.cur()
	if p.cur().Kind == lexer.Ident && p.cur().Text == "returns" {
		p.advance()
		rets, ok = p.parseSolTypeList()
		if !ok {
			return nil, false
		}
	}
	return &ast.SolFunctionDef{Name: p.name(nameTok), Span: p.span(kw, end), Params: params, Returns: rets}, true
}

func (p *parser) parseSolEvent(kw lexer.Token) (ast.Definition, bool) {
	nameTok, ok := p.expectIdent()
	if !ok {
		return nil, false
	}
	params, ok := p.parseSolTypeList()
	if !ok {
		return nil, false
	}
	return &ast.SolEventDef{Name: p.name(nameTok), Span: p.span(kw, nameTok), Params: params}, true
}

func (p *parser) parseSolError(kw lexer.Token) (ast.Definition, bool) {
	nameTok, ok := p.expectIdent()
	if !ok {
		return nil, false
	}
	params, ok := p.parseSolTypeList()
	if !ok {
		return nil, false
	}
	return &ast.SolErrorDef{Name: p.name(nameTok), Span: p.span(kw, nameTok), Params: params}, true
}

