package main

import (
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/huff-language/huff2/compiler"
	"github.com/huff-language/huff2/disasm"
	"github.com/huff-language/huff2/internal/opcodes"
	"github.com/huff-language/huff2/internal/parser"
)

var t2s = strings.NewReplacer("\t", "  ")

func usage() {
	fmt.Fprint(os.Stderr, t2s.Replace(`
Usage: huff2 [-d] [options...] <filename> [<entry_point>]

 (default) COMPILE <filename> <entry_point>

	-f, --default-constructor   wrap output in the default deployment preamble
	-e, --evm-version <name>    paris | shanghai | cancun | eof (default cancun)
	-c, --constant NAME=VALUE   override a constant (repeatable); VALUE is
	                            0x<hex> or a decimal integer
	-maximised                  assemble with PUSH32 everywhere instead of
	                            minimising push widths

 -d: DISASSEMBLE <filename>

	-bin               input is binary bytecode, not 0x-prefixed hex
	-pc                show program counter on each line
	-uppercase         show instruction names uppercase

 -h, --help                    show this message

`))
}

type constantFlags struct {
	overrides map[string]*big.Int
}

func (c *constantFlags) String() string { return "" }

func (c *constantFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected NAME=VALUE, got %q", s)
	}
	v, err := parseConstantValue(value)
	if err != nil {
		return fmt.Errorf("constant %q: %w", name, err)
	}
	if c.overrides == nil {
		c.overrides = make(map[string]*big.Int)
	}
	c.overrides[name] = v
	return nil
}

func parseConstantValue(s string) (*big.Int, error) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		b := common.FromHex(s)
		if b == nil && rest != "" {
			return nil, fmt.Errorf("invalid hex value %q", s)
		}
		return new(big.Int).SetBytes(b), nil
	}
	v := new(big.Int)
	if _, ok := v.SetString(s, 10); !ok {
		return nil, fmt.Errorf("invalid decimal value %q", s)
	}
	return v, nil
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "-d" {
		disassemble(os.Args[2:])
		return
	}
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "-help" || os.Args[1] == "--help") {
		usage()
		os.Exit(0)
	}
	compile(os.Args[1:])
}

func compile(args []string) {
	fs := flag.NewFlagSet("huff2", flag.ContinueOnError)
	fs.Usage = usage
	fs.SetOutput(io.Discard)

	var (
		defaultConstructor bool
		evmVersion         string
		maximised          bool
		constants          constantFlags
	)
	fs.BoolVar(&defaultConstructor, "f", false, "")
	fs.BoolVar(&defaultConstructor, "default-constructor", false, "")
	fs.StringVar(&evmVersion, "e", opcodes.LatestTarget, "")
	fs.StringVar(&evmVersion, "evm-version", opcodes.LatestTarget, "")
	fs.Var(&constants, "c", "")
	fs.Var(&constants, "constant", "")
	fs.BoolVar(&maximised, "maximised", false, "")

	if err := fs.Parse(args); err != nil {
		exit(2, err)
	}
	if fs.NArg() != 2 {
		usage()
		exit(2, fmt.Errorf("expected <filename> and <entry_point> arguments"))
	}
	filename, entryPoint := fs.Arg(0), fs.Arg(1)

	target, err := opcodes.FindTarget(evmVersion)
	if err != nil {
		exit(2, err)
	}

	source, err := os.ReadFile(filename)
	if err != nil {
		exit(1, err)
	}

	root, errs := parser.Parse(filename, string(source))
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		os.Exit(1)
	}

	mode := compiler.Minimised
	if maximised {
		mode = compiler.Maximised
	}
	result, errs := compiler.Compile(root, compiler.Options{
		EntryPoint:         entryPoint,
		ConstantOverrides:  constants.overrides,
		Target:             target,
		PushMode:           mode,
		DefaultConstructor: defaultConstructor,
	})
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		os.Exit(1)
	}

	fmt.Printf("0x%s\n", common.Bytes2Hex(result.Deployed))
}

func disassemble(args []string) {
	fs := flag.NewFlagSet("huff2 -d", flag.ContinueOnError)
	fs.Usage = usage
	fs.SetOutput(io.Discard)

	var (
		binary    bool
		showPC    bool
		uppercase bool
	)
	fs.BoolVar(&binary, "bin", false, "")
	fs.BoolVar(&showPC, "pc", false, "")
	fs.BoolVar(&uppercase, "uppercase", false, "")

	if err := fs.Parse(args); err != nil {
		exit(2, err)
	}
	if fs.NArg() != 1 {
		usage()
		exit(2, fmt.Errorf("expected a <filename> argument"))
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		exit(1, err)
	}
	bytecode := raw
	if !binary {
		bytecode = common.FromHex(strings.TrimSpace(string(raw)))
	}

	d := disasm.New()
	d.SetShowPC(showPC)
	d.SetUppercase(uppercase)
	if err := d.Disassemble(bytecode, os.Stdout); err != nil {
		exit(1, err)
	}
}

func exit(code int, err error) {
	if err == nil || err == flag.ErrHelp {
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(code)
}
