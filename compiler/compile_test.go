package compiler

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"

	"github.com/huff-language/huff2/internal/opcodes"
	"github.com/huff-language/huff2/internal/parser"
)

type compileTestInput struct {
	Code      string            `yaml:"code"`
	Entry     string            `yaml:"entry"`
	Target    string            `yaml:"target,omitempty"`
	Overrides map[string]string `yaml:"overrides,omitempty"`
}

type compileTestOutput struct {
	Bytecode string   `yaml:"bytecode,omitempty"`
	Errors   []string `yaml:"errors,omitempty"`
}

type compileTestYAML struct {
	Input  compileTestInput  `yaml:"input"`
	Output compileTestOutput `yaml:"output"`
}

func TestCompile(t *testing.T) {
	content, err := os.ReadFile(filepath.Join("testdata", "compile_tests.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var tests = make(map[string]compileTestYAML)
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&tests); err != nil {
		t.Fatal(err)
	}

	names := maps.Keys(tests)
	sort.Strings(names)
	for _, name := range names {
		test := tests[name]
		t.Run(name, func(t *testing.T) {
			root, perrs := parser.Parse("test.h2", test.Input.Code)
			if len(perrs) > 0 {
				t.Fatalf("parse errors: %v", perrs)
			}

			targetName := test.Input.Target
			if targetName == "" {
				targetName = opcodes.LatestTarget
			}
			target, err := opcodes.FindTarget(targetName)
			if err != nil {
				t.Fatal(err)
			}

			overrides := make(map[string]*big.Int, len(test.Input.Overrides))
			for name, text := range test.Input.Overrides {
				v := new(big.Int)
				if _, ok := v.SetString(strings.TrimPrefix(text, "0x"), 16); !ok {
					t.Fatalf("bad override literal %q", text)
				}
				overrides[name] = v
			}

			result, errs := Compile(root, Options{
				EntryPoint:        test.Input.Entry,
				ConstantOverrides: overrides,
				Target:            target,
				PushMode:          Minimised,
			})

			if len(test.Output.Errors) > 0 {
				if len(errs) != len(test.Output.Errors) {
					t.Fatalf("got %d errors, want %d: %v", len(errs), len(test.Output.Errors), errs)
				}
				for i, want := range test.Output.Errors {
					if errs[i].Error() != want {
						t.Errorf("error %d = %q, want %q", i, errs[i].Error(), want)
					}
				}
				return
			}

			if len(errs) > 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			want, err := hex.DecodeString(strings.ReplaceAll(test.Output.Bytecode, " ", ""))
			if err != nil {
				t.Fatalf("invalid expected hex: %v", err)
			}
			if !bytes.Equal(result.Runtime, want) {
				t.Errorf("incorrect bytecode\ngot:  %x\nwant: %x", result.Runtime, want)
			}
		})
	}
}
