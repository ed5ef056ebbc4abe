package compiler

import (
	"math/big"

	"github.com/huff-language/huff2/internal/ast"
	"github.com/huff-language/huff2/internal/opcodes"
)

// diagnosticOverflow is panicked through when the diagnostic count
// crosses maxDiagnostics, unwound by Compile's own recover. It carries
// the diagnostics accumulated so far so the recovery path still has
// something to report. The count is checked by appendBounded, which runs
// only after a stage has returned, so the check does not stop a stage
// early, and the carried slice holds every diagnostic collected (it is
// not truncated to maxDiagnostics). Ordinary compiles never come close.
type diagnosticOverflow struct {
	diags []error
}

func (diagnosticOverflow) Error() string { return "too many diagnostics" }

const maxDiagnostics = 10000

// Options configures a Compile call.
type Options struct {
	EntryPoint         string
	ConstantOverrides  map[string]*big.Int
	Target             opcodes.Target
	PushMode           PushMode
	DefaultConstructor bool
}

// Result is everything a successful Compile produces.
type Result struct {
	Runtime  []byte
	Deployed []byte // Runtime wrapped per §4.D, or equal to Runtime if DefaultConstructor is false
}

// Compile runs the full pipeline -- components A through E, plus the
// optional deployment wrapper (component D) -- against an already
// parsed program. It stops at the first stage that reports any
// diagnostic: definition-table construction, then constant evaluation,
// then analysis all run to completion and accumulate every diagnostic
// they find: the pipeline never proceeds past a stage that found one.
func Compile(root ast.Root, opt Options) (result *Result, diags []error) {
	defer func() {
		if r := recover(); r != nil {
			ov, ok := r.(diagnosticOverflow)
			if !ok {
				panic(r)
			}
			result, diags = nil, ov.diags
		}
	}()

	defs, errs := BuildDefTable(root)
	diags = appendBounded(diags, errs)
	if len(diags) > 0 {
		return nil, diags
	}

	consts, errs := EvaluateConstants(defs, opt.ConstantOverrides)
	diags = appendBounded(diags, errs)
	if len(diags) > 0 {
		return nil, diags
	}

	if errs := Analyse(defs, opt.EntryPoint); len(errs) > 0 {
		diags = appendBounded(diags, errs)
		return nil, diags
	}

	stream, errs := Expand(defs, consts, opt.EntryPoint, opt.Target)
	diags = appendBounded(diags, errs)
	if len(diags) > 0 {
		return nil, diags
	}

	runtime, err := Assemble(stream, opt.PushMode)
	if err != nil {
		return nil, []error{err}
	}

	result = &Result{Runtime: runtime, Deployed: runtime}
	if opt.DefaultConstructor {
		deployed, err := WrapDeployment(runtime, opt.PushMode)
		if err != nil {
			return nil, []error{err}
		}
		result.Deployed = deployed
	}
	return result, nil
}

func appendBounded(diags []error, errs []error) []error {
	diags = append(diags, errs...)
	if len(diags) > maxDiagnostics {
		panic(diagnosticOverflow{diags: diags})
	}
	return diags
}
