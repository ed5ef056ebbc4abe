package compiler

import (
	"math/big"

	"github.com/huff-language/huff2/internal/ast"
)

// Constants is the name -> value mapping produced by evaluating every
// Constant definition, after overrides have been applied.
type Constants map[string]*big.Int

// EvaluateConstants resolves every ConstantDef in table.Order, in
// document order, assigning successive free-storage-pointer values
// starting at zero, then applies the caller-supplied overrides. An
// override naming something other than a Constant definition produces
// NoConstantToOverride; it does not stop evaluation of the rest.
func EvaluateConstants(table *DefTable, overrides map[string]*big.Int) (Constants, []error) {
	consts := make(Constants)
	fsp := 0
	for _, def := range table.Order {
		cd, ok := def.(*ast.ConstantDef)
		if !ok {
			continue
		}
		switch expr := cd.Expr.(type) {
		case ast.LiteralConstExpr:
			consts[cd.Name.Value] = new(big.Int).Set(expr.Value)
		case ast.FreeStoragePointerExpr:
			consts[cd.Name.Value] = big.NewInt(int64(fsp))
			fsp++
		}
	}

	var diags []error
	for _, name := range sortedKeys(overrides) {
		v := overrides[name]
		if _, ok := consts[name]; !ok {
			diags = append(diags, &NoConstantToOverride{Name: name})
			continue
		}
		consts[name] = new(big.Int).Set(v)
	}
	return consts, diags
}
