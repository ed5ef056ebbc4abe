package compiler

import (
	"github.com/huff-language/huff2/internal/ast"
)

// DefTable is the result of component A: a name -> Definition mapping
// with duplicates rejected, plus the insertion-order list of the unique
// definitions (needed by the constant evaluator, which must process
// constants in document order).
type DefTable struct {
	ByName map[string]ast.Definition
	Order  []ast.Definition
}

// BuildDefTable folds a parsed Root into a DefTable, reporting every
// #include as NotYetSupported and every duplicate top-level name as a
// DefinitionNameCollision. Definition groups sharing a name are entirely
// excluded from the resulting map; they are not arbitrarily resolved to
// "the first one".
func BuildDefTable(root ast.Root) (*DefTable, []error) {
	var diags []error
	groups := make(map[string][]ast.Definition)
	var nameOrder []string
	seen := make(map[string]bool)

	for _, sec := range root {
		switch s := sec.(type) {
		case ast.DefinitionSection:
			name := s.Def.DefName().Value
			if !seen[name] {
				seen[name] = true
				nameOrder = append(nameOrder, name)
			}
			groups[name] = append(groups[name], s.Def)
		case ast.IncludeSection:
			diags = append(diags, &NotYetSupported{Intent: "include", Span: s.Span})
		}
	}

	table := &DefTable{ByName: make(map[string]ast.Definition)}
	for _, name := range nameOrder {
		defs := groups[name]
		if len(defs) == 1 {
			table.ByName[name] = defs[0]
			table.Order = append(table.Order, defs[0])
			continue
		}
		names := make([]ast.Name, len(defs))
		for i, d := range defs {
			names[i] = d.DefName()
		}
		diags = append(diags, &DefinitionNameCollision{Names: names, DuplicateName: name})
	}
	return table, diags
}
