package compiler

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// sortedKeys returns the keys of m in sorted order, giving deterministic
// iteration (and hence deterministic diagnostic ordering) over maps.
// Ported in spirit from geas's asm/global.go helper of the same name.
func sortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
