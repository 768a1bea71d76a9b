// Package controls precomputes, for every symbol, the set of other symbols
// whose visibility, default, or clamped value can change as a direct
// consequence of that symbol's value changing — the BFS frontier
// internal/eval walks to propagate a value edit through dependent layers
// without re-evaluating the whole tree.
package controls

import "github.com/kconfgo/kconfgo/internal/kconf"

// Compute populates ControlsList on every entry in symbols: the reverse of
// DependsOnList (entries whose condition expressions mention this symbol)
// plus the targets of this symbol's own "select"/"imply" lines (a select or
// imply is itself a one-way control edge, independent of whether the
// target's conditions reference the source by name).
func Compute(symbols []*kconf.MenuEntry) {
	for _, s := range symbols {
		s.ControlsList = nil
	}

	seen := make(map[*kconf.MenuEntry]map[*kconf.MenuEntry]struct{}, len(symbols))
	add := func(from, to *kconf.MenuEntry) {
		if from == to {
			return
		}
		set, ok := seen[from]
		if !ok {
			set = map[*kconf.MenuEntry]struct{}{}
			seen[from] = set
		}
		if _, dup := set[to]; dup {
			return
		}
		set[to] = struct{}{}
		from.ControlsList = append(from.ControlsList, to)
	}

	for _, s := range symbols {
		for _, dep := range s.DependsOnList {
			add(dep, s)
		}
		for _, sel := range s.Selects {
			if sel.Target != nil {
				add(s, sel.Target)
			}
		}
		for _, im := range s.Implies {
			if im.Target != nil {
				add(s, im.Target)
			}
		}
	}
}
