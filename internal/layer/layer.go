// Package layer assigns every symbol a topological layer number from its
// DependsOnList edges, via Kahn's algorithm, so internal/eval can evaluate
// strictly layer-by-layer (and freely in parallel within a layer).
package layer

import (
	"fmt"
	"sort"

	"github.com/kconfgo/kconfgo/internal/kconf"
)

// CirculationDependsOnItems reports a dependency cycle found while layering:
// the set of symbols that could not be assigned a layer because each is
// transitively waiting on another member of the set.
type CirculationDependsOnItems struct {
	Items []*kconf.MenuEntry
}

func (c *CirculationDependsOnItems) Error() string {
	names := make([]string, len(c.Items))
	for i, e := range c.Items {
		names[i] = e.Name()
	}
	return fmt.Sprintf("circular depends-on relationship among: %v", names)
}

// Assign computes a layer number for every entry in symbols (entries whose
// DependsOnList edges form a DAG among symbols), storing it on each
// MenuEntry.Layer, and returns the symbols grouped by layer in ascending
// order. Symbols within a layer are sorted by name for determinism.
func Assign(symbols []*kconf.MenuEntry) ([][]*kconf.MenuEntry, error) {
	inSet := make(map[*kconf.MenuEntry]struct{}, len(symbols))
	for _, s := range symbols {
		inSet[s] = struct{}{}
	}

	var layers [][]*kconf.MenuEntry
	placed := make(map[*kconf.MenuEntry]struct{}, len(symbols))

	ready := func(s *kconf.MenuEntry) bool {
		for _, dep := range s.DependsOnList {
			if _, relevant := inSet[dep]; !relevant {
				continue
			}
			if _, done := placed[dep]; !done {
				return false
			}
		}
		return true
	}

	for len(placed) < len(symbols) {
		var frontier []*kconf.MenuEntry
		for _, s := range symbols {
			if _, done := placed[s]; done {
				continue
			}
			if ready(s) {
				frontier = append(frontier, s)
			}
		}
		if len(frontier) == 0 {
			var stuck []*kconf.MenuEntry
			for _, s := range symbols {
				if _, done := placed[s]; !done {
					stuck = append(stuck, s)
				}
			}
			sort.Slice(stuck, func(i, j int) bool { return stuck[i].Name() < stuck[j].Name() })
			return layers, &CirculationDependsOnItems{Items: stuck}
		}

		sort.Slice(frontier, func(i, j int) bool { return frontier[i].Name() < frontier[j].Name() })
		layerNo := len(layers)
		for _, s := range frontier {
			s.Layer = layerNo
			placed[s] = struct{}{}
		}
		layers = append(layers, frontier)
	}

	return layers, nil
}
