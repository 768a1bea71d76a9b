// Package eval implements the value-propagation evaluator: visibility,
// default resolution, the choice-child exclusivity rule, and the
// reverse-dependency (select/imply) clamp described in spec.md §4.5,
// executed layer-by-layer with each layer's symbols recomputed in parallel.
package eval

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/kconfgo/kconfgo/internal/controls"
	"github.com/kconfgo/kconfgo/internal/ctxlog"
	"github.com/kconfgo/kconfgo/internal/kconf"
	"github.com/kconfgo/kconfgo/internal/layer"
	"github.com/kconfgo/kconfgo/internal/tri"
	"golang.org/x/sync/errgroup"
)

// Evaluator holds the layered symbol universe and recomputes it on demand.
type Evaluator struct {
	Symbols []*kconf.MenuEntry
	Layers  [][]*kconf.MenuEntry
}

// New lays out symbols into topological layers and precomputes their
// controls lists. It returns an error if symbols contain a depends-on
// cycle (a *layer.CirculationDependsOnItems).
func New(symbols []*kconf.MenuEntry) (*Evaluator, error) {
	layers, err := layer.Assign(symbols)
	if err != nil {
		return nil, err
	}
	controls.Compute(symbols)
	return &Evaluator{Symbols: symbols, Layers: layers}, nil
}

// EvaluateAll recomputes every symbol, layer by layer. Choice exclusivity
// needs no separate pass: each choice child's value is derived from its
// parent's single selected name during its own recompute. Used for the
// initial pass after parsing.
func (ev *Evaluator) EvaluateAll(ctx context.Context) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, l := range ev.Layers {
		diags = append(diags, runLayer(ctx, l)...)
	}
	return diags
}

// RecomputeFrom re-evaluates the minimal set of symbols reachable from
// seeds via ControlsList — the BFS frontier of entries whose visibility,
// default, or clamp could change as a consequence of a seed's new value —
// processed in layer order so a recomputed entry never runs ahead of a
// dependency it still needs. Used after a value edit (kconfgo's SetValue)
// and after a .config overlay is applied (kconfgo's LoadDotConfig).
func (ev *Evaluator) RecomputeFrom(ctx context.Context, seeds ...*kconf.MenuEntry) hcl.Diagnostics {
	affected := bfsControls(seeds)
	byLayer := map[int][]*kconf.MenuEntry{}
	for e := range affected {
		byLayer[e.Layer] = append(byLayer[e.Layer], e)
	}
	layerNums := make([]int, 0, len(byLayer))
	for n := range byLayer {
		layerNums = append(layerNums, n)
	}
	sort.Ints(layerNums)

	var diags hcl.Diagnostics
	for _, n := range layerNums {
		diags = append(diags, runLayer(ctx, byLayer[n])...)
	}
	return diags
}

func bfsControls(seeds []*kconf.MenuEntry) map[*kconf.MenuEntry]struct{} {
	visited := map[*kconf.MenuEntry]struct{}{}
	queue := append([]*kconf.MenuEntry{}, seeds...)
	for _, s := range seeds {
		visited[s] = struct{}{}
	}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		for _, next := range e.ControlsList {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return visited
}

// AssignUserValue records a user-supplied value on e and returns the entry
// that should seed RecomputeFrom. For an ordinary symbol this is just e
// itself. For a direct child of a choice, it implements the other half of
// spec.md §4.5.1's choice-child rule: assigning "y" to a child is really an
// assignment of that child's name to the parent choice's own value (and, for
// an "optional" choice, assigning "n" to the currently selected child clears
// the choice back to no selection); only a tristate "m" on a tristate
// child of a tristate choice is accepted as a direct value on the child
// itself, matching what resolveChoiceChildValue tolerates during
// recomputation.
func AssignUserValue(e *kconf.MenuEntry, value string) *kconf.MenuEntry {
	choice := e.Parent
	if choice != nil && choice.IsChoice() && e.IsSymbolKind() {
		if v, ok := tri.Parse(value); ok {
			switch {
			case v == tri.Y:
				choice.SetValue(e.Name())
				choice.UserSet = true
				return choice
			case v == tri.N && choice.Optional && choice.Value() == e.Name():
				choice.SetValue("")
				choice.UserSet = true
				return choice
			case v == tri.M && e.ValueType == kconf.TypeTristate && choice.ValueType == kconf.TypeTristate:
				e.SetValue(value)
				e.UserSet = true
				return e
			}
		}
	}

	e.SetValue(value)
	e.UserSet = true
	return e
}

// runLayer recomputes every entry in a single layer concurrently: safe
// because a layer's members, by construction (internal/layer.Assign), never
// appear in each other's DependsOnList.
func runLayer(ctx context.Context, entries []*kconf.MenuEntry) hcl.Diagnostics {
	logger := ctxlog.FromContext(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	results := make([]hcl.Diagnostics, len(entries))
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			logger.Debug("recomputing symbol", "name", e.Name(), "layer", e.Layer)
			results[i] = recompute(e)
			return nil
		})
	}
	_ = g.Wait() // recompute never returns an error; failures surface as diagnostics

	var diags hcl.Diagnostics
	for _, d := range results {
		diags = append(diags, d...)
	}
	return diags
}

// recompute applies spec.md §4.5's per-symbol algorithm: visibility, then
// (if visible) default resolution or the user's own value, then the
// reverse-dependency clamp, then range validation.
func recompute(e *kconf.MenuEntry) hcl.Diagnostics {
	if e.IsConst() {
		return nil
	}

	dependsOn := tri.Y
	if e.DependsOnExpr != nil {
		dependsOn = e.DependsOnExpr.Calculate()
	}
	if e.NestDependsOn != nil {
		dependsOn = tri.And(dependsOn, e.NestDependsOn.Calculate())
	}

	if dependsOn == tri.N {
		if !e.IsChoice() && (e.ValueType == kconf.TypeBool || e.ValueType == kconf.TypeTristate) {
			e.SetValue(tri.N.String())
		} else {
			e.SetValue("")
		}
		return nil
	}

	var diags hcl.Diagnostics

	switch {
	case e.IsChoice():
		diags = append(diags, resolveChoiceValue(e)...)
	case e.Parent != nil && e.Parent.IsChoice() && e.IsSymbolKind():
		resolveChoiceChildValue(e, e.Parent)
	case e.OptionEnvSet:
		e.SetValue(e.OptionEnvValue)
	case e.UserSet:
		if e.ValueType == kconf.TypeBool || e.ValueType == kconf.TypeTristate {
			cur, _ := tri.Parse(e.Value())
			e.SetValue(tri.And(cur, dependsOn).String())
		}
	default:
		e.SetValue(resolveDefault(e, dependsOn))
	}

	applyReverseDependencyClamp(e, dependsOn)
	diags = append(diags, validateRange(e)...)
	return diags
}

// resolveChoiceValue implements spec.md §4.5.1's choice default rule: a
// choice's own value is the name of its selected child, not a tri-value. The
// first satisfied "default" line that names a dependency-satisfied child
// wins; a default naming no such child is treated as absent. With no
// matching default, an "optional" choice resolves to no selection, and a
// mandatory choice falls back to its first dependency-satisfied child.
func resolveChoiceValue(choice *kconf.MenuEntry) hcl.Diagnostics {
	if choice.UserSet && choiceChildSatisfied(choice, choice.Value()) {
		return nil
	}

	for _, d := range choice.Defaults {
		if d.Cond != nil && d.Cond.Calculate() == tri.N {
			continue
		}
		if choiceChildSatisfied(choice, d.Value) {
			choice.SetValue(d.Value)
			return nil
		}
	}

	if choice.Optional {
		choice.SetValue("")
		return nil
	}

	for _, c := range choice.ChildEntries {
		if !c.IsSymbolKind() {
			continue
		}
		if childDependsOn(c) == tri.N {
			continue
		}
		choice.SetValue(c.Name())
		return nil
	}

	choice.SetValue("")
	return hcl.Diagnostics{&hcl.Diagnostic{
		Severity: hcl.DiagWarning,
		Summary:  "choice has no selectable child",
		Detail:   fmt.Sprintf("mandatory choice at %s:%d has no child whose dependencies are satisfied", choice.Pos.Filename, choice.Pos.Line),
		Subject:  &hcl.Range{Filename: choice.Pos.Filename, Start: choice.Pos, End: choice.Pos},
	}}
}

// resolveChoiceChildValue implements the child half of spec.md §4.5.1: a
// config child's value is computed from its parent choice's current value
// rather than defaulted or user-assigned, except that a tristate choice
// still accepts "m" set directly on a tristate child.
func resolveChoiceChildValue(c, choice *kconf.MenuEntry) {
	if c.UserSet && c.ValueType == kconf.TypeTristate && choice.ValueType == kconf.TypeTristate {
		if v, ok := tri.Parse(c.Value()); ok && v == tri.M {
			return
		}
	}

	if choice.Value() == c.Name() {
		c.SetValue(tri.Y.String())
		return
	}

	if c.ValueType != kconf.TypeTristate {
		c.SetValue(tri.N.String())
		return
	}

	if prev, ok := tri.Parse(c.Value()); ok && prev == tri.N {
		c.SetValue(tri.N.String())
		return
	}
	c.SetValue(tri.M.String())
}

// choiceChildSatisfied reports whether name identifies a direct symbol child
// of choice whose own "depends on" condition is currently satisfied.
func choiceChildSatisfied(choice *kconf.MenuEntry, name string) bool {
	if name == "" {
		return false
	}
	for _, c := range choice.ChildEntries {
		if !c.IsSymbolKind() || c.Name() != name {
			continue
		}
		return childDependsOn(c) != tri.N
	}
	return false
}

func childDependsOn(c *kconf.MenuEntry) tri.Value {
	if c.DependsOnExpr == nil {
		return tri.Y
	}
	return c.DependsOnExpr.Calculate()
}

// resolveDefault picks the first "default" line whose condition is
// satisfied (or that has no condition), clamped to dependsOn for
// bool/tristate symbols. An int/hex symbol with no such line falls back to
// the low bound of its first active "range" line, else "0".
func resolveDefault(e *kconf.MenuEntry, dependsOn tri.Value) string {
	for _, d := range e.Defaults {
		if d.Cond != nil && d.Cond.Calculate() == tri.N {
			continue
		}
		if e.ValueType == kconf.TypeBool || e.ValueType == kconf.TypeTristate {
			v, ok := tri.Parse(d.Value)
			if !ok {
				continue
			}
			return tri.And(v, dependsOn).String()
		}
		return d.Value
	}
	if e.ValueType == kconf.TypeBool || e.ValueType == kconf.TypeTristate {
		return tri.N.String()
	}
	if e.ValueType == kconf.TypeInt || e.ValueType == kconf.TypeHex {
		for _, r := range e.Ranges {
			if r.Cond != nil && r.Cond.Calculate() == tri.N {
				continue
			}
			return r.Min
		}
		return "0"
	}
	return ""
}

// applyReverseDependencyClamp implements spec.md §4.5.2: "select" is a
// strong floor applied unconditionally; "imply" is a weak floor applied
// only to entries the user has not explicitly set themselves. A choice is
// skipped: its value is a child's name, not a tri-value.
func applyReverseDependencyClamp(e *kconf.MenuEntry, dependsOn tri.Value) {
	if e.IsChoice() || (e.ValueType != kconf.TypeBool && e.ValueType != kconf.TypeTristate) {
		return
	}
	cur, _ := tri.Parse(e.Value())

	for _, sel := range e.BeSelectedList {
		floor := sel.Tri()
		for _, s := range sel.Selects {
			if s.Target != e {
				continue
			}
			if s.Cond != nil {
				floor = tri.And(floor, s.Cond.Calculate())
			}
		}
		cur = tri.Or(cur, floor)
	}
	cur = tri.And(cur, dependsOn)

	if !e.UserSet {
		for _, im := range e.BeImpliedList {
			floor := im.Tri()
			for _, s := range im.Implies {
				if s.Target != e {
					continue
				}
				if s.Cond != nil {
					floor = tri.And(floor, s.Cond.Calculate())
				}
			}
			cur = tri.Or(cur, floor)
		}
		cur = tri.And(cur, dependsOn)
	}

	if e.ValueType == kconf.TypeBool && cur == tri.M {
		cur = tri.Y
	}

	e.SetValue(cur.String())
}

