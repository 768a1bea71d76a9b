// Package depgraph flattens a parsed Kconfig entry tree into the symbol
// universe, compiles every entry's raw condition text against it, and wires
// the forward (dependsOn) and reverse (beSelected/beImplied) dependency
// edges that internal/layer and internal/eval walk.
package depgraph

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/kconfgo/kconfgo/internal/kconf"
	"github.com/kconfgo/kconfgo/internal/kexpr"
)

// Graph is the flattened, expression-compiled view of a parsed Kconfig
// tree, ready for layering and evaluation.
type Graph struct {
	Root    *kconf.MenuEntry
	Symbols []*kconf.MenuEntry // every symbol-kind entry, DFS discovery order
	ByName  map[string]*kconf.MenuEntry
}

// Build flattens root, compiles every entry's expressions, and links the
// dependency graph. It is the single entry point the root kconfgo package's
// facade (kconfgo.Parse) calls after parsing.
func Build(root *kconf.MenuEntry) (*Graph, hcl.Diagnostics) {
	g := &Graph{Root: root, ByName: map[string]*kconf.MenuEntry{}}
	var diags hcl.Diagnostics

	walkStructural(root, func(e *kconf.MenuEntry) {
		if !e.IsSymbolKind() {
			return
		}
		g.Symbols = append(g.Symbols, e)
		if e.Name() == "" {
			return // anonymous choice: participates in layering/eval, not in name lookup
		}
		if _, dup := g.ByName[e.Name()]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagWarning,
				Summary:  "duplicate symbol declaration",
				Detail:   fmt.Sprintf("%s is declared more than once; only the first declaration participates in expression references", e.Name()),
				Subject:  &hcl.Range{Filename: e.Pos.Filename, Start: e.Pos, End: e.Pos},
			})
			return
		}
		g.ByName[e.Name()] = e
	})

	tab := newSymTable(g.ByName)

	var allEntries []*kconf.MenuEntry
	walkStructural(root, func(e *kconf.MenuEntry) {
		allEntries = append(allEntries, e)
	})

	for _, e := range allEntries {
		diags = append(diags, compileEntry(e, tab)...)
	}

	applyChoiceChildRule(allEntries)
	diags = append(diags, linkSelectsAndImplies(allEntries, g.ByName)...)
	linkDependsOn(allEntries)

	return g, diags
}

// walkStructural visits root then every descendant in a pre-order DFS
// (menu/choice/source nesting included), calling fn on each.
func walkStructural(e *kconf.MenuEntry, fn func(*kconf.MenuEntry)) {
	fn(e)
	for _, c := range e.ChildEntries {
		walkStructural(c, fn)
	}
}

func compileEntry(e *kconf.MenuEntry, tab *symTable) hcl.Diagnostics {
	var diags hcl.Diagnostics

	compile := func(text string, pos hcl.Pos) *kexpr.Expression {
		if text == "" {
			return nil
		}
		expr, d := kexpr.Compile(text, tab, pos)
		diags = append(diags, d...)
		return expr
	}

	e.DependsOnExpr = andAll(e, compile)
	if e.VisibleIfRaw != "" {
		e.VisibleIfExpr = compile(e.VisibleIfRaw, e.VisibleIfPos)
	}
	if len(e.NestDependsOnRaw) > 0 {
		e.NestDependsOn = andAllRaw(e.NestDependsOnRaw, e.Pos, compile)
	}

	for i := range e.Prompts {
		if e.Prompts[i].RawCond != "" {
			e.Prompts[i].Cond = compile(e.Prompts[i].RawCond, e.Prompts[i].Pos)
		}
	}
	for i := range e.Defaults {
		e.Defaults[i].Cond = compile(e.Defaults[i].RawCond, e.Defaults[i].Pos)
		e.Defaults[i].Value = resolveDefaultValue(e, e.Defaults[i].RawValue, tab, e.Defaults[i].Pos, &diags)
	}
	for i := range e.Ranges {
		if e.Ranges[i].RawCond != "" {
			e.Ranges[i].Cond = compile(e.Ranges[i].RawCond, e.Ranges[i].Pos)
		}
	}
	for i := range e.Selects {
		if e.Selects[i].RawCond != "" {
			e.Selects[i].Cond = compile(e.Selects[i].RawCond, e.Selects[i].Pos)
		}
	}
	for i := range e.Implies {
		if e.Implies[i].RawCond != "" {
			e.Implies[i].Cond = compile(e.Implies[i].RawCond, e.Implies[i].Pos)
		}
	}

	return diags
}

// resolveDefaultValue computes the literal value a "default" line produces.
// A choice's "default" names a child symbol directly — it is never a
// boolean expression, so it is stored verbatim and matched against the
// choice's children by internal/eval at evaluation time. Bool/tristate
// defaults are tri-valued expressions ("y", "A && B", ...). String/int/hex
// defaults are either a quoted string literal, a bare numeral/hex literal
// taken verbatim, or a reference to another symbol whose value is copied —
// real Kconfig never runs int/hex literals through the boolean expression
// grammar.
func resolveDefaultValue(e *kconf.MenuEntry, raw string, tab *symTable, pos hcl.Pos, diags *hcl.Diagnostics) string {
	if raw == "" {
		return ""
	}
	if e.IsChoice() {
		return raw
	}
	if e.ValueType == kconf.TypeBool || e.ValueType == kconf.TypeTristate || e.ValueType == kconf.TypeUnknown {
		expr, d := kexpr.Compile(raw, tab, pos)
		*diags = append(*diags, d...)
		return expr.Calculate().String()
	}
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return raw[1 : len(raw)-1]
	}
	if sym, ok := tab.Lookup(raw); ok {
		return sym.StringValue()
	}
	return raw
}

// andAll AND-combines every "depends on" line on e into a single
// expression, per spec.md §4.3 ("multiple depends on lines AND-combine").
func andAll(e *kconf.MenuEntry, compile func(string, hcl.Pos) *kexpr.Expression) *kexpr.Expression {
	return andAllRawPos(e.DependsOnRaw, e.DependsOnPos, e.Pos, compile)
}

func andAllRaw(raws []string, fallback hcl.Pos, compile func(string, hcl.Pos) *kexpr.Expression) *kexpr.Expression {
	pos := make([]hcl.Pos, len(raws))
	for i := range pos {
		pos[i] = fallback
	}
	return andAllRawPos(raws, pos, fallback, compile)
}

func andAllRawPos(raws []string, positions []hcl.Pos, fallback hcl.Pos, compile func(string, hcl.Pos) *kexpr.Expression) *kexpr.Expression {
	var combined *kexpr.Expression
	for i, raw := range raws {
		if raw == "" {
			continue
		}
		pos := fallback
		if i < len(positions) {
			pos = positions[i]
		}
		e := compile(raw, pos)
		if e == nil {
			continue
		}
		if combined == nil {
			combined = e
			continue
		}
		combined = &kexpr.Expression{Type: kexpr.ExprAnd, Left: kexpr.ExprOperand(combined), Right: kexpr.ExprOperand(e)}
	}
	return combined
}

// applyChoiceChildRule gives every direct child of a choice block an
// implicit dependency on the choice symbol itself (spec.md §4.5.1).
func applyChoiceChildRule(entries []*kconf.MenuEntry) {
	for _, e := range entries {
		if !e.IsChoice() {
			continue
		}
		for _, c := range e.ChildEntries {
			if !c.IsSymbolKind() {
				continue
			}
			c.DependsOnList = append(c.DependsOnList, e)
		}
	}
}

func linkSelectsAndImplies(entries []*kconf.MenuEntry, byName map[string]*kconf.MenuEntry) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, e := range entries {
		for i, s := range e.Selects {
			target, ok := byName[s.TargetName]
			if !ok {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagWarning,
					Summary:  "select target not found",
					Detail:   fmt.Sprintf("%q selects undeclared symbol %q", e.Name(), s.TargetName),
					Subject:  &hcl.Range{Filename: s.Pos.Filename, Start: s.Pos, End: s.Pos},
				})
				continue
			}
			e.Selects[i].Target = target
			target.BeSelectedList = append(target.BeSelectedList, e)
			target.DependsOnList = append(target.DependsOnList, e)
		}
		for i, im := range e.Implies {
			target, ok := byName[im.TargetName]
			if !ok {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagWarning,
					Summary:  "imply target not found",
					Detail:   fmt.Sprintf("%q implies undeclared symbol %q", e.Name(), im.TargetName),
					Subject:  &hcl.Range{Filename: im.Pos.Filename, Start: im.Pos, End: im.Pos},
				})
				continue
			}
			e.Implies[i].Target = target
			target.BeImpliedList = append(target.BeImpliedList, e)
			target.DependsOnList = append(target.DependsOnList, e)
		}
	}
	return diags
}

// linkDependsOn populates each entry's forward DependsOnList with every
// distinct symbol its own condition expressions reference: its combined
// depends-on, its inherited if-nesting condition, its visible-if, its
// prompt/default/range/select/imply conditions. A reference to the entry
// itself (as in "select A if B" on B) is not recorded.
func linkDependsOn(entries []*kconf.MenuEntry) {
	for _, e := range entries {
		seen := map[*kconf.MenuEntry]struct{}{}
		for _, existing := range e.DependsOnList {
			seen[existing] = struct{}{}
		}
		add := func(expr *kexpr.Expression) {
			for _, sym := range kexpr.ReferencedSymbols(expr) {
				me, ok := sym.(*kconf.MenuEntry)
				if !ok || me.IsConst() || me == e {
					continue
				}
				if _, dup := seen[me]; dup {
					continue
				}
				seen[me] = struct{}{}
				e.DependsOnList = append(e.DependsOnList, me)
			}
		}
		add(e.DependsOnExpr)
		add(e.NestDependsOn)
		add(e.VisibleIfExpr)
		for _, p := range e.Prompts {
			add(p.Cond)
		}
		for _, d := range e.Defaults {
			add(d.Cond)
		}
		for _, r := range e.Ranges {
			add(r.Cond)
		}
		for _, s := range e.Selects {
			add(s.Cond)
		}
		for _, im := range e.Implies {
			add(im.Cond)
		}
	}
}
