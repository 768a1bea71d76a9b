// Package kconfgo is the external API facade described in spec.md §4.5/§6:
// parse a Kconfig tree, evaluate it, search/filter it, and round-trip its
// values through the ".config" format. It wires internal/kconf,
// internal/depgraph, internal/eval, and internal/dotconfig behind a single
// entry point, in the same constructor-wiring style as the teacher's
// internal/app.App — construction fails loudly (a returned error here,
// since unlike a long-running service a library has no "fatal to the
// process" startup phase to panic through).
package kconfgo

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/kconfgo/kconfgo/internal/depgraph"
	"github.com/kconfgo/kconfgo/internal/dotconfig"
	"github.com/kconfgo/kconfgo/internal/eval"
	"github.com/kconfgo/kconfgo/internal/kconf"
	"github.com/kconfgo/kconfgo/internal/source"
)

// Tree is a fully parsed and evaluated Kconfig tree: the entry hierarchy,
// its compiled dependency graph, and the evaluator that keeps symbol values
// consistent as they change.
type Tree struct {
	// mu serializes parse/writeDotConfig/filterSelect against each other,
	// per spec.md §5 ("a process-wide mutex serializes the three STA
	// operations ... to prevent mid-change enumeration"). Per-layer
	// evaluation concurrency inside internal/eval is unaffected: it is
	// already disjoint-write-set safe by construction, and the recompute
	// cascades of SetValue and LoadDotConfig run without holding this lock.
	mu sync.Mutex

	root  *kconf.MenuEntry
	graph *depgraph.Graph
	eval  *eval.Evaluator
	env   source.EnvProvider
}

// Parse reads the Kconfig tree rooted at path, compiles its expressions and
// dependency graph, and evaluates every symbol's initial value. env resolves
// "option env=VAR" reads and "$(VAR)" interpolation; pass source.OSEnv{} for
// real process environment access.
func Parse(ctx context.Context, path string, env source.EnvProvider) (*Tree, hcl.Diagnostics) {
	p := kconf.NewParser(env)
	root, diags := p.ParseFile(path)
	if diags.HasErrors() {
		return nil, diags
	}

	g, gdiags := depgraph.Build(root)
	diags = append(diags, gdiags...)
	if diags.HasErrors() {
		return nil, diags
	}

	ev, err := eval.New(g.Symbols)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "layering failed",
			Detail:   err.Error(),
		})
		return nil, diags
	}

	t := &Tree{root: root, graph: g, eval: ev, env: env}

	diags = append(diags, ev.EvaluateAll(ctx)...)
	return t, diags
}

// Root returns the tree's synthetic root entry.
func (t *Tree) Root() *kconf.MenuEntry { return t.root }

// Lookup finds a declared symbol by name.
func (t *Tree) Lookup(name string) (*kconf.MenuEntry, bool) {
	e, ok := t.graph.ByName[name]
	return e, ok
}

// SetValue assigns value to the named symbol, marks it user-set, and
// recomputes every symbol its ControlsList reaches (including the symbol
// itself, so its own range/reverse-dependency clamp is re-applied), in
// ascending layer order. This is the "set value (triggers evaluation
// cascade)" operation from spec.md §6's API surface. Assigning "y" to a
// choice's own child is translated to assigning that child's name to the
// choice per spec.md §4.5.1 — see eval.AssignUserValue.
func (t *Tree) SetValue(ctx context.Context, name, value string) (hcl.Diagnostics, error) {
	e, ok := t.graph.ByName[name]
	if !ok {
		return nil, fmt.Errorf("kconfgo: unknown symbol %q", name)
	}
	seed := eval.AssignUserValue(e, value)
	return t.eval.RecomputeFrom(ctx, seed), nil
}

// FilterSelect implements spec.md §6's filterSelect(pattern, isRegex): it
// sets IsFiltered on every symbol, then unsets it on every symbol whose name
// or prompt text matches pattern and on all of that symbol's ancestors, so a
// UI can collapse everything that the filter doesn't keep reachable. It
// returns the matched symbols.
func (t *Tree) FilterSelect(pattern string, isRegex bool) ([]*kconf.MenuEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var re *regexp.Regexp
	if isRegex {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("kconfgo: compiling filter pattern: %w", err)
		}
	}
	matches := func(e *kconf.MenuEntry) bool {
		if re != nil {
			if re.MatchString(e.Name()) {
				return true
			}
			for _, p := range e.Prompts {
				if re.MatchString(p.Text) {
					return true
				}
			}
			return false
		}
		if strings.Contains(strings.ToLower(e.Name()), strings.ToLower(pattern)) {
			return true
		}
		for _, p := range e.Prompts {
			if strings.Contains(strings.ToLower(p.Text), strings.ToLower(pattern)) {
				return true
			}
		}
		return false
	}

	var matched []*kconf.MenuEntry
	for _, e := range t.graph.Symbols {
		e.IsFiltered = true
	}
	for _, e := range t.graph.Symbols {
		if !matches(e) {
			continue
		}
		matched = append(matched, e)
		for a := e; a != nil; a = a.Parent {
			a.IsFiltered = false
		}
	}
	return matched, nil
}

// ClearFilter unsets IsFiltered on every symbol.
func (t *Tree) ClearFilter() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.graph.Symbols {
		e.IsFiltered = false
	}
}

// WriteDotConfig serializes the tree's current values to w in .config
// grammar (spec.md §6).
func (t *Tree) WriteDotConfig(w io.Writer, title string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return dotconfig.Write(w, title, t.root)
}

// LoadDotConfig reads a .config overlay from r and applies it to the tree,
// marking every touched symbol user-set, then recomputes every affected
// symbol's cascade. It returns the names in the overlay that the tree does
// not declare.
func (t *Tree) LoadDotConfig(ctx context.Context, r io.Reader) ([]string, hcl.Diagnostics, error) {
	t.mu.Lock()
	ov, err := dotconfig.Read(r)
	if err != nil {
		t.mu.Unlock()
		return nil, nil, err
	}
	seeds, unknown := dotconfig.Apply(ov, t.graph.ByName)
	t.mu.Unlock()

	if len(seeds) == 0 {
		return unknown, nil, nil
	}
	return unknown, t.eval.RecomputeFrom(ctx, seeds...), nil
}
