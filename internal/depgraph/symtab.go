package depgraph

import (
	"github.com/kconfgo/kconfgo/internal/kconf"
	"github.com/kconfgo/kconfgo/internal/kexpr"
)

// symTable implements kexpr.SymbolTable over the flattened symbol universe,
// interning one constant symbol per distinct string literal encountered
// during compilation.
type symTable struct {
	byName map[string]*kconf.MenuEntry
	consts map[string]*kconf.MenuEntry
}

func newSymTable(byName map[string]*kconf.MenuEntry) *symTable {
	return &symTable{byName: byName, consts: map[string]*kconf.MenuEntry{}}
}

// Lookup implements kexpr.SymbolTable.
func (t *symTable) Lookup(name string) (kexpr.Symbol, bool) {
	e, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return e, true
}

// Const implements kexpr.SymbolTable.
func (t *symTable) Const(value string) kexpr.Symbol {
	if s, ok := t.consts[value]; ok {
		return s
	}
	s := kconf.NewConstSymbol(value)
	t.consts[value] = s
	return s
}
