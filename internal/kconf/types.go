// Package kconf implements the Kconfig text parser and the in-memory entry
// tree it produces: menus, configs, menuconfigs, choices, comments, and
// source directives, each carrying its raw and (once compiled) its
// expression-form attributes.
package kconf

import (
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/kconfgo/kconfgo/internal/kexpr"
	"github.com/kconfgo/kconfgo/internal/tri"
)

// Kind tags the structural role of a MenuEntry.
type Kind int

const (
	KindRoot Kind = iota
	KindMenu
	KindConfig
	KindMenuConfig
	KindChoice
	KindComment
	KindSource
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindMenu:
		return "menu"
	case KindConfig:
		return "config"
	case KindMenuConfig:
		return "menuconfig"
	case KindChoice:
		return "choice"
	case KindComment:
		return "comment"
	case KindSource:
		return "source"
	default:
		return "unknown"
	}
}

// ValueType is the declared symbol type, from the "bool"/"tristate"/
// "string"/"int"/"hex" attribute line.
type ValueType int

const (
	TypeUnknown ValueType = iota
	TypeBool
	TypeTristate
	TypeString
	TypeInt
	TypeHex
)

func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeTristate:
		return "tristate"
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeHex:
		return "hex"
	default:
		return "unknown"
	}
}

// IsStringLike reports whether values of this type compare as strings in
// Equal/NotEqual expressions rather than as tri-values.
func (t ValueType) IsStringLike() bool {
	return t == TypeString || t == TypeInt || t == TypeHex
}

// Default is one "default VALUE [if COND]" line, before (raw) and after
// (compiled) the expression compile pass.
type Default struct {
	RawValue  string
	RawCond   string
	Value     string // for bool/tristate this is n/m/y
	Cond      *kexpr.Expression
	Pos       hcl.Pos
}

// RevDep is one "select TARGET [if COND]" or "imply TARGET [if COND]" line.
type RevDep struct {
	TargetName string
	Target     *MenuEntry
	RawCond    string
	Cond       *kexpr.Expression
	Pos        hcl.Pos
}

// Range is one "range MIN MAX [if COND]" line.
type Range struct {
	Min, Max string
	RawCond  string
	Cond     *kexpr.Expression
	Pos      hcl.Pos
}

// Prompt is the "prompt TEXT [if COND]" attribute, or the inline prompt text
// following bool/tristate/string/int/hex.
type Prompt struct {
	Text    string
	RawCond string
	Cond    *kexpr.Expression
	Pos     hcl.Pos
}

// MenuEntry is one node of the parsed Kconfig tree: a config, menuconfig,
// menu, choice, comment or source entry.
type MenuEntry struct {
	Kind      Kind
	ValueType ValueType
	Pos       hcl.Pos

	Parent       *MenuEntry
	ChildEntries []*MenuEntry

	Help string

	Prompts  []Prompt
	Defaults []Default
	Selects  []RevDep
	Implies  []RevDep
	Ranges   []Range

	// DependsOnRaw holds each "depends on EXPR" line's raw text, AND-combined
	// at compile time into DependsOnExpr. Kept separately (pre-compile) so
	// the menuconfig-nesting reparenting pass can pattern-match on raw text
	// before expression compilation needs a complete symbol universe.
	DependsOnRaw []string
	DependsOnPos []hcl.Pos

	VisibleIfRaw string
	VisibleIfPos hcl.Pos

	OptionEnv      string
	OptionEnvValue string
	OptionEnvSet   bool
	OptionModules  bool

	// NestDependsOnRaw is the condition inherited from the lexical "if"
	// block(s) this entry was declared under, AND-combined. It is tracked
	// independently of ChildEntries reparenting: an "if" block never
	// nests entries under a structural parent, it only contributes an
	// inherited condition.
	NestDependsOnRaw []string

	// Optional marks a choice block declared "optional" (may resolve to n).
	Optional bool

	// SourcePath and SourceErr record a "source" directive's target and any
	// I/O failure encountered trying to read it.
	SourcePath string
	SourceErr  error

	// --- compiled form, populated by internal/depgraph ---

	DependsOnExpr  *kexpr.Expression
	VisibleIfExpr  *kexpr.Expression
	NestDependsOn  *kexpr.Expression

	DependsOnList   []*MenuEntry // forward: symbols this entry's conditions reference
	BeSelectedList  []*MenuEntry // reverse: entries that "select" this one
	BeImpliedList   []*MenuEntry // reverse: entries that "imply" this one
	ControlsList    []*MenuEntry // entries whose visibility/value this entry's change can affect

	Layer int

	name string // the declared symbol identifier; empty for menu/comment/source

	// UserSet marks an entry whose value was set directly by an API caller
	// (as opposed to computed by the evaluator's default/clamp cascade).
	// internal/eval's reverse-dependency clamp treats "imply" as a floor
	// only for entries where this is false (spec.md §4.5.2).
	UserSet bool

	// IsFiltered marks an entry hidden by the facade's filterSelect/
	// clearFilter search (spec.md §6): set on every entry by filterSelect,
	// then unset on matches and their ancestors.
	IsFiltered bool

	mu       sync.RWMutex
	value    string
	isConst  bool
	constStr string
}

// NewMenuEntry constructs an unparented entry of the given kind.
func NewMenuEntry(kind Kind, pos hcl.Pos) *MenuEntry {
	return &MenuEntry{Kind: kind, Pos: pos}
}

// NewConstSymbol wraps a quoted string literal as a constant kexpr.Symbol.
// Constant symbols are never part of the entry tree.
func NewConstSymbol(value string) *MenuEntry {
	return &MenuEntry{Kind: KindConfig, ValueType: TypeString, isConst: true, constStr: value, name: value}
}

// --- kexpr.Symbol implementation ---

// Name implements kexpr.Symbol.
func (e *MenuEntry) Name() string { return e.name }

// SetName sets the declared identifier. Exported as a method, not a field,
// so the zero-value identity used for kexpr.Symbol map-keying (pointer
// identity) is never disturbed by a caller mutating a field directly.
func (e *MenuEntry) SetName(name string) { e.name = name }

// IsConst implements kexpr.Symbol.
func (e *MenuEntry) IsConst() bool { return e.isConst }

// IsStringType implements kexpr.Symbol.
func (e *MenuEntry) IsStringType() bool {
	if e.isConst {
		return true
	}
	return e.ValueType.IsStringLike()
}

// Tri implements kexpr.Symbol: the entry's current value reduced to a
// tri-value. Non-bool/tristate symbols are "y" when they hold a non-empty
// value, "n" otherwise.
func (e *MenuEntry) Tri() tri.Value {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.isConst {
		return tri.Y
	}
	if e.ValueType == TypeBool || e.ValueType == TypeTristate {
		v, ok := tri.Parse(e.value)
		if !ok {
			return tri.N
		}
		return v
	}
	if e.value != "" {
		return tri.Y
	}
	return tri.N
}

// StringValue implements kexpr.Symbol.
func (e *MenuEntry) StringValue() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.isConst {
		return e.constStr
	}
	return e.value
}

// Value returns the entry's raw backing value (tri-literal for bool/
// tristate, literal text otherwise).
func (e *MenuEntry) Value() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.value
}

// SetValue stores v as the entry's backing value. Callers (internal/eval)
// are responsible for validating v against ValueType/Range before calling.
func (e *MenuEntry) SetValue(v string) {
	e.mu.Lock()
	e.value = v
	e.mu.Unlock()
}

// IsChoice reports whether this entry is a choice block.
func (e *MenuEntry) IsChoice() bool { return e.Kind == KindChoice }

// IsSymbolKind reports whether this entry declares a symbol (has a name
// participating in depends-on/select/imply graphs), as opposed to a purely
// structural entry (menu, comment, source).
func (e *MenuEntry) IsSymbolKind() bool {
	return e.Kind == KindConfig || e.Kind == KindMenuConfig || e.Kind == KindChoice
}
