package kexpr

import "github.com/kconfgo/kconfgo/internal/tri"

// Symbol is the minimal view of a Kconfig symbol that an expression needs
// in order to evaluate. internal/kconf.MenuEntry implements this.
type Symbol interface {
	// Name returns the symbol's identifier, used only for diagnostics.
	Name() string
	// IsConst reports whether this is a synthetic string-literal symbol.
	IsConst() bool
	// IsStringType reports whether Equal/NotEqual should compare string
	// values rather than tri-values for this symbol.
	IsStringType() bool
	// Tri returns the symbol's current tri-value.
	Tri() tri.Value
	// StringValue returns the symbol's current backing string value.
	StringValue() string
}

// Type tags the kind of an Expression node.
type Type int

const (
	ExprN Type = iota
	ExprM
	ExprY
	ExprNone
	ExprNot
	ExprAnd
	ExprOr
	ExprEqual
	ExprNotEqual
)

// Operand is the expression-data sum type: either a nested Expression or a
// reference to a Symbol.
type Operand struct {
	Sym  Symbol
	Expr *Expression
}

// SymOperand wraps a Symbol as an Operand.
func SymOperand(s Symbol) *Operand { return &Operand{Sym: s} }

// ExprOperand wraps an Expression as an Operand.
func ExprOperand(e *Expression) *Operand { return &Operand{Expr: e} }

// Expression is a tagged expression-tree node.
type Expression struct {
	Type  Type
	Left  *Operand
	Right *Operand
}

// Interned constant singletons.
var (
	constN = &Expression{Type: ExprN}
	constM = &Expression{Type: ExprM}
	constY = &Expression{Type: ExprY}
)

// ConstN, ConstM, ConstY return the interned constant-expression singletons.
func ConstN() *Expression { return constN }
func ConstM() *Expression { return constM }
func ConstY() *Expression { return constY }

func operandTri(o *Operand) tri.Value {
	if o == nil {
		return tri.N
	}
	if o.Expr != nil {
		return o.Expr.Calculate()
	}
	if o.Sym != nil {
		return o.Sym.Tri()
	}
	return tri.N
}

func operandString(o *Operand) (string, bool) {
	if o == nil {
		return "", false
	}
	if o.Sym != nil && o.Sym.IsStringType() {
		return o.Sym.StringValue(), true
	}
	return "", false
}

// Calculate evaluates the expression tree to a tri-value, per spec.md §4.1.
// A nil *Expression evaluates to N.
func (e *Expression) Calculate() tri.Value {
	if e == nil {
		return tri.N
	}
	switch e.Type {
	case ExprN:
		return tri.N
	case ExprM:
		return tri.M
	case ExprY:
		return tri.Y
	case ExprNone:
		return operandTri(e.Left)
	case ExprNot:
		return tri.Not(operandTri(e.Left))
	case ExprAnd:
		return tri.And(operandTri(e.Left), operandTri(e.Right))
	case ExprOr:
		return tri.Or(operandTri(e.Left), operandTri(e.Right))
	case ExprEqual, ExprNotEqual:
		eq := e.compareEqual()
		if e.Type == ExprNotEqual {
			if eq {
				return tri.N
			}
			return tri.Y
		}
		if eq {
			return tri.Y
		}
		return tri.N
	default:
		return tri.N
	}
}

// StringValue returns the literal string carried by e, when e is a bare
// reference to a string-typed (or const) symbol — the shape produced by
// compiling a quoted literal or a plain string-symbol default. ok is false
// for any other expression shape (logical operators, tri constants,
// non-string symbols), since those have no single string value.
func (e *Expression) StringValue() (value string, ok bool) {
	if e == nil || e.Type != ExprNone || e.Left == nil || e.Left.Sym == nil {
		return "", false
	}
	sym := e.Left.Sym
	if !sym.IsStringType() {
		return "", false
	}
	return sym.StringValue(), true
}

func (e *Expression) compareEqual() bool {
	ls, lok := operandString(e.Left)
	rs, rok := operandString(e.Right)
	if lok && rok {
		return ls == rs
	}
	return operandTri(e.Left) == operandTri(e.Right)
}

// ReferencedSymbols walks the tree in discovery order, collecting every
// distinct non-const Symbol reached. Used by the caller to populate
// dependsOnList.
func ReferencedSymbols(e *Expression) []Symbol {
	seen := map[Symbol]struct{}{}
	var out []Symbol
	var walk func(o *Operand)
	walk = func(o *Operand) {
		if o == nil {
			return
		}
		if o.Expr != nil {
			walk(o.Expr.Left)
			walk(o.Expr.Right)
			return
		}
		if o.Sym == nil || o.Sym.IsConst() {
			return
		}
		if _, ok := seen[o.Sym]; ok {
			return
		}
		seen[o.Sym] = struct{}{}
		out = append(out, o.Sym)
	}
	if e != nil {
		walk(e.Left)
		walk(e.Right)
	}
	return out
}
