package kexpr_test

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/kconfgo/kconfgo/internal/kexpr"
	"github.com/kconfgo/kconfgo/internal/tri"
	"github.com/stretchr/testify/require"
)

type fakeSymbol struct {
	name     string
	isConst  bool
	isString bool
	triVal   tri.Value
	strVal   string
}

func (s *fakeSymbol) Name() string        { return s.name }
func (s *fakeSymbol) IsConst() bool       { return s.isConst }
func (s *fakeSymbol) IsStringType() bool  { return s.isString }
func (s *fakeSymbol) Tri() tri.Value      { return s.triVal }
func (s *fakeSymbol) StringValue() string { return s.strVal }

type fakeTable struct {
	symbols map[string]*fakeSymbol
	consts  map[string]*fakeSymbol
}

func newFakeTable() *fakeTable {
	return &fakeTable{symbols: map[string]*fakeSymbol{}, consts: map[string]*fakeSymbol{}}
}

func (t *fakeTable) set(name string, v tri.Value) *fakeSymbol {
	s := &fakeSymbol{name: name, triVal: v}
	t.symbols[name] = s
	return s
}

func (t *fakeTable) setString(name, v string) *fakeSymbol {
	s := &fakeSymbol{name: name, isString: true, strVal: v}
	t.symbols[name] = s
	return s
}

func (t *fakeTable) Lookup(name string) (kexpr.Symbol, bool) {
	s, ok := t.symbols[name]
	return s, ok
}

func (t *fakeTable) Const(value string) kexpr.Symbol {
	if s, ok := t.consts[value]; ok {
		return s
	}
	s := &fakeSymbol{name: value, isConst: true, isString: true, strVal: value}
	t.consts[value] = s
	return s
}

var pos1 = hcl.Pos{Filename: "test.kconfig", Line: 1, Column: 1}

func TestCompile_LiteralConstants(t *testing.T) {
	tab := newFakeTable()
	for text, want := range map[string]tri.Value{"y": tri.Y, "m": tri.M, "n": tri.N} {
		expr, diags := kexpr.Compile(text, tab, pos1)
		require.False(t, diags.HasErrors())
		require.Equal(t, want, expr.Calculate())
	}
}

func TestCompile_AndOrNot(t *testing.T) {
	tab := newFakeTable()
	tab.set("A", tri.Y)
	tab.set("B", tri.N)

	expr, diags := kexpr.Compile(`A && !B`, tab, pos1)
	require.False(t, diags.HasErrors())
	require.Equal(t, tri.Y, expr.Calculate())

	expr, diags = kexpr.Compile(`A || B`, tab, pos1)
	require.False(t, diags.HasErrors())
	require.Equal(t, tri.Y, expr.Calculate())

	expr, diags = kexpr.Compile(`A && B`, tab, pos1)
	require.False(t, diags.HasErrors())
	require.Equal(t, tri.N, expr.Calculate())
}

func TestCompile_Precedence(t *testing.T) {
	tab := newFakeTable()
	tab.set("A", tri.N)
	tab.set("B", tri.Y)
	tab.set("C", tri.Y)

	// A && B || C should parse as (A && B) || C, not A && (B || C)
	expr, diags := kexpr.Compile(`A && B || C`, tab, pos1)
	require.False(t, diags.HasErrors())
	require.Equal(t, tri.Y, expr.Calculate())
}

func TestCompile_Parens(t *testing.T) {
	tab := newFakeTable()
	tab.set("A", tri.N)
	tab.set("B", tri.N)
	tab.set("C", tri.Y)

	expr, diags := kexpr.Compile(`A && (B || C)`, tab, pos1)
	require.False(t, diags.HasErrors())
	require.Equal(t, tri.N, expr.Calculate())
}

func TestCompile_StringEquality(t *testing.T) {
	tab := newFakeTable()
	tab.setString("ARCH", "arm64")

	expr, diags := kexpr.Compile(`ARCH = "arm64"`, tab, pos1)
	require.False(t, diags.HasErrors())
	require.Equal(t, tri.Y, expr.Calculate())

	expr, diags = kexpr.Compile(`ARCH != "arm64"`, tab, pos1)
	require.False(t, diags.HasErrors())
	require.Equal(t, tri.N, expr.Calculate())
}

func TestCompile_SingleQuotedStringEquality(t *testing.T) {
	tab := newFakeTable()
	tab.setString("ARCH", "arm64")

	expr, diags := kexpr.Compile(`ARCH = 'arm64'`, tab, pos1)
	require.False(t, diags.HasErrors())
	require.Equal(t, tri.Y, expr.Calculate())
}

func TestCompile_UnterminatedStringIsUnbalancedQuotesError(t *testing.T) {
	tab := newFakeTable()
	tab.setString("ARCH", "arm64")

	_, diags := kexpr.Compile(`ARCH = "arm64`, tab, pos1)
	require.True(t, diags.HasErrors())

	_, diags = kexpr.Compile(`ARCH = 'arm64`, tab, pos1)
	require.True(t, diags.HasErrors())
}

func TestCompile_UndeclaredSymbol(t *testing.T) {
	tab := newFakeTable()
	_, diags := kexpr.Compile(`MISSING`, tab, pos1)
	require.True(t, diags.HasErrors())
}

func TestCompile_UnbalancedParens(t *testing.T) {
	tab := newFakeTable()
	tab.set("A", tri.Y)
	_, diags := kexpr.Compile(`(A`, tab, pos1)
	require.True(t, diags.HasErrors())
}

func TestExpression_NilOperandIsN(t *testing.T) {
	e := &kexpr.Expression{Type: kexpr.ExprAnd}
	require.Equal(t, tri.N, e.Calculate())
}

func TestReferencedSymbols_DedupesAndSkipsConst(t *testing.T) {
	tab := newFakeTable()
	tab.set("A", tri.Y)
	tab.set("B", tri.N)

	expr, diags := kexpr.Compile(`A && A && B || "lit"`, tab, pos1)
	require.False(t, diags.HasErrors())

	syms := kexpr.ReferencedSymbols(expr)
	names := make([]string, 0, len(syms))
	for _, s := range syms {
		names = append(names, s.Name())
	}
	require.ElementsMatch(t, []string{"A", "B"}, names)
}
