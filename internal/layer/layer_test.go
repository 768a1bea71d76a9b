package layer_test

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/kconfgo/kconfgo/internal/kconf"
	"github.com/kconfgo/kconfgo/internal/layer"
	"github.com/stretchr/testify/require"
)

func sym(name string) *kconf.MenuEntry {
	e := kconf.NewMenuEntry(kconf.KindConfig, hcl.Pos{})
	e.SetName(name)
	e.ValueType = kconf.TypeBool
	return e
}

func TestAssign_LinearChain(t *testing.T) {
	a := sym("A")
	b := sym("B")
	c := sym("C")
	b.DependsOnList = []*kconf.MenuEntry{a}
	c.DependsOnList = []*kconf.MenuEntry{b}

	layers, err := layer.Assign([]*kconf.MenuEntry{c, b, a})
	require.NoError(t, err)
	require.Len(t, layers, 3)
	require.Equal(t, []*kconf.MenuEntry{a}, layers[0])
	require.Equal(t, []*kconf.MenuEntry{b}, layers[1])
	require.Equal(t, []*kconf.MenuEntry{c}, layers[2])
	require.Equal(t, 0, a.Layer)
	require.Equal(t, 1, b.Layer)
	require.Equal(t, 2, c.Layer)
}

func TestAssign_IndependentSymbolsShareALayer(t *testing.T) {
	a := sym("A")
	b := sym("B")

	layers, err := layer.Assign([]*kconf.MenuEntry{a, b})
	require.NoError(t, err)
	require.Len(t, layers, 1)
	require.Len(t, layers[0], 2)
}

func TestAssign_CycleDetected(t *testing.T) {
	a := sym("A")
	b := sym("B")
	a.DependsOnList = []*kconf.MenuEntry{b}
	b.DependsOnList = []*kconf.MenuEntry{a}

	_, err := layer.Assign([]*kconf.MenuEntry{a, b})
	require.Error(t, err)
	var circ *layer.CirculationDependsOnItems
	require.ErrorAs(t, err, &circ)
	require.Len(t, circ.Items, 2)
}
