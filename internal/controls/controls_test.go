package controls_test

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/kconfgo/kconfgo/internal/controls"
	"github.com/kconfgo/kconfgo/internal/kconf"
	"github.com/stretchr/testify/require"
)

func sym(name string) *kconf.MenuEntry {
	e := kconf.NewMenuEntry(kconf.KindConfig, hcl.Pos{})
	e.SetName(name)
	e.ValueType = kconf.TypeBool
	return e
}

func TestCompute_DependsOnReversesIntoControls(t *testing.T) {
	a := sym("A")
	b := sym("B")
	b.DependsOnList = []*kconf.MenuEntry{a}

	controls.Compute([]*kconf.MenuEntry{a, b})

	require.Contains(t, a.ControlsList, b)
	require.Empty(t, b.ControlsList)
}

func TestCompute_SelectIsAControlEdge(t *testing.T) {
	a := sym("A")
	b := sym("B")
	a.Selects = []kconf.RevDep{{TargetName: "B", Target: b}}

	controls.Compute([]*kconf.MenuEntry{a, b})

	require.Contains(t, a.ControlsList, b)
}

func TestCompute_NoDuplicateEdges(t *testing.T) {
	a := sym("A")
	b := sym("B")
	b.DependsOnList = []*kconf.MenuEntry{a}
	a.Selects = []kconf.RevDep{{TargetName: "B", Target: b}}

	controls.Compute([]*kconf.MenuEntry{a, b})

	require.Len(t, a.ControlsList, 1)
}
