package kconfgo_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kconfgo/kconfgo"
	"github.com/kconfgo/kconfgo/internal/source"
	"github.com/stretchr/testify/require"
)

func writeKconfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Kconfig")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse_EvaluatesOnLoad(t *testing.T) {
	path := writeKconfig(t, `
config FOO
	bool "Foo"
	default y
`)
	tree, diags := kconfgo.Parse(context.Background(), path, source.MapEnv{})
	require.False(t, diags.HasErrors(), diags.Error())
	sym, ok := tree.Lookup("FOO")
	require.True(t, ok)
	require.Equal(t, "y", sym.Value())
}

func TestSetValue_RecomputesDependents(t *testing.T) {
	path := writeKconfig(t, `
config A
	bool "A"
	default n

config B
	bool "B"
	depends on A
	default y
`)
	tree, diags := kconfgo.Parse(context.Background(), path, source.MapEnv{})
	require.False(t, diags.HasErrors(), diags.Error())

	b, _ := tree.Lookup("B")
	require.Equal(t, "n", b.Value())

	_, err := tree.SetValue(context.Background(), "A", "y")
	require.NoError(t, err)
	require.Equal(t, "y", b.Value())
}

func TestSetValue_ChoiceChildYReassignsParent(t *testing.T) {
	path := writeKconfig(t, `
choice
	prompt "C"
	default X

config X
	bool "X"

config Y
	bool "Y"

endchoice
`)
	tree, diags := kconfgo.Parse(context.Background(), path, source.MapEnv{})
	require.False(t, diags.HasErrors(), diags.Error())

	x, _ := tree.Lookup("X")
	y, _ := tree.Lookup("Y")
	require.Equal(t, "y", x.Value())
	require.Equal(t, "n", y.Value())

	_, err := tree.SetValue(context.Background(), "Y", "y")
	require.NoError(t, err)

	require.Equal(t, "Y", x.Parent.Value())
	require.Equal(t, "y", y.Value())
	require.Equal(t, "n", x.Value())
}

func TestSetValue_DirectEditOfSelectTargetReclampsFloor(t *testing.T) {
	path := writeKconfig(t, `
config A
	bool "A"
	default y
	select B

config B
	bool "B"
	default n
`)
	tree, diags := kconfgo.Parse(context.Background(), path, source.MapEnv{})
	require.False(t, diags.HasErrors(), diags.Error())

	b, _ := tree.Lookup("B")
	require.Equal(t, "y", b.Value())

	_, err := tree.SetValue(context.Background(), "B", "n")
	require.NoError(t, err)
	require.Equal(t, "y", b.Value(), "select floor must re-assert even on a direct edit of its own target")
}

func TestFilterSelect_KeepsAncestorsOfMatches(t *testing.T) {
	path := writeKconfig(t, `
menu "Networking"

config NET_FOO
	bool "Foo networking"

config NET_BAR
	bool "Bar networking"

endmenu
`)
	tree, diags := kconfgo.Parse(context.Background(), path, source.MapEnv{})
	require.False(t, diags.HasErrors(), diags.Error())

	matched, err := tree.FilterSelect("foo", false)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.Equal(t, "NET_FOO", matched[0].Name())

	foo, _ := tree.Lookup("NET_FOO")
	bar, _ := tree.Lookup("NET_BAR")
	require.False(t, foo.IsFiltered)
	require.False(t, foo.Parent.IsFiltered, "ancestor menu of a match must be unfiltered")
	require.True(t, bar.IsFiltered)

	tree.ClearFilter()
	require.False(t, bar.IsFiltered)
}

func TestWriteAndLoadDotConfig_RoundTrips(t *testing.T) {
	path := writeKconfig(t, `
config FOO
	bool "Foo"
	default n

config NAME
	string "name"
	default "a"
`)
	tree, diags := kconfgo.Parse(context.Background(), path, source.MapEnv{})
	require.False(t, diags.HasErrors(), diags.Error())

	var buf strings.Builder
	require.NoError(t, tree.WriteDotConfig(&buf, "Demo"))
	require.Contains(t, buf.String(), "# CONFIG_FOO is not set")

	overlay := `
CONFIG_FOO=y
CONFIG_NAME="hello"
`
	unknown, diags, err := tree.LoadDotConfig(context.Background(), strings.NewReader(overlay))
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Empty(t, unknown)

	foo, _ := tree.Lookup("FOO")
	name, _ := tree.Lookup("NAME")
	require.Equal(t, "y", foo.Value())
	require.Equal(t, "hello", name.Value())
}
