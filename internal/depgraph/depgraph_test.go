package depgraph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kconfgo/kconfgo/internal/depgraph"
	"github.com/kconfgo/kconfgo/internal/kconf"
	"github.com/kconfgo/kconfgo/internal/source"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, content string) *kconf.MenuEntry {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Kconfig")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	p := kconf.NewParser(source.MapEnv{})
	root, diags := p.ParseFile(path)
	require.False(t, diags.HasErrors(), diags.Error())
	return root
}

func TestBuild_DependsOnLinking(t *testing.T) {
	root := parse(t, `
config A
	bool "A"

config B
	bool "B"
	depends on A
`)
	g, diags := depgraph.Build(root)
	require.False(t, diags.HasErrors(), diags.Error())

	a := g.ByName["A"]
	b := g.ByName["B"]
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.Contains(t, b.DependsOnList, a)
}

func TestBuild_SelectLinksReverse(t *testing.T) {
	root := parse(t, `
config A
	bool "A"
	select B

config B
	bool "B"
`)
	g, diags := depgraph.Build(root)
	require.False(t, diags.HasErrors(), diags.Error())

	a := g.ByName["A"]
	b := g.ByName["B"]
	require.Contains(t, b.BeSelectedList, a)
	require.Equal(t, b, a.Selects[0].Target)
}

func TestBuild_ImplyLinksReverse(t *testing.T) {
	root := parse(t, `
config A
	bool "A"
	imply B

config B
	bool "B"
`)
	g, diags := depgraph.Build(root)
	require.False(t, diags.HasErrors(), diags.Error())

	a := g.ByName["A"]
	b := g.ByName["B"]
	require.Contains(t, b.BeImpliedList, a)
}

func TestBuild_SelectUndeclaredTargetWarnsButLoads(t *testing.T) {
	root := parse(t, `
config A
	bool "A"
	select MISSING
`)
	g, diags := depgraph.Build(root)
	require.False(t, diags.HasErrors(), diags.Error())

	a := g.ByName["A"]
	require.Nil(t, a.Selects[0].Target)
}

func TestBuild_ChoiceChildGetsChoiceDependency(t *testing.T) {
	root := parse(t, `
choice
	prompt "pick"

config A
	bool "A"

config B
	bool "B"

endchoice
`)
	_, diags := depgraph.Build(root)
	require.False(t, diags.HasErrors(), diags.Error())

	choice := root.ChildEntries[0]
	a := choice.ChildEntries[0]
	require.Contains(t, a.DependsOnList, choice)
}

func TestBuild_DefaultCompilesToTriLiteral(t *testing.T) {
	root := parse(t, `
config A
	bool "A"
	default y
`)
	g, diags := depgraph.Build(root)
	require.False(t, diags.HasErrors(), diags.Error())
	a := g.ByName["A"]
	require.Equal(t, "y", a.Defaults[0].Value)
}

func TestBuild_StringDefaultLiteral(t *testing.T) {
	root := parse(t, `
config NAME
	string "name"
	default "hello world"
`)
	g, diags := depgraph.Build(root)
	require.False(t, diags.HasErrors(), diags.Error())
	name := g.ByName["NAME"]
	require.Equal(t, "hello world", name.Defaults[0].Value)
}
