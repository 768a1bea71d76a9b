package dotconfig_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kconfgo/kconfgo/internal/depgraph"
	"github.com/kconfgo/kconfgo/internal/dotconfig"
	"github.com/kconfgo/kconfgo/internal/eval"
	"github.com/kconfgo/kconfgo/internal/kconf"
	"github.com/kconfgo/kconfgo/internal/source"
	"github.com/stretchr/testify/require"

	"context"
)

func buildEvaluated(t *testing.T, content string) *depgraph.Graph {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Kconfig")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	p := kconf.NewParser(source.MapEnv{})
	root, diags := p.ParseFile(path)
	require.False(t, diags.HasErrors(), diags.Error())
	g, diags := depgraph.Build(root)
	require.False(t, diags.HasErrors(), diags.Error())
	ev, err := eval.New(g.Symbols)
	require.NoError(t, err)
	ev.EvaluateAll(context.Background())
	return g
}

func TestWrite_SetAndUnsetLines(t *testing.T) {
	g := buildEvaluated(t, `
config FOO
	bool "Foo"
	default y

config BAR
	bool "Bar"
	default n
`)
	var buf strings.Builder
	require.NoError(t, dotconfig.Write(&buf, "Test Project", g.Root))
	out := buf.String()
	require.Contains(t, out, "CONFIG_FOO=y")
	require.Contains(t, out, "# CONFIG_BAR is not set")
}

func TestWrite_MenuHeader(t *testing.T) {
	g := buildEvaluated(t, `
menu "Networking"

config NET
	bool "Net"
	default y

endmenu
`)
	var buf strings.Builder
	require.NoError(t, dotconfig.Write(&buf, "", g.Root))
	require.Contains(t, buf.String(), "# Networking")
}

func TestReadApply_RoundTrip(t *testing.T) {
	g := buildEvaluated(t, `
config FOO
	bool "Foo"
	default n

config NAME
	string "name"
	default "a"
`)
	input := `
CONFIG_FOO=y
CONFIG_NAME="hello"
`
	ov, err := dotconfig.Read(strings.NewReader(input))
	require.NoError(t, err)
	_, unknown := dotconfig.Apply(ov, g.ByName)
	require.Empty(t, unknown)

	require.True(t, g.ByName["FOO"].UserSet)
	require.Equal(t, "y", g.ByName["FOO"].Value())
	require.Equal(t, "hello", g.ByName["NAME"].Value())
}

func TestReadApply_UnknownSymbolReported(t *testing.T) {
	g := buildEvaluated(t, `
config FOO
	bool "Foo"
`)
	ov, err := dotconfig.Read(strings.NewReader("CONFIG_GHOST=y\n"))
	require.NoError(t, err)
	_, unknown := dotconfig.Apply(ov, g.ByName)
	require.Equal(t, []string{"GHOST"}, unknown)
}
