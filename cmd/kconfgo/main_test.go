package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ShouldExit(t *testing.T) {
	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err)
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_ParseErrorReturnsExitError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Kconfig")
	require.NoError(t, os.WriteFile(path, []byte(`
config A
	bool "A"
	depends on UNDECLARED_B == "x"
`), 0o644))

	out := &bytes.Buffer{}
	err := run(out, []string{path})
	require.Error(t, err)
}

func TestRun_WritesDotConfig(t *testing.T) {
	dir := t.TempDir()
	kconfigPath := filepath.Join(dir, "Kconfig")
	require.NoError(t, os.WriteFile(kconfigPath, []byte(`
config FOO
	bool "Foo"
	default y
`), 0o644))

	outputPath := filepath.Join(dir, "out.config")
	out := &bytes.Buffer{}
	err := run(out, []string{"-output", outputPath, kconfigPath})
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "CONFIG_FOO=y")
}

func TestRun_SetAssignsValue(t *testing.T) {
	dir := t.TempDir()
	kconfigPath := filepath.Join(dir, "Kconfig")
	require.NoError(t, os.WriteFile(kconfigPath, []byte(`
config FOO
	bool "Foo"
	default n
`), 0o644))

	outputPath := filepath.Join(dir, "out.config")
	out := &bytes.Buffer{}
	err := run(out, []string{"-output", outputPath, "-set", "FOO=y", kconfigPath})
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "CONFIG_FOO=y")
}
