package source_test

import (
	"io"
	"strings"
	"testing"

	"github.com/kconfgo/kconfgo/internal/source"
	"github.com/stretchr/testify/require"
)

func TestReader_LinesAndPositions(t *testing.T) {
	r := source.NewReader(strings.NewReader("config A\n\tbool \"A\"\n"), "Kconfig", source.MapEnv{})

	l1, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "config A", l1.Text)
	require.Equal(t, 1, l1.Pos.Line)
	require.Equal(t, "Kconfig", l1.Pos.Filename)

	l2, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "        bool \"A\"", l2.Text)
	require.Equal(t, 2, l2.Pos.Line)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_Unread(t *testing.T) {
	r := source.NewReader(strings.NewReader("one\ntwo\n"), "f", source.MapEnv{})

	l1, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "one", l1.Text)

	r.Unread(l1)

	l1Again, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, l1, l1Again)

	l2, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "two", l2.Text)
}

func TestReader_EnvInterpolationInsideQuotes(t *testing.T) {
	env := source.MapEnv{"BOARD": "rpi4"}
	r := source.NewReader(strings.NewReader(`string "board-$(BOARD)"`+"\n"), "f", env)

	l, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, `string "board-rpi4"`, l.Text)
}

func TestReader_BareDollarUntouchedOutsideQuotes(t *testing.T) {
	r := source.NewReader(strings.NewReader("# price is $5\n"), "f", source.MapEnv{})
	l, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "# price is $5", l.Text)
}

func TestReader_UnsetEnvVarExpandsEmpty(t *testing.T) {
	r := source.NewReader(strings.NewReader(`string "x-$(MISSING)-y"`+"\n"), "f", source.MapEnv{})
	l, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, `string "x--y"`, l.Text)
}
