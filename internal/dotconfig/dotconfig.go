// Package dotconfig implements the ".config" text format described in
// spec.md §6: the banner/menu-header/per-symbol-line grammar a tree's
// current values serialize to and load from.
package dotconfig

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kconfgo/kconfgo/internal/eval"
	"github.com/kconfgo/kconfgo/internal/kconf"
	"github.com/kconfgo/kconfgo/internal/tri"
)

const banner = "Automatically generated file; DO NOT EDIT."

// Write serializes root's current tree to w in .config grammar: a file
// banner, a "# <menu title>" header ahead of each menu's first visible
// symbol, "CONFIG_NAME=value" for a set bool/tristate/string/int/hex
// symbol, and "# CONFIG_NAME is not set" for an unset bool/tristate one.
// Entries whose name begins with "$" are internal bookkeeping symbols
// (constant string literals interned during expression compilation never
// reach here, but a hand-authored tree could declare one) and are skipped.
func Write(w io.Writer, title string, root *kconf.MenuEntry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#\n# %s\n", banner)
	if title != "" {
		fmt.Fprintf(bw, "# %s\n", title)
	}
	fmt.Fprintln(bw, "#")

	writeEntries(bw, root, true)

	return bw.Flush()
}

func writeEntries(bw *bufio.Writer, e *kconf.MenuEntry, topLevel bool) {
	for _, c := range e.ChildEntries {
		switch c.Kind {
		case kconf.KindMenu:
			if !hasVisibleSymbol(c) {
				continue
			}
			fmt.Fprintf(bw, "\n#\n# %s\n#\n", promptText(c))
			writeEntries(bw, c, false)
		case kconf.KindChoice, kconf.KindSource:
			writeEntries(bw, c, false)
		case kconf.KindConfig, kconf.KindMenuConfig:
			writeSymbolLine(bw, c)
			if c.Kind == kconf.KindMenuConfig {
				writeEntries(bw, c, false)
			}
		case kconf.KindComment:
			// comments carry no value; they exist for the interactive UI only.
		}
	}
}

func writeSymbolLine(bw *bufio.Writer, e *kconf.MenuEntry) {
	if e.Name() == "" || strings.HasPrefix(e.Name(), "$") {
		return
	}
	switch e.ValueType {
	case kconf.TypeBool, kconf.TypeTristate:
		v, _ := tri.Parse(e.Value())
		if v == tri.N {
			fmt.Fprintf(bw, "# CONFIG_%s is not set\n", e.Name())
			return
		}
		fmt.Fprintf(bw, "CONFIG_%s=%s\n", e.Name(), v.String())
	case kconf.TypeString:
		fmt.Fprintf(bw, "CONFIG_%s=\"%s\"\n", e.Name(), strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(e.Value()))
	case kconf.TypeInt, kconf.TypeHex:
		if e.Value() == "" {
			return
		}
		fmt.Fprintf(bw, "CONFIG_%s=%s\n", e.Name(), e.Value())
	}
}

func hasVisibleSymbol(e *kconf.MenuEntry) bool {
	for _, c := range e.ChildEntries {
		switch c.Kind {
		case kconf.KindConfig, kconf.KindMenuConfig:
			if c.Name() != "" {
				return true
			}
		case kconf.KindMenu, kconf.KindChoice, kconf.KindSource:
			if hasVisibleSymbol(c) {
				return true
			}
		}
	}
	return false
}

func promptText(e *kconf.MenuEntry) string {
	if len(e.Prompts) == 0 {
		return e.Name()
	}
	return e.Prompts[0].Text
}

// Overlay is the set of symbol=value assignments read from a .config file,
// keyed by bare symbol name (without the "CONFIG_" prefix).
type Overlay map[string]string

// Read parses r in .config grammar into an Overlay. Unset symbols ("# CONFIG_X
// is not set") are recorded with the value "n" so callers can distinguish
// "explicitly unset" from "absent from the file entirely".
func Read(r io.Reader) (Overlay, error) {
	sc := bufio.NewScanner(r)
	out := Overlay{}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if name, ok := parseUnsetComment(line); ok {
			out[name] = "n"
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := parseAssignment(line)
		if !ok {
			continue
		}
		out[name] = value
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading .config: %w", err)
	}
	return out, nil
}

func parseUnsetComment(line string) (name string, ok bool) {
	const prefix = "# CONFIG_"
	const suffix = " is not set"
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, suffix) {
		return "", false
	}
	return line[len(prefix) : len(line)-len(suffix)], true
}

func parseAssignment(line string) (name, value string, ok bool) {
	const prefix = "CONFIG_"
	if !strings.HasPrefix(line, prefix) {
		return "", "", false
	}
	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		return "", "", false
	}
	name = line[len(prefix):idx]
	value = line[idx+1:]
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		unquoted, err := unquoteGo(value)
		if err == nil {
			value = unquoted
		}
	}
	return name, value, true
}

// unquoteGo unescapes a double-quoted .config string value using the same
// backslash/quote escaping the Kconfig line grammar itself uses (see
// internal/source.Reader's interpolation).
func unquoteGo(s string) (string, error) {
	var b strings.Builder
	for i := 1; i < len(s)-1; i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s)-1 {
			i++
			b.WriteByte(s[i])
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

// Apply assigns every overlay entry it finds a matching symbol for onto
// symbols (by name), marking each as user-set so internal/eval's weak
// "imply" floor does not override it, and returns the distinct set of
// entries that should seed a RecomputeFrom pass. Every value goes through
// eval.AssignUserValue: "y" on a choice's own child (or "n" on the selected
// child of an optional choice) becomes an assignment on the parent choice
// (spec.md §4.5.1), so the choice itself — not the child — is what gets
// returned as the seed; other values seed the symbol itself. Names present in the
// overlay but not in symbols are returned separately so the caller can warn
// about them.
func Apply(ov Overlay, byName map[string]*kconf.MenuEntry) (seeds []*kconf.MenuEntry, unknown []string) {
	seen := map[*kconf.MenuEntry]struct{}{}
	for name, value := range ov {
		sym, ok := byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		seed := eval.AssignUserValue(sym, value)
		if _, dup := seen[seed]; dup {
			continue
		}
		seen[seed] = struct{}{}
		seeds = append(seeds, seed)
	}
	return seeds, unknown
}
