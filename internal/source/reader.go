// Package source implements the line-oriented reader that feeds
// internal/kconf's parser: a pushback-capable scanner over a Kconfig text
// file, with tab expansion, $(VAR) environment interpolation inside quoted
// regions, and hcl.Pos-carrying line positions for diagnostics.
package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

const tabWidth = 8

// Line is one physical line read from a Reader, already tab-expanded and
// env-interpolated, tagged with its source position.
type Line struct {
	Text string
	Pos  hcl.Pos
}

// Reader scans a single Kconfig text file line by line. It supports one
// level of pushback so the parser can look ahead a line (e.g. to decide
// whether a "help" block continues) and put it back.
type Reader struct {
	filename string
	scanner  *bufio.Scanner
	env      EnvProvider
	lineNo   int
	pushed   *Line
	done     bool
}

// NewReader wraps r as a Kconfig source file named filename (used only for
// diagnostic positions). env resolves $(VAR) interpolation; pass OSEnv{} for
// real environment access or a MapEnv for deterministic tests.
func NewReader(r io.Reader, filename string, env EnvProvider) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{filename: filename, scanner: sc, env: env}
}

// Filename returns the name this reader was constructed with.
func (r *Reader) Filename() string { return r.filename }

// Next returns the next logical line, or io.EOF when the file is exhausted.
func (r *Reader) Next() (Line, error) {
	if r.pushed != nil {
		l := *r.pushed
		r.pushed = nil
		return l, nil
	}
	if r.done {
		return Line{}, io.EOF
	}
	if !r.scanner.Scan() {
		r.done = true
		if err := r.scanner.Err(); err != nil {
			return Line{}, fmt.Errorf("reading %s: %w", r.filename, err)
		}
		return Line{}, io.EOF
	}
	r.lineNo++
	raw := expandTabs(r.scanner.Text())
	text := r.interpolate(raw)
	return Line{
		Text: text,
		Pos:  hcl.Pos{Filename: r.filename, Line: r.lineNo, Column: 1},
	}, nil
}

// Unread pushes line back so the next call to Next returns it again. Only
// one line of pushback is supported; Unread after Unread panics.
func (r *Reader) Unread(line Line) {
	if r.pushed != nil {
		panic("source: Unread called twice without an intervening Next")
	}
	r.pushed = &line
}

func expandTabs(s string) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - (col % tabWidth)
			for i := 0; i < n; i++ {
				b.WriteByte(' ')
			}
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// interpolate expands $(VAR) references found inside double-quoted regions
// of the line. Outside quotes the text is left untouched, since bare "$"
// has no meaning in Kconfig's line grammar.
func (r *Reader) interpolate(s string) string {
	if !strings.ContainsRune(s, '$') {
		return s
	}
	var b strings.Builder
	inQuotes := false
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			b.WriteByte(c)
			i++
		case c == '$' && inQuotes && i+1 < len(s) && s[i+1] == '(':
			end := strings.IndexByte(s[i+2:], ')')
			if end < 0 {
				b.WriteByte(c)
				i++
				continue
			}
			name := s[i+2 : i+2+end]
			if val, ok := r.env.Lookup(name); ok {
				b.WriteString(val)
			}
			i += 2 + end + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
