package kconf

import (
	"io"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/kconfgo/kconfgo/internal/source"
)

// parseConfigAttrs consumes the indented attribute lines following a
// "config"/"menuconfig" header, stopping (and pushing the terminating line
// back) at the first line at column 0.
func (p *Parser) parseConfigAttrs(r *source.Reader, e *MenuEntry) {
	for {
		line, err := r.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			p.errorf(e.Pos, "%v", err)
			return
		}
		trimmed := strings.TrimSpace(line.Text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if leadingSpace(line.Text) == 0 {
			r.Unread(line)
			return
		}

		kw, rest := splitKeyword(trimmed)
		switch kw {
		case "bool", "tristate", "string", "int", "hex":
			e.ValueType = valueTypeOf(kw)
			if rest != "" {
				text, cond := splitIfSuffix(rest)
				e.Prompts = append(e.Prompts, Prompt{Text: p.unquote(text, line.Pos), RawCond: cond, Pos: line.Pos})
			}

		case "prompt":
			text, cond := splitIfSuffix(rest)
			e.Prompts = append(e.Prompts, Prompt{Text: p.unquote(text, line.Pos), RawCond: cond, Pos: line.Pos})

		case "default":
			val, cond := splitIfSuffix(rest)
			e.Defaults = append(e.Defaults, Default{RawValue: strings.TrimSpace(val), RawCond: cond, Pos: line.Pos})

		case "depends":
			rest = strings.TrimPrefix(rest, "on ")
			e.DependsOnRaw = append(e.DependsOnRaw, strings.TrimSpace(rest))
			e.DependsOnPos = append(e.DependsOnPos, line.Pos)

		case "select":
			target, cond := splitIfSuffix(rest)
			e.Selects = append(e.Selects, RevDep{TargetName: strings.TrimSpace(target), RawCond: cond, Pos: line.Pos})

		case "imply":
			target, cond := splitIfSuffix(rest)
			e.Implies = append(e.Implies, RevDep{TargetName: strings.TrimSpace(target), RawCond: cond, Pos: line.Pos})

		case "range":
			fields := strings.Fields(rest)
			if len(fields) < 2 {
				p.errorf(line.Pos, "range requires two bounds, got %q", rest)
				continue
			}
			rg := Range{Min: fields[0], Max: fields[1], Pos: line.Pos}
			if idx := strings.Index(rest, " if "); idx >= 0 {
				rg.RawCond = strings.TrimSpace(rest[idx+len(" if "):])
			}
			e.Ranges = append(e.Ranges, rg)

		case "visible":
			rest = strings.TrimPrefix(rest, "if ")
			e.VisibleIfRaw = strings.TrimSpace(rest)
			e.VisibleIfPos = line.Pos

		case "option":
			p.parseOption(e, rest, line.Pos)

		case "help", "---help---":
			e.Help = p.parseHelpBlock(r, leadingSpace(line.Text))

		default:
			p.errorf(line.Pos, "unexpected attribute %q", trimmed)
		}
	}
}

// parseChoiceAttrs is parseConfigAttrs restricted to the subset of
// attributes meaningful on a "choice" block, plus "optional".
func (p *Parser) parseChoiceAttrs(r *source.Reader, e *MenuEntry) {
	for {
		line, err := r.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			p.errorf(e.Pos, "%v", err)
			return
		}
		trimmed := strings.TrimSpace(line.Text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if leadingSpace(line.Text) == 0 {
			r.Unread(line)
			return
		}

		kw, rest := splitKeyword(trimmed)
		switch kw {
		case "bool", "tristate":
			e.ValueType = valueTypeOf(kw)
			if rest != "" {
				text, cond := splitIfSuffix(rest)
				e.Prompts = append(e.Prompts, Prompt{Text: p.unquote(text, line.Pos), RawCond: cond, Pos: line.Pos})
			}
		case "prompt":
			text, cond := splitIfSuffix(rest)
			e.Prompts = append(e.Prompts, Prompt{Text: p.unquote(text, line.Pos), RawCond: cond, Pos: line.Pos})
		case "default":
			val, cond := splitIfSuffix(rest)
			e.Defaults = append(e.Defaults, Default{RawValue: strings.TrimSpace(val), RawCond: cond, Pos: line.Pos})
		case "depends":
			rest = strings.TrimPrefix(rest, "on ")
			e.DependsOnRaw = append(e.DependsOnRaw, strings.TrimSpace(rest))
			e.DependsOnPos = append(e.DependsOnPos, line.Pos)
		case "optional":
			e.Optional = true
		case "help", "---help---":
			e.Help = p.parseHelpBlock(r, leadingSpace(line.Text))
		default:
			p.errorf(line.Pos, "unexpected choice attribute %q", trimmed)
		}
	}
}

// parseMenuAttrs consumes the optional "depends on"/"visible if" lines that
// may directly follow a "menu" header, before its nested entries begin.
func (p *Parser) parseMenuAttrs(r *source.Reader, e *MenuEntry) {
	for {
		line, err := r.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			p.errorf(e.Pos, "%v", err)
			return
		}
		trimmed := strings.TrimSpace(line.Text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if leadingSpace(line.Text) == 0 {
			r.Unread(line)
			return
		}
		kw, rest := splitKeyword(trimmed)
		switch kw {
		case "depends":
			rest = strings.TrimPrefix(rest, "on ")
			e.DependsOnRaw = append(e.DependsOnRaw, strings.TrimSpace(rest))
			e.DependsOnPos = append(e.DependsOnPos, line.Pos)
		case "visible":
			rest = strings.TrimPrefix(rest, "if ")
			e.VisibleIfRaw = strings.TrimSpace(rest)
			e.VisibleIfPos = line.Pos
		default:
			r.Unread(line)
			return
		}
	}
}

func (p *Parser) parseOption(e *MenuEntry, rest string, pos hcl.Pos) {
	_ = pos
	if strings.HasPrefix(rest, "env=") {
		e.OptionEnv = strings.TrimPrefix(rest, "env=")
		if v, ok := p.env.Lookup(e.OptionEnv); ok {
			e.OptionEnvValue = v
			e.OptionEnvSet = true
		} else {
			p.warnf(e.Pos, "option env=%s: environment variable not set", e.OptionEnv)
		}
		return
	}
	if rest == "modules" {
		e.OptionModules = true
		return
	}
	p.warnf(e.Pos, "unrecognized option %q", rest)
}

// parseHelpBlock reads the following lines indented strictly more than
// headerIndent, up to the first non-blank line indented less than the first
// help line, strips the first help line's indentation from every line,
// trims trailing whitespace, and returns the joined text. The terminating
// line is pushed back.
func (p *Parser) parseHelpBlock(r *source.Reader, headerIndent int) string {
	var lines []string
	firstIndent := -1
	for {
		line, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if strings.TrimSpace(line.Text) == "" {
			lines = append(lines, "")
			continue
		}
		indent := leadingSpace(line.Text)
		if indent <= headerIndent || (firstIndent >= 0 && indent < firstIndent) {
			r.Unread(line)
			break
		}
		if firstIndent < 0 {
			firstIndent = indent
		}
		lines = append(lines, line.Text)
	}
	return dedent(lines)
}

func dedent(lines []string) string {
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return ""
	}
	min := -1
	for _, l := range lines {
		if l == "" {
			continue
		}
		n := leadingSpace(l)
		if min == -1 || n < min {
			min = n
		}
	}
	if min < 0 {
		min = 0
	}
	for i, l := range lines {
		if len(l) >= min {
			lines[i] = strings.TrimRight(l[min:], " \t")
		}
	}
	return strings.Join(lines, "\n")
}

func valueTypeOf(kw string) ValueType {
	switch kw {
	case "bool":
		return TypeBool
	case "tristate":
		return TypeTristate
	case "string":
		return TypeString
	case "int":
		return TypeInt
	case "hex":
		return TypeHex
	default:
		return TypeUnknown
	}
}
