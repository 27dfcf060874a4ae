package codegen

import (
	"fmt"

	"github.com/marcus/byot/internal/features"
)

// Problem is one finding of Check or Lint.
type Problem struct {
	Fragment string
	Symbol   string
	Line     int
	Message  string
}

func (p Problem) String() string {
	switch {
	case p.Fragment != "" && p.Symbol != "":
		return fmt.Sprintf("%s: %s: %s", p.Fragment, p.Symbol, p.Message)
	case p.Line > 0:
		return fmt.Sprintf("line %d: %s", p.Line, p.Message)
	default:
		return p.Message
	}
}

// Check walks the fragments emitted for cfg and reports every symbol that is
// used before any earlier fragment defines or declares it, and every
// declaration that no emitted fragment defines.
func (g *Generator) Check(cfg features.Config) []Problem {
	f := g.Flags(cfg)

	var emitted []Fragment
	definedBy := make(map[string]string)
	for _, fr := range library {
		if !fr.Enabled(f) || fr.Render(f) == "" {
			continue
		}
		emitted = append(emitted, fr)
		for _, s := range fr.defines(f) {
			if _, ok := definedBy[s]; !ok {
				definedBy[s] = fr.Name
			}
		}
	}

	var problems []Problem
	available := make(map[string]bool)
	declaredBy := make(map[string]string)
	for _, fr := range emitted {
		for _, s := range fr.defines(f) {
			available[s] = true
		}
		for _, s := range fr.uses(f) {
			if available[s] {
				continue
			}
			msg := "used but never defined"
			if def, ok := definedBy[s]; ok {
				msg = "used before " + def + " defines it"
			}
			problems = append(problems, Problem{Fragment: fr.Name, Symbol: s, Message: msg})
		}
		for _, s := range fr.declares(f) {
			available[s] = true
			if _, ok := declaredBy[s]; !ok {
				declaredBy[s] = fr.Name
			}
		}
	}

	for _, fr := range emitted {
		for _, s := range fr.declares(f) {
			if declaredBy[s] != fr.Name {
				continue
			}
			if _, ok := definedBy[s]; !ok {
				problems = append(problems, Problem{Fragment: fr.Name, Symbol: s, Message: "declared but never defined"})
			}
		}
	}
	return problems
}

var closing = map[byte]byte{')': '(', ']': '[', '}': '{'}

// Lint checks that brackets in generated text balance. Line comments and
// string or character literals are skipped; an apostrophe that follows a
// digit is a digit separator.
func Lint(code string) []Problem {
	type open struct {
		ch   byte
		line int
	}
	var (
		stack    []open
		problems []Problem
		line     = 1
	)
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '\n':
			line++
		case c == '/' && i+1 < len(code) && code[i+1] == '/':
			for i < len(code) && code[i] != '\n' {
				i++
			}
			i--
		case c == '"' || (c == '\'' && !(i > 0 && isAlnum(code[i-1]))):
			for i++; i < len(code) && code[i] != c; i++ {
				if code[i] == '\\' {
					i++
				}
				if i < len(code) && code[i] == '\n' {
					problems = append(problems, Problem{Line: line, Message: "unterminated literal"})
					line++
					break
				}
			}
		case c == '(' || c == '[' || c == '{':
			stack = append(stack, open{ch: c, line: line})
		case c == ')' || c == ']' || c == '}':
			if len(stack) == 0 {
				problems = append(problems, Problem{Line: line, Message: fmt.Sprintf("unmatched %q", c)})
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.ch != closing[c] {
				problems = append(problems, Problem{
					Line:    line,
					Message: fmt.Sprintf("%q closes %q opened on line %d", c, top.ch, top.line),
				})
			}
		}
	}
	for _, o := range stack {
		problems = append(problems, Problem{Line: o.line, Message: fmt.Sprintf("unclosed %q", o.ch)})
	}
	return problems
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
