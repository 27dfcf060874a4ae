package codegen

import (
	"fmt"
	"strings"

	"github.com/marcus/byot/internal/derive"
)

// Fragment is one gated block of generated C++.
//
// Render is only called when every key in When is on, so renderers never
// re-check their own gate. Defines, Declares and Uses describe the symbols
// the block provides and needs; Check walks them to find references that no
// earlier block provides.
type Fragment struct {
	Name string
	When []string

	Render   func(Flags) string
	Defines  func(Flags) []string
	Declares func(Flags) []string
	Uses     func(Flags) []string
}

// Enabled reports whether the fragment emits anything under f.
func (fr Fragment) Enabled(f Flags) bool {
	return f.All(fr.When...)
}

func (fr Fragment) defines(f Flags) []string  { return call(fr.Defines, f) }
func (fr Fragment) declares(f Flags) []string { return call(fr.Declares, f) }
func (fr Fragment) uses(f Flags) []string     { return call(fr.Uses, f) }

func call(fn func(Flags) []string, f Flags) []string {
	if fn == nil {
		return nil
	}
	return fn(f)
}

type symbols []string

func syms(s ...string) symbols {
	return symbols(s)
}

func (s symbols) when(cond bool, more ...string) symbols {
	if cond {
		return append(s, more...)
	}
	return s
}

// static returns a symbol func that ignores flags.
func static(s ...string) func(Flags) []string {
	return func(Flags) []string { return s }
}

// withPushPull appends push and pull to s when the configuration emits them.
func withPushPull(f Flags, s ...string) []string {
	return syms(s...).
		when(f.On(derive.Push), "push").
		when(f.On(derive.Pull), "pull")
}

// withPush appends push to s when the configuration emits it.
func withPush(f Flags, s ...string) []string {
	return syms(s...).when(f.On(derive.Push), "push")
}

// text accumulates generated lines.
type text struct {
	strings.Builder
}

// ln writes each argument as its own line.
func (t *text) ln(lines ...string) {
	for _, l := range lines {
		t.WriteString(l)
		t.WriteByte('\n')
	}
}

// lnf writes one formatted line.
func (t *text) lnf(format string, args ...interface{}) {
	fmt.Fprintf(&t.Builder, format, args...)
	t.WriteByte('\n')
}

// lnIf writes lines only when cond holds.
func (t *text) lnIf(cond bool, lines ...string) {
	if cond {
		t.ln(lines...)
	}
}

// end closes a top-level block with a blank separator line.
func (t *text) end() string {
	t.WriteByte('\n')
	return t.String()
}
