// Package textdiff compares generated sources line by line.
package textdiff

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns a unified diff from a to b, or "" when they are equal.
func Unified(a, b, fromName, toName string, context int) (string, error) {
	if a == b {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  context,
	})
}

// Change summarizes how b differs from a.
type Change struct {
	// Added holds zero-based line numbers of b that are new or replaced.
	Added map[int]bool
	// Removed counts lines of a with no counterpart in b.
	Removed int
}

// Empty reports whether nothing changed.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && c.Removed == 0
}

// Lines compares a and b and reports which lines of b are new.
func Lines(a, b string) Change {
	ch := Change{Added: make(map[int]bool)}
	if a == b {
		return ch
	}
	m := difflib.NewMatcher(difflib.SplitLines(a), difflib.SplitLines(b))
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r', 'i':
			for j := op.J1; j < op.J2; j++ {
				ch.Added[j] = true
			}
			if op.Tag == 'r' {
				ch.Removed += op.I2 - op.I1
			}
		case 'd':
			ch.Removed += op.I2 - op.I1
		}
	}
	return ch
}
