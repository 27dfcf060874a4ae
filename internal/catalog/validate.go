package catalog

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidCatalog marks every catalog integrity failure.
	ErrInvalidCatalog = errors.New("invalid feature catalog")
	// ErrUnknownKey marks an edge, exclusion or sub-option naming a missing feature.
	ErrUnknownKey = errors.New("unknown feature key")
	// ErrCycle marks a cycle in the prerequisite graph.
	ErrCycle = errors.New("prerequisite cycle")
)

func invalidf(mark error, format string, args ...interface{}) error {
	err := errors.Newf(format, args...)
	if mark != nil {
		err = errors.Mark(err, mark)
	}
	return errors.Mark(err, ErrInvalidCatalog)
}

// Validate checks the catalog's structural invariants and returns the first
// violation found. Keys listed in reserved (derived flags) may not be declared.
func (c *Catalog) Validate(reserved ...string) error {
	isReserved := make(map[string]bool, len(reserved))
	for _, r := range reserved {
		isReserved[r] = true
	}

	seen := make(map[string]bool, len(c.features))
	for _, f := range c.features {
		if strings.TrimSpace(f.Key) == "" {
			return invalidf(nil, "feature %q has an empty key", f.Label)
		}
		if seen[f.Key] {
			return invalidf(nil, "duplicate feature key %q", f.Key)
		}
		seen[f.Key] = true
		if isReserved[f.Key] {
			return invalidf(nil, "feature %q collides with a derived flag", f.Key)
		}
		if err := validateFeature(f); err != nil {
			return err
		}
	}

	for _, f := range c.features {
		if f.SubOptionOf == "" {
			continue
		}
		if !seen[f.SubOptionOf] {
			return invalidf(ErrUnknownKey, "feature %q is a sub-option of unknown feature %q", f.Key, f.SubOptionOf)
		}
		if f.SubOptionOf == f.Key {
			return invalidf(nil, "feature %q is a sub-option of itself", f.Key)
		}
	}

	edgeSeen := make(map[Edge]bool, len(c.edges))
	for _, e := range c.edges {
		if !seen[e.Dependent] {
			return invalidf(ErrUnknownKey, "edge %s -> %s: unknown dependent %q", e.Dependent, e.Prerequisite, e.Dependent)
		}
		if !seen[e.Prerequisite] {
			return invalidf(ErrUnknownKey, "edge %s -> %s: unknown prerequisite %q", e.Dependent, e.Prerequisite, e.Prerequisite)
		}
		if e.Dependent == e.Prerequisite {
			return invalidf(ErrCycle, "feature %q requires itself", e.Dependent)
		}
		if edgeSeen[e] {
			return invalidf(nil, "duplicate edge %s -> %s", e.Dependent, e.Prerequisite)
		}
		edgeSeen[e] = true
	}

	for _, x := range c.exclusions {
		if !seen[x.A] {
			return invalidf(ErrUnknownKey, "exclusion %s / %s: unknown feature %q", x.A, x.B, x.A)
		}
		if !seen[x.B] {
			return invalidf(ErrUnknownKey, "exclusion %s / %s: unknown feature %q", x.A, x.B, x.B)
		}
		if x.A == x.B {
			return invalidf(nil, "feature %q excludes itself", x.A)
		}
	}

	if _, err := c.TopoOrder(); err != nil {
		return err
	}
	return nil
}

func validateFeature(f Feature) error {
	switch f.Kind {
	case Boolean:
		if len(f.Options) > 0 {
			return invalidf(nil, "boolean feature %q declares options", f.Key)
		}
	case Enumerated:
		if len(f.Options) < 2 {
			return invalidf(nil, "enumerated feature %q needs at least two options", f.Key)
		}
		values := make(map[string]bool, len(f.Options))
		for _, o := range f.Options {
			if values[o.Value] {
				return invalidf(nil, "enumerated feature %q repeats option %q", f.Key, o.Value)
			}
			values[o.Value] = true
		}
	default:
		return invalidf(nil, "feature %q has unknown kind %d", f.Key, int(f.Kind))
	}
	return nil
}

// TopoOrder returns every feature key ordered so that prerequisites come before
// their dependents. Ties keep catalog order.
func (c *Catalog) TopoOrder() ([]string, error) {
	deg := make(map[string]int, len(c.features))
	for _, f := range c.features {
		deg[f.Key] = 0
	}
	for _, e := range c.edges {
		deg[e.Dependent]++
	}

	var queue, sorted []string
	for _, f := range c.features {
		if deg[f.Key] == 0 {
			queue = append(queue, f.Key)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		sorted = append(sorted, cur)
		for _, dep := range c.dependents[cur] {
			deg[dep]--
			if deg[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(sorted) != len(deg) {
		var stuck []string
		for k, d := range deg {
			if d > 0 {
				stuck = append(stuck, k)
			}
		}
		sort.Strings(stuck)
		return nil, invalidf(ErrCycle, "prerequisite cycle among %s", strings.Join(stuck, ", "))
	}
	return sorted, nil
}
