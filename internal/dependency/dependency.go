// Package dependency resolves prerequisite edges and mutual exclusions over
// a feature configuration: which features are unavailable, how to switch a
// feature on together with everything it needs, and how to bring a
// configuration back in line after a change.
package dependency

import (
	"log/slog"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/features"
)

// ErrUnknownFeature is returned when a key is not in the catalog.
var ErrUnknownFeature = features.ErrUnknownFeature

// Resolver answers dependency questions for one catalog.
type Resolver struct {
	cat    *catalog.Catalog
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for cascade tracing.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a resolver over cat. cat must already be validated.
func New(cat *catalog.Catalog, opts ...Option) *Resolver {
	r := &Resolver{cat: cat, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the catalog the resolver reads.
func (r *Resolver) Catalog() *catalog.Catalog {
	return r.cat
}

// ComputeDisabled returns every key that has an inactive prerequisite or an
// active exclusion partner.
func (r *Resolver) ComputeDisabled(cfg features.Config) Set {
	disabled := make(Set)
	for _, e := range r.cat.Edges() {
		if !features.Active(r.cat, cfg, e.Prerequisite) {
			disabled.add(e.Dependent)
		}
	}
	for _, x := range r.cat.Exclusions() {
		if features.Active(r.cat, cfg, x.A) {
			disabled.add(x.B)
		}
		if features.Active(r.cat, cfg, x.B) {
			disabled.add(x.A)
		}
	}
	return disabled
}

// EnableWithPrerequisites returns a copy of cfg with key and, depth first,
// all of its transitive prerequisites switched on. Each key is visited at
// most once, so a cyclic edge list terminates. Exclusions are not consulted;
// a later reconciliation pass settles any conflict.
//
// An enumerated prerequisite keeps a non-default value it already has. The
// requested key itself always ends on its activation value (options[1]).
func (r *Resolver) EnableWithPrerequisites(cfg features.Config, key string) (features.Config, error) {
	f, ok := r.cat.Lookup(key)
	if !ok {
		return cfg, errors.Mark(errors.Newf("unknown feature %q", key), ErrUnknownFeature)
	}
	out := cfg.Clone()
	visited := make(map[string]bool)
	r.enable(&out, key, visited)
	if f.Kind == catalog.Enumerated {
		out.SetEnum(key, f.ActivationValue())
	}
	return out, nil
}

func (r *Resolver) enable(cfg *features.Config, key string, visited map[string]bool) {
	if visited[key] {
		return
	}
	visited[key] = true

	for _, pre := range r.cat.Prerequisites(key) {
		r.enable(cfg, pre, visited)
	}
	if !features.Active(r.cat, *cfg, key) {
		r.logger.Debug("cascade enable", "feature", key)
	}
	features.Activate(r.cat, cfg, key)
}

// Reconcile forces every disabled key back to its inactive value and reports
// whether anything changed.
func (r *Resolver) Reconcile(cfg features.Config, disabled Set) (features.Config, bool) {
	out := cfg.Clone()
	changed := false
	for _, key := range disabled.Keys() {
		if !features.Active(r.cat, out, key) {
			continue
		}
		features.Deactivate(r.cat, &out, key)
		changed = true
		r.logger.Debug("reconcile", "feature", key)
	}
	return out, changed
}

// Reason explains why a key is disabled under some configuration.
type Reason struct {
	Key string
	// Missing lists direct prerequisites that are inactive.
	Missing []string
	// Conflicts lists active exclusion partners.
	Conflicts []string
}

// Disabled reports whether the reason blocks the key.
func (r Reason) Disabled() bool {
	return len(r.Missing) > 0 || len(r.Conflicts) > 0
}

// Explain returns why key is, or is not, disabled under cfg.
func (r *Resolver) Explain(cfg features.Config, key string) (Reason, error) {
	if !r.cat.Has(key) {
		return Reason{}, errors.Mark(errors.Newf("unknown feature %q", key), ErrUnknownFeature)
	}
	reason := Reason{Key: key}
	for _, pre := range r.cat.Prerequisites(key) {
		if !features.Active(r.cat, cfg, pre) {
			reason.Missing = append(reason.Missing, pre)
		}
	}
	for _, p := range r.cat.Partners(key) {
		if features.Active(r.cat, cfg, p) {
			reason.Conflicts = append(reason.Conflicts, p)
		}
	}
	return reason, nil
}

// TransitivePrerequisites returns every key reachable from key along
// prerequisite edges, sorted.
func (r *Resolver) TransitivePrerequisites(key string) []string {
	return r.walk(key, r.cat.Prerequisites)
}

// TransitiveDependents returns every key that transitively requires key,
// sorted.
func (r *Resolver) TransitiveDependents(key string) []string {
	return r.walk(key, r.cat.Dependents)
}

func (r *Resolver) walk(key string, next func(string) []string) []string {
	visited := map[string]bool{key: true}
	var out []string
	var visit func(string)
	visit = func(k string) {
		for _, n := range next(k) {
			if visited[n] {
				continue
			}
			visited[n] = true
			out = append(out, n)
			visit(n)
		}
	}
	visit(key)
	sort.Strings(out)
	return out
}

// WouldCreateCycle reports whether adding the edge dependent -> prerequisite
// would close a cycle.
func (r *Resolver) WouldCreateCycle(dependent, prerequisite string) bool {
	visited := make(map[string]bool)
	return r.hasCyclePath(prerequisite, dependent, visited)
}

// hasCyclePath checks if there's a path from 'from' to 'to' along prerequisite edges.
func (r *Resolver) hasCyclePath(from, to string, visited map[string]bool) bool {
	if from == to {
		return true
	}
	if visited[from] {
		return false
	}
	visited[from] = true

	for _, pre := range r.cat.Prerequisites(from) {
		if r.hasCyclePath(pre, to, visited) {
			return true
		}
	}
	return false
}
