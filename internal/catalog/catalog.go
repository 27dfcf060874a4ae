// Package catalog holds the static feature catalog: the feature descriptors shown
// by the configurator together with their prerequisite edges and mutual exclusions.
//
// A Catalog is immutable once built and is passed explicitly to the resolver,
// the derived-flag calculator and the code generator.
package catalog

import (
	"sort"
)

// Kind distinguishes on/off features from features with a list of choices.
type Kind int

const (
	Boolean Kind = iota
	Enumerated
)

// String returns the catalog spelling of the kind.
func (k Kind) String() string {
	switch k {
	case Boolean:
		return "bool"
	case Enumerated:
		return "enum"
	default:
		return "unknown"
	}
}

// Option is one choice of an enumerated feature.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Feature describes one configurable unit of generated code.
//
// For enumerated features Options[0] is the inactive value and Options[1] is the
// value picked when the feature is switched on as a prerequisite of another one.
type Feature struct {
	Key         string
	Section     string
	Kind        Kind
	Label       string
	Options     []Option
	Tooltip     string
	SubOptionOf string
}

// Default returns the inactive value of an enumerated feature.
func (f Feature) Default() string {
	if len(f.Options) == 0 {
		return ""
	}
	return f.Options[0].Value
}

// ActivationValue returns the value chosen when the feature is auto-enabled.
func (f Feature) ActivationValue() string {
	if len(f.Options) > 1 {
		return f.Options[1].Value
	}
	return f.Default()
}

// HasOption reports whether v is one of the feature's option values.
func (f Feature) HasOption(v string) bool {
	for _, o := range f.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Edge records that Dependent requires Prerequisite to be active.
type Edge struct {
	Dependent    string
	Prerequisite string
}

// Exclusion records that A and B can never both be active.
type Exclusion struct {
	A string
	B string
}

// Catalog is the read-only feature dataset.
type Catalog struct {
	features   []Feature
	index      map[string]int
	sections   []string
	edges      []Edge
	exclusions []Exclusion

	prereqs    map[string][]string
	dependents map[string][]string
	partners   map[string][]string
}

// New builds a catalog without validating it. Use Validate, or Parse/Load which
// validate, before handing a catalog to the rest of the pipeline.
func New(features []Feature, edges []Edge, exclusions []Exclusion) *Catalog {
	c := &Catalog{
		features:   append([]Feature(nil), features...),
		index:      make(map[string]int, len(features)),
		edges:      append([]Edge(nil), edges...),
		exclusions: append([]Exclusion(nil), exclusions...),
		prereqs:    make(map[string][]string),
		dependents: make(map[string][]string),
		partners:   make(map[string][]string),
	}

	seenSection := make(map[string]bool)
	for i, f := range c.features {
		if _, dup := c.index[f.Key]; !dup {
			c.index[f.Key] = i
		}
		if !seenSection[f.Section] {
			seenSection[f.Section] = true
			c.sections = append(c.sections, f.Section)
		}
	}
	for _, e := range c.edges {
		c.prereqs[e.Dependent] = append(c.prereqs[e.Dependent], e.Prerequisite)
		c.dependents[e.Prerequisite] = append(c.dependents[e.Prerequisite], e.Dependent)
	}
	for _, x := range c.exclusions {
		c.partners[x.A] = append(c.partners[x.A], x.B)
		c.partners[x.B] = append(c.partners[x.B], x.A)
	}
	return c
}

// Features returns the features in catalog order.
func (c *Catalog) Features() []Feature {
	out := make([]Feature, len(c.features))
	copy(out, c.features)
	return out
}

// Keys returns every feature key in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.features))
	for i, f := range c.features {
		keys[i] = f.Key
	}
	return keys
}

// Len returns the number of features.
func (c *Catalog) Len() int {
	return len(c.features)
}

// Lookup returns the feature registered under key.
func (c *Catalog) Lookup(key string) (Feature, bool) {
	i, ok := c.index[key]
	if !ok {
		return Feature{}, false
	}
	return c.features[i], true
}

// Has reports whether key is a catalog feature.
func (c *Catalog) Has(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Sections returns section names in first-appearance order.
func (c *Catalog) Sections() []string {
	return append([]string(nil), c.sections...)
}

// BySection returns the features of one section in catalog order.
func (c *Catalog) BySection(section string) []Feature {
	var out []Feature
	for _, f := range c.features {
		if f.Section == section {
			out = append(out, f)
		}
	}
	return out
}

// SubOptions returns the features declared as sub-options of key.
func (c *Catalog) SubOptions(key string) []Feature {
	var out []Feature
	for _, f := range c.features {
		if f.SubOptionOf == key {
			out = append(out, f)
		}
	}
	return out
}

// Edges returns the prerequisite edges in declaration order.
func (c *Catalog) Edges() []Edge {
	return append([]Edge(nil), c.edges...)
}

// Exclusions returns the mutual-exclusion pairs in declaration order.
func (c *Catalog) Exclusions() []Exclusion {
	return append([]Exclusion(nil), c.exclusions...)
}

// Prerequisites returns the direct prerequisites of key.
func (c *Catalog) Prerequisites(key string) []string {
	return append([]string(nil), c.prereqs[key]...)
}

// Dependents returns the features that directly require key.
func (c *Catalog) Dependents(key string) []string {
	return append([]string(nil), c.dependents[key]...)
}

// Partners returns the features mutually exclusive with key, sorted.
func (c *Catalog) Partners(key string) []string {
	out := append([]string(nil), c.partners[key]...)
	sort.Strings(out)
	return out
}
