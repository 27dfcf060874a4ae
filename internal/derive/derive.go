// Package derive computes the helper flags the code generator reads but the
// user never sets directly. Derived flags are stored in Config.Bools next to
// the boolean features and are recomputed from scratch on every pass.
package derive

import (
	"github.com/cockroachdb/errors"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/features"
)

// Derived flag keys.
const (
	Pull     = "pull"
	Push     = "push"
	HasKey   = "has_key"
	HasValue = "has_value"
	HasNode  = "has_node"
	HasRev   = "has_rev"
)

// OutputSection holds the presentation features. They never make a node
// structure necessary on their own.
const OutputSection = "Output"

// Rule computes one derived flag.
type Rule struct {
	Key string
	Doc string
	// Inputs lists the catalog keys the rule reads. A nil list means the
	// rule reads every feature outside OutputSection.
	Inputs []string
}

var rules = []Rule{
	{Key: Pull, Doc: "children must be folded back into the node", Inputs: []string{"size_option", "range_agg", "par_option"}},
	{Key: Push, Doc: "pending lazy tags must be pushed down", Inputs: []string{"lazy_prop"}},
	{Key: HasKey, Doc: "nodes store a key", Inputs: []string{"key_type"}},
	{Key: HasValue, Doc: "nodes store a Value", Inputs: []string{"enable_value", "range_agg"}},
	{Key: HasNode, Doc: "some structural feature is on"},
	{Key: HasRev, Doc: "lazy tags carry a reverse bit", Inputs: []string{"range_reverse_key", "range_reverse_index"}},
}

var derivedKeys = func() map[string]bool {
	m := make(map[string]bool, len(rules))
	for _, r := range rules {
		m[r.Key] = true
	}
	return m
}()

// Rules returns the derivation rules in evaluation order.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// Keys returns the derived flag keys.
func Keys() []string {
	keys := make([]string, len(rules))
	for i, r := range rules {
		keys[i] = r.Key
	}
	return keys
}

// IsDerived reports whether key names a derived flag.
func IsDerived(key string) bool {
	return derivedKeys[key]
}

// InputKeys returns the catalog keys r reads.
func (r Rule) InputKeys(cat *catalog.Catalog) []string {
	if r.Inputs != nil {
		return append([]string(nil), r.Inputs...)
	}
	var keys []string
	for _, f := range cat.Features() {
		if f.Section != OutputSection {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Eval computes the rule over cfg. Every rule is an OR over its inputs.
func (r Rule) Eval(cat *catalog.Catalog, cfg features.Config) bool {
	for _, k := range r.InputKeys(cat) {
		if features.Active(cat, cfg, k) {
			return true
		}
	}
	return false
}

// Apply returns a copy of cfg with every derived flag recomputed. Catalog
// values are left untouched, so Apply(Apply(c)) == Apply(c).
func Apply(cat *catalog.Catalog, cfg features.Config) features.Config {
	out := cfg.Clone()
	for _, r := range rules {
		out.SetBool(r.Key, r.Eval(cat, cfg))
	}
	return out
}

// Strip returns a copy of cfg without derived flags.
func Strip(cfg features.Config) features.Config {
	out := cfg.Clone()
	for k := range derivedKeys {
		delete(out.Bools, k)
	}
	return out
}

// Validate checks that the rules only read keys cat declares and that cat
// does not declare a derived key.
func Validate(cat *catalog.Catalog) error {
	for _, r := range rules {
		if cat.Has(r.Key) {
			return errors.Mark(errors.Newf("catalog declares derived flag %q", r.Key), catalog.ErrInvalidCatalog)
		}
		for _, k := range r.Inputs {
			if !cat.Has(k) {
				return errors.Mark(errors.Newf("derived flag %q reads unknown feature %q", r.Key, k), catalog.ErrUnknownKey)
			}
		}
	}
	return nil
}
