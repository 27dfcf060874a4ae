// Package features holds the user's configuration: one value per catalog feature.
package features

import (
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"

	"github.com/marcus/byot/internal/catalog"
)

var (
	// ErrUnknownFeature is returned for keys the catalog does not declare.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrInvalidValue is returned when a value does not fit the feature's kind.
	ErrInvalidValue = errors.New("invalid feature value")
)

// Config maps every feature key to its value. Boolean features and derived
// flags live in Bools, enumerated features in Enums.
type Config struct {
	Bools map[string]bool   `json:"bools" yaml:"bools"`
	Enums map[string]string `json:"enums" yaml:"enums"`
}

// Default returns the configuration with every feature at its inactive value.
func Default(cat *catalog.Catalog) Config {
	cfg := Config{
		Bools: make(map[string]bool, cat.Len()),
		Enums: make(map[string]string),
	}
	for _, f := range cat.Features() {
		switch f.Kind {
		case catalog.Enumerated:
			cfg.Enums[f.Key] = f.Default()
		default:
			cfg.Bools[f.Key] = false
		}
	}
	return cfg
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := Config{
		Bools: make(map[string]bool, len(c.Bools)),
		Enums: make(map[string]string, len(c.Enums)),
	}
	for k, v := range c.Bools {
		out.Bools[k] = v
	}
	for k, v := range c.Enums {
		out.Enums[k] = v
	}
	return out
}

// Equal reports whether both configurations hold the same values.
func (c Config) Equal(o Config) bool {
	if len(c.Bools) != len(o.Bools) || len(c.Enums) != len(o.Enums) {
		return false
	}
	for k, v := range c.Bools {
		if ov, ok := o.Bools[k]; !ok || ov != v {
			return false
		}
	}
	for k, v := range c.Enums {
		if ov, ok := o.Enums[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Bool returns the value of a boolean feature or derived flag.
func (c Config) Bool(key string) bool {
	return c.Bools[key]
}

// Enum returns the value of an enumerated feature.
func (c Config) Enum(key string) string {
	return c.Enums[key]
}

// SetBool stores a boolean value in place.
func (c *Config) SetBool(key string, v bool) {
	if c.Bools == nil {
		c.Bools = make(map[string]bool)
	}
	c.Bools[key] = v
}

// SetEnum stores an enumerated value in place.
func (c *Config) SetEnum(key, v string) {
	if c.Enums == nil {
		c.Enums = make(map[string]string)
	}
	c.Enums[key] = v
}

// Active reports whether key is switched on. Enumerated features are active
// when their value differs from the first option. Keys the catalog does not
// know (derived flags) are read from Bools.
func Active(cat *catalog.Catalog, cfg Config, key string) bool {
	f, ok := cat.Lookup(key)
	if !ok {
		return cfg.Bools[key]
	}
	if f.Kind == catalog.Enumerated {
		v, set := cfg.Enums[key]
		return set && v != f.Default()
	}
	return cfg.Bools[key]
}

// Activate switches key on in place. An enumerated feature already away from
// its default keeps its value.
func Activate(cat *catalog.Catalog, cfg *Config, key string) {
	f, ok := cat.Lookup(key)
	if !ok {
		return
	}
	if f.Kind == catalog.Enumerated {
		if !Active(cat, *cfg, key) {
			cfg.SetEnum(key, f.ActivationValue())
		}
		return
	}
	cfg.SetBool(key, true)
}

// Deactivate puts key back to its inactive value in place.
func Deactivate(cat *catalog.Catalog, cfg *Config, key string) {
	f, ok := cat.Lookup(key)
	if !ok {
		return
	}
	if f.Kind == catalog.Enumerated {
		cfg.SetEnum(key, f.Default())
		return
	}
	cfg.SetBool(key, false)
}

// ActiveKeys returns the active catalog keys in catalog order.
func ActiveKeys(cat *catalog.Catalog, cfg Config) []string {
	var out []string
	for _, k := range cat.Keys() {
		if Active(cat, cfg, k) {
			out = append(out, k)
		}
	}
	return out
}

// Validate checks that cfg assigns a legal value to every catalog feature.
// Keys outside the catalog are rejected unless listed in extra.
func Validate(cat *catalog.Catalog, cfg Config, extra ...string) error {
	allowed := make(map[string]bool, len(extra))
	for _, k := range extra {
		allowed[k] = true
	}
	for _, f := range cat.Features() {
		switch f.Kind {
		case catalog.Enumerated:
			v, ok := cfg.Enums[f.Key]
			if !ok {
				return errors.Mark(errors.Newf("feature %q has no value", f.Key), ErrInvalidValue)
			}
			if !f.HasOption(v) {
				return errors.Mark(errors.Newf("feature %q: %q is not one of its options", f.Key, v), ErrInvalidValue)
			}
		default:
			if _, ok := cfg.Bools[f.Key]; !ok {
				return errors.Mark(errors.Newf("feature %q has no value", f.Key), ErrInvalidValue)
			}
		}
	}
	for k := range cfg.Bools {
		if f, ok := cat.Lookup(k); ok && f.Kind == catalog.Boolean {
			continue
		}
		if !allowed[k] {
			return errors.Mark(errors.Newf("unknown feature %q", k), ErrUnknownFeature)
		}
	}
	for k := range cfg.Enums {
		if f, ok := cat.Lookup(k); !ok || f.Kind != catalog.Enumerated {
			return errors.Mark(errors.Newf("unknown feature %q", k), ErrUnknownFeature)
		}
	}
	return nil
}

// Normalize fills missing catalog keys with defaults and drops keys the
// catalog does not know. Stored configurations pass through it after a
// catalog change.
func Normalize(cat *catalog.Catalog, cfg Config) Config {
	out := Default(cat)
	for k, v := range cfg.Bools {
		if f, ok := cat.Lookup(k); ok && f.Kind == catalog.Boolean {
			out.Bools[k] = v
		}
	}
	for k, v := range cfg.Enums {
		if f, ok := cat.Lookup(k); ok && f.Kind == catalog.Enumerated && f.HasOption(v) {
			out.Enums[k] = v
		}
	}
	return out
}

// Set parses raw for key's kind and returns an updated copy of cfg.
func Set(cat *catalog.Catalog, cfg Config, key, raw string) (Config, error) {
	f, ok := cat.Lookup(normalizeName(key))
	if !ok {
		return cfg, errors.Mark(errors.Newf("unknown feature %q", key), ErrUnknownFeature)
	}
	out := cfg.Clone()
	if f.Kind == catalog.Enumerated {
		v := strings.TrimSpace(raw)
		if !f.HasOption(v) {
			return cfg, errors.Mark(
				errors.Newf("feature %q: %q is not one of %s", f.Key, raw, optionList(f)), ErrInvalidValue)
		}
		out.SetEnum(f.Key, v)
		return out, nil
	}
	b, ok := ParseBool(raw)
	if !ok {
		return cfg, errors.Mark(errors.Newf("feature %q: %q is not a boolean", f.Key, raw), ErrInvalidValue)
	}
	out.SetBool(f.Key, b)
	return out, nil
}

// Changed returns the catalog keys whose value differs from the default, in
// catalog order.
func Changed(cat *catalog.Catalog, cfg Config) []string {
	var out []string
	for _, f := range cat.Features() {
		if f.Kind == catalog.Enumerated {
			if v, ok := cfg.Enums[f.Key]; ok && v != f.Default() {
				out = append(out, f.Key)
			}
			continue
		}
		if cfg.Bools[f.Key] {
			out = append(out, f.Key)
		}
	}
	return out
}

func optionList(f catalog.Feature) string {
	vals := make([]string, len(f.Options))
	for i, o := range f.Options {
		vals[i] = o.Value
	}
	return strings.Join(vals, ", ")
}

// ParseBool accepts the usual on/off spellings.
func ParseBool(raw string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "1", "true", "on", "yes":
		return true, true
	case "0", "false", "off", "no":
		return false, true
	default:
		return false, false
	}
}

// ApplyEnv layers environment overrides on top of cfg:
//
//	BYOT_DISABLE_ALL=1            every feature back to its default
//	BYOT_ENABLE_FEATURES=a,b      switch features on
//	BYOT_DISABLE_FEATURES=a,b     switch features off (wins over enable)
//	BYOT_FEATURE_<KEY>=<value>    set one feature; wins over the lists
//
// The result is not reconciled; callers run it through the resolver.
func ApplyEnv(cat *catalog.Catalog, cfg Config) (Config, error) {
	out := cfg.Clone()

	if disabled, ok := parseBoolEnv("BYOT_DISABLE_ALL"); ok && disabled {
		out = Default(cat)
	}

	for _, name := range splitList(os.Getenv("BYOT_ENABLE_FEATURES")) {
		if !cat.Has(name) {
			return cfg, errors.Mark(errors.Newf("BYOT_ENABLE_FEATURES: unknown feature %q", name), ErrUnknownFeature)
		}
		Activate(cat, &out, name)
	}
	for _, name := range splitList(os.Getenv("BYOT_DISABLE_FEATURES")) {
		if !cat.Has(name) {
			return cfg, errors.Mark(errors.Newf("BYOT_DISABLE_FEATURES: unknown feature %q", name), ErrUnknownFeature)
		}
		Deactivate(cat, &out, name)
	}

	for _, f := range cat.Features() {
		raw, ok := os.LookupEnv(EnvKey(f.Key))
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		next, err := Set(cat, out, f.Key, raw)
		if err != nil {
			return cfg, errors.Wrap(err, EnvKey(f.Key))
		}
		out = next
	}
	return out, nil
}

// EnvKey returns the per-feature override variable for key.
func EnvKey(key string) string {
	return "BYOT_FEATURE_" + normalizeForEnvKey(key)
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func normalizeForEnvKey(name string) string {
	upper := strings.ToUpper(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range upper {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

func parseBoolEnv(key string) (bool, bool) {
	return ParseBool(os.Getenv(key))
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if name := normalizeName(item); name != "" {
			out = append(out, name)
		}
	}
	return out
}
