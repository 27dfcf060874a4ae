package dependency

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/features"
)

// parseFixture reads one catalog line per feature:
//
//	name
//	name needs a b
//	name excludes other
//	name enum opt0 opt1 ...
func parseFixture(input string) ([]catalog.Feature, []catalog.Edge, []catalog.Exclusion, error) {
	var (
		feats []catalog.Feature
		edges []catalog.Edge
		excl  []catalog.Exclusion
		known = map[string]bool{}
	)
	declare := func(f catalog.Feature) {
		if !known[f.Key] {
			known[f.Key] = true
			feats = append(feats, f)
		}
	}
	for _, line := range strings.Split(input, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		key := fields[0]
		if len(fields) == 1 {
			declare(catalog.Feature{Key: key, Section: "Test", Kind: catalog.Boolean})
			continue
		}
		switch fields[1] {
		case "needs":
			declare(catalog.Feature{Key: key, Section: "Test", Kind: catalog.Boolean})
			for _, pre := range fields[2:] {
				edges = append(edges, catalog.Edge{Dependent: key, Prerequisite: pre})
			}
		case "excludes":
			excl = append(excl, catalog.Exclusion{A: key, B: fields[2]})
		case "enum":
			f := catalog.Feature{Key: key, Section: "Test", Kind: catalog.Enumerated}
			for _, o := range fields[2:] {
				f.Options = append(f.Options, catalog.Option{Value: o, Label: o})
			}
			declare(f)
		default:
			return nil, nil, nil, fmt.Errorf("bad fixture line %q", line)
		}
	}
	return feats, edges, excl, nil
}

func formatActive(cat *catalog.Catalog, cfg features.Config) string {
	var parts []string
	for _, f := range cat.Features() {
		if !features.Active(cat, cfg, f.Key) {
			continue
		}
		if f.Kind == catalog.Enumerated {
			parts = append(parts, f.Key+"="+cfg.Enum(f.Key))
		} else {
			parts = append(parts, f.Key)
		}
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, " ")
}

func settle(r *Resolver, cfg features.Config) features.Config {
	for i := 0; i <= r.Catalog().Len(); i++ {
		next, changed := r.Reconcile(cfg, r.ComputeDisabled(cfg))
		if !changed {
			return next
		}
		cfg = next
	}
	panic("reconciliation did not settle")
}

func TestResolverDataDriven(t *testing.T) {
	var (
		res *Resolver
		cfg features.Config
	)
	datadriven.RunTest(t, "testdata/resolver", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "catalog":
			feats, edges, excl, err := parseFixture(d.Input)
			if err != nil {
				return err.Error()
			}
			cat := catalog.New(feats, edges, excl)
			if !d.HasArg("unchecked") {
				if err := cat.Validate(); err != nil {
					return "error: " + err.Error()
				}
			}
			res = New(cat)
			cfg = features.Default(cat)
			return "ok"

		case "set":
			for _, line := range strings.Split(d.Input, "\n") {
				k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
				if !ok {
					continue
				}
				next, err := features.Set(res.Catalog(), cfg, k, v)
				if err != nil {
					return "error: " + err.Error()
				}
				cfg = next
			}
			return formatActive(res.Catalog(), cfg)

		case "disabled":
			keys := res.ComputeDisabled(cfg).Keys()
			if len(keys) == 0 {
				return "(none)"
			}
			return strings.Join(keys, " ")

		case "enable":
			var key string
			d.ScanArgs(t, "key", &key)
			next, err := res.EnableWithPrerequisites(cfg, key)
			if err != nil {
				return "error: " + err.Error()
			}
			cfg = next
			return formatActive(res.Catalog(), cfg)

		case "reconcile":
			cfg = settle(res, cfg)
			return formatActive(res.Catalog(), cfg)

		case "explain":
			var key string
			d.ScanArgs(t, "key", &key)
			reason, err := res.Explain(cfg, key)
			if err != nil {
				return "error: " + err.Error()
			}
			if !reason.Disabled() {
				return key + ": enabled"
			}
			var parts []string
			if len(reason.Missing) > 0 {
				parts = append(parts, "missing "+strings.Join(reason.Missing, ", "))
			}
			if len(reason.Conflicts) > 0 {
				parts = append(parts, "conflicts "+strings.Join(reason.Conflicts, ", "))
			}
			return key + ": " + strings.Join(parts, "; ")

		case "cycle":
			var dep, pre string
			d.ScanArgs(t, "dependent", &dep)
			d.ScanArgs(t, "prerequisite", &pre)
			return fmt.Sprint(res.WouldCreateCycle(dep, pre))

		case "closure":
			var key string
			d.ScanArgs(t, "key", &key)
			list := func(keys []string) string {
				if len(keys) == 0 {
					return "(none)"
				}
				return strings.Join(keys, " ")
			}
			return fmt.Sprintf("prerequisites: %s\ndependents: %s",
				list(res.TransitivePrerequisites(key)), list(res.TransitiveDependents(key)))

		default:
			return fmt.Sprintf("unknown command: %s", d.Cmd)
		}
	})
}

func TestEnableWithPrerequisitesIsSound(t *testing.T) {
	cat := catalog.Default()
	res := New(cat)
	base := features.Default(cat)

	for _, key := range cat.Keys() {
		t.Run(key, func(t *testing.T) {
			cfg, err := res.EnableWithPrerequisites(base, key)
			require.NoError(t, err)
			require.True(t, features.Active(cat, cfg, key))

			for _, pre := range res.TransitivePrerequisites(key) {
				assert.True(t, features.Active(cat, cfg, pre), "prerequisite %s", pre)
			}
			disabled := res.ComputeDisabled(cfg)
			for _, k := range features.ActiveKeys(cat, cfg) {
				assert.False(t, disabled.Has(k), "%s active but disabled", k)
			}
		})
	}
	assert.Empty(t, features.ActiveKeys(cat, base), "input must not change")
}

func TestEnableUnknownKey(t *testing.T) {
	cat := catalog.Default()
	res := New(cat)
	_, err := res.EnableWithPrerequisites(features.Default(cat), "hyperdrive")
	assert.True(t, errors.Is(err, ErrUnknownFeature))

	_, err = res.Explain(features.Default(cat), "hyperdrive")
	assert.True(t, errors.Is(err, ErrUnknownFeature))
}

func TestEnableKeepsChosenEnumValue(t *testing.T) {
	cat := catalog.Default()
	res := New(cat)
	cfg := features.Default(cat)
	cfg.SetEnum("key_type", "long long")

	out, err := res.EnableWithPrerequisites(cfg, "split_option")
	require.NoError(t, err)
	assert.Equal(t, "long long", out.Enum("key_type"))
	assert.True(t, out.Bool("split_option"))
}

func TestEnableSetsRequestedEnumToActivationValue(t *testing.T) {
	cat := catalog.Default()
	res := New(cat)
	cfg := features.Default(cat)
	cfg.SetEnum("tab_char", "tab")
	cfg.SetEnum("key_type", "long long")

	out, err := res.EnableWithPrerequisites(cfg, "tab_char")
	require.NoError(t, err)
	assert.Equal(t, "2spaces", out.Enum("tab_char"))

	out, err = res.EnableWithPrerequisites(cfg, "key_type")
	require.NoError(t, err)
	assert.Equal(t, "int", out.Enum("key_type"))
	// The input is not touched.
	assert.Equal(t, "long long", cfg.Enum("key_type"))
}

func TestReconcileSettlesRandomConfigs(t *testing.T) {
	cat := catalog.Default()
	res := New(cat)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		cfg := features.Default(cat)
		for _, f := range cat.Features() {
			if rng.Intn(3) != 0 {
				continue
			}
			if f.Kind == catalog.Enumerated {
				cfg.SetEnum(f.Key, f.Options[rng.Intn(len(f.Options))].Value)
			} else {
				cfg.SetBool(f.Key, true)
			}
		}

		before := features.ActiveKeys(cat, cfg)
		out := settle(res, cfg)

		disabled := res.ComputeDisabled(out)
		for _, k := range features.ActiveKeys(cat, out) {
			require.False(t, disabled.Has(k), "%s active but disabled", k)
		}
		// Reconciliation only switches features off.
		for _, k := range features.ActiveKeys(cat, out) {
			require.Contains(t, before, k)
		}
	}
}

func TestReconcileReportsNoChangeWhenClean(t *testing.T) {
	cat := catalog.Default()
	res := New(cat)
	cfg, err := res.EnableWithPrerequisites(features.Default(cat), "range_query_key")
	require.NoError(t, err)

	out, changed := res.Reconcile(cfg, res.ComputeDisabled(cfg))
	assert.False(t, changed)
	assert.True(t, out.Equal(cfg))
}

func TestExclusionDisablesPartner(t *testing.T) {
	cat := catalog.Default()
	res := New(cat)
	cfg, err := res.EnableWithPrerequisites(features.Default(cat), "range_max")
	require.NoError(t, err)

	disabled := res.ComputeDisabled(cfg)
	assert.True(t, disabled.Has("treap_beats"))

	reason, err := res.Explain(cfg, "treap_beats")
	require.NoError(t, err)
	assert.Equal(t, []string{"range_max"}, reason.Conflicts)
	assert.Equal(t, []string{"lazy_prop", "range_update_index"}, reason.Missing)
}

func TestSet(t *testing.T) {
	a := NewSet("b", "a")
	assert.Equal(t, []string{"a", "b"}, a.Keys())
	assert.True(t, a.Has("a"))
	assert.False(t, a.Has("c"))
	assert.Equal(t, 2, a.Len())
	assert.True(t, a.Equal(NewSet("a", "b")))
	assert.False(t, a.Equal(NewSet("a")))
}

func TestExplainAgreesWithComputeDisabled(t *testing.T) {
	cat := catalog.Default()
	res := New(cat)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		cfg := features.Default(cat)
		for _, f := range cat.Features() {
			if rng.Intn(4) != 0 {
				continue
			}
			if f.Kind == catalog.Enumerated {
				cfg.SetEnum(f.Key, f.Options[rng.Intn(len(f.Options))].Value)
			} else {
				cfg.SetBool(f.Key, true)
			}
		}

		disabled := res.ComputeDisabled(cfg)
		for _, f := range cat.Features() {
			reason, err := res.Explain(cfg, f.Key)
			require.NoError(t, err)
			require.Equal(t, disabled.Has(f.Key), reason.Disabled(), "%s: %+v", f.Key, reason)
		}
	}
}
