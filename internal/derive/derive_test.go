package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/features"
)

func TestDefaultCatalogAgreesWithRules(t *testing.T) {
	require.NoError(t, Validate(catalog.Default()))
	for _, k := range Keys() {
		assert.True(t, IsDerived(k))
	}
	assert.False(t, IsDerived("merge_option"))
}

func TestValidateCatchesCollisions(t *testing.T) {
	cat := catalog.New([]catalog.Feature{{Key: "pull", Kind: catalog.Boolean}}, nil, nil)
	assert.Error(t, Validate(cat))
}

func TestApply(t *testing.T) {
	cat := catalog.Default()

	tests := []struct {
		name string
		set  map[string]string
		want map[string]bool
	}{
		{
			name: "defaults",
			want: map[string]bool{Pull: false, Push: false, HasKey: false, HasValue: false, HasNode: false, HasRev: false},
		},
		{
			name: "output only",
			set:  map[string]string{"comments": "true", "tab_char": "tab"},
			want: map[string]bool{HasNode: false},
		},
		{
			name: "size",
			set:  map[string]string{"size_option": "true"},
			want: map[string]bool{Pull: true, HasNode: true, HasValue: false},
		},
		{
			name: "aggregates",
			set:  map[string]string{"range_agg": "true"},
			want: map[string]bool{Pull: true, HasValue: true, HasNode: true},
		},
		{
			name: "parent pointers",
			set:  map[string]string{"par_option": "true"},
			want: map[string]bool{Pull: true, Push: false},
		},
		{
			name: "lazy",
			set:  map[string]string{"lazy_prop": "true"},
			want: map[string]bool{Push: true, Pull: false},
		},
		{
			name: "key",
			set:  map[string]string{"key_type": "long long"},
			want: map[string]bool{HasKey: true, HasNode: true},
		},
		{
			name: "value",
			set:  map[string]string{"enable_value": "true"},
			want: map[string]bool{HasValue: true},
		},
		{
			name: "reverse",
			set:  map[string]string{"range_reverse_index": "true"},
			want: map[string]bool{HasRev: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := features.Default(cat)
			for k, v := range tc.set {
				var err error
				cfg, err = features.Set(cat, cfg, k, v)
				require.NoError(t, err)
			}
			got := Apply(cat, cfg)
			for k, want := range tc.want {
				assert.Equal(t, want, got.Bool(k), k)
			}
			for k, v := range tc.set {
				if f, _ := cat.Lookup(k); f.Kind == catalog.Enumerated {
					assert.Equal(t, v, got.Enum(k))
				}
			}
		})
	}
}

func TestApplyIsIdempotentAndPure(t *testing.T) {
	cat := catalog.Default()
	cfg := features.Default(cat)
	cfg.SetBool("range_agg", true)
	cfg.SetBool("lazy_prop", true)
	cfg.SetEnum("key_type", "int")

	once := Apply(cat, cfg)
	twice := Apply(cat, once)
	assert.True(t, once.Equal(twice))

	_, touched := cfg.Bools[Pull]
	assert.False(t, touched, "Apply must not modify its input")

	stale := once.Clone()
	stale.SetBool("range_agg", false)
	stale.SetBool(HasValue, true)
	assert.False(t, Apply(cat, stale).Bool(HasValue), "derived flags are recomputed, not kept")

	assert.True(t, Strip(once).Equal(cfg))
}
