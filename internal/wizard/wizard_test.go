package wizard

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/dependency"
	"github.com/marcus/byot/internal/features"
)

func pick(s *State, section string, keys ...string) {
	*s.Selected[section] = append(*s.Selected[section], keys...)
}

func TestNewStartsFromConfig(t *testing.T) {
	cat := catalog.Default()
	start := features.Default(cat)
	start.SetBool("merge_option", true)
	start.SetEnum("key_type", "long long")

	s := New(cat, start, "out.cpp")
	require.NotNil(t, s.Form)
	assert.Equal(t, "out.cpp", s.Output)
	assert.Equal(t, []string{"merge_option"}, *s.Selected["Core"])
	assert.Equal(t, "long long", *s.Choices["key_type"])
	assert.Equal(t, []string{"merge_option"}, s.Picks())

	_, isBool := s.Choices["merge_option"]
	assert.False(t, isBool)
}

func TestResultCascadesPrerequisites(t *testing.T) {
	cat := catalog.Default()
	res := dependency.New(cat)
	s := New(cat, features.Default(cat), "treap.cpp")

	var section string
	for _, sec := range cat.Sections() {
		for _, f := range cat.BySection(sec) {
			if f.Key == "range_query_key" {
				section = sec
			}
		}
	}
	require.NotEmpty(t, section)
	pick(s, section, "range_query_key")

	r, err := s.Result(res)
	require.NoError(t, err)
	for _, k := range []string{"range_query_key", "range_agg", "split_option", "merge_option", "key_type"} {
		assert.True(t, features.Active(cat, r.Config, k), k)
	}
	assert.Equal(t, "int", r.Config.Enum("key_type"))
	assert.Contains(t, r.Added, "key_type")
	assert.Contains(t, r.Added, "split_option")
	assert.NotContains(t, r.Added, "range_query_key")
	assert.Empty(t, r.Dropped)
}

func TestResultKeepsChosenEnum(t *testing.T) {
	cat := catalog.Default()
	s := New(cat, features.Default(cat), "treap.cpp")
	*s.Choices["key_type"] = "long long"
	pick(s, "Core", "split_option")

	r, err := s.Result(dependency.New(cat))
	require.NoError(t, err)
	assert.Equal(t, "long long", r.Config.Enum("key_type"))
	assert.NotContains(t, r.Added, "key_type")
}

func TestResultRejectsBadChoice(t *testing.T) {
	cat := catalog.Default()
	s := New(cat, features.Default(cat), "treap.cpp")
	*s.Choices["tab_char"] = "seven spaces"

	_, err := s.Result(dependency.New(cat))
	require.Error(t, err)
	assert.True(t, errors.Is(err, features.ErrInvalidValue))
}

func TestResultDropsExcludedPicks(t *testing.T) {
	cat := catalog.Default()
	s := New(cat, features.Default(cat), "treap.cpp")
	for _, k := range []string{"treap_beats", "range_max"} {
		f, ok := cat.Lookup(k)
		require.True(t, ok)
		pick(s, f.Section, k)
	}

	r, err := s.Result(dependency.New(cat))
	require.NoError(t, err)
	both := features.Active(cat, r.Config, "treap_beats") && features.Active(cat, r.Config, "range_max")
	assert.False(t, both)
	assert.NotEmpty(t, r.Dropped)
}

func TestValidateOutput(t *testing.T) {
	assert.NoError(t, validateOutput("a.cpp"))
	assert.True(t, errors.Is(validateOutput("  "), errOutputRequired))
}
