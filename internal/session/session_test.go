package session

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/codegen"
	"github.com/marcus/byot/internal/derive"
	"github.com/marcus/byot/internal/features"
)

func newSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	return New(catalog.Default(), opts...)
}

// requireSettled checks that nothing disabled is still active.
func requireSettled(t *testing.T, s *Session) {
	t.Helper()
	st := s.Snapshot()
	for _, k := range st.Disabled.Keys() {
		require.False(t, features.Active(s.Catalog(), st.Config, k), "%s is disabled but active", k)
	}
	require.Equal(t, derive.Apply(s.Catalog(), st.Config), st.Config)
}

func TestNewSessionStartsAtDefaults(t *testing.T) {
	s := newSession(t)
	assert.True(t, strings.HasPrefix(s.ID, "ses_"))
	assert.Len(t, s.ID, len("ses_")+6)

	st := s.Snapshot()
	assert.Equal(t, codegen.Placeholder, st.Code)
	assert.True(t, st.Disabled.Has("find_option"))
	assert.False(t, st.Disabled.Has("key_type"))
	assert.False(t, st.Config.Bool(derive.HasNode))
	requireSettled(t, s)
}

func TestToggleDisabledFeature(t *testing.T) {
	s := newSession(t)
	err := s.Toggle("find_option")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDisabled))
	assert.Contains(t, err.Error(), `"find_option"`)

	err = s.Toggle("warp_drive")
	assert.True(t, errors.Is(err, features.ErrUnknownFeature))
}

func TestToggleCascadesOff(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Toggle("key_type"))
	assert.Equal(t, "int", s.Snapshot().Config.Enum("key_type"))

	require.NoError(t, s.Toggle("find_option"))
	assert.Contains(t, s.Code(), "ptr find(ptr n, int k)")

	require.NoError(t, s.Toggle("key_type"))
	st := s.Snapshot()
	assert.Equal(t, "none", st.Config.Enum("key_type"))
	assert.False(t, st.Config.Bool("find_option"))
	assert.True(t, st.Disabled.Has("find_option"))
	requireSettled(t, s)
}

func TestEnableCascades(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Enable("range_query_key"))

	st := s.Snapshot()
	for _, k := range []string{"range_query_key", "range_agg", "split_option", "merge_option"} {
		assert.True(t, st.Config.Bool(k), k)
	}
	assert.Equal(t, "int", st.Config.Enum("key_type"))
	assert.True(t, st.Config.Bool(derive.Pull))
	assert.Contains(t, st.Code, "Value query(ptr &n, int lo, int hi)")
	requireSettled(t, s)

	err := s.Enable("warp_drive")
	assert.True(t, errors.Is(err, features.ErrUnknownFeature))
}

func TestExclusionBlocksPartner(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Enable("treap_beats"))
	require.True(t, s.Snapshot().Disabled.Has("range_max"))

	err := s.Toggle("range_max")
	assert.True(t, errors.Is(err, ErrDisabled))

	reason, err := s.Explain("range_max")
	require.NoError(t, err)
	assert.Equal(t, []string{"treap_beats"}, reason.Conflicts)
}

func TestSet(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Set("tab_char", "tab"))
	assert.Equal(t, "tab", s.Snapshot().Config.Enum("tab_char"))
	assert.Equal(t, codegen.Placeholder, s.Code())

	err := s.Set("tab_char", "9spaces")
	assert.True(t, errors.Is(err, features.ErrInvalidValue))

	err = s.Set("find_option", "on")
	assert.True(t, errors.Is(err, ErrDisabled))

	require.NoError(t, s.Set(" Merge_Option ", "yes"))
	assert.Contains(t, s.Code(), "ptr merge(ptr l, ptr r) {")
}

func TestCycleEnum(t *testing.T) {
	s := newSession(t)
	var seen []string
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Cycle("key_type"))
		seen = append(seen, s.Snapshot().Config.Enum("key_type"))
	}
	assert.Equal(t, []string{"int", "long long", "none"}, seen)

	require.NoError(t, s.Cycle("merge_option"))
	assert.True(t, s.Snapshot().Config.Bool("merge_option"))
}

func TestUndo(t *testing.T) {
	s := newSession(t)
	assert.True(t, errors.Is(s.Undo(), ErrNothingToUndo))

	require.NoError(t, s.Enable("succ"))
	require.NoError(t, s.Toggle("comments"))
	require.NoError(t, s.Undo())
	st := s.Snapshot()
	assert.False(t, st.Config.Bool("comments"))
	assert.True(t, st.Config.Bool("succ"))

	require.NoError(t, s.Undo())
	assert.Equal(t, codegen.Placeholder, s.Code())
}

func TestNoOpChangeIsNotRecorded(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Set("merge_option", "false"))
	assert.True(t, errors.Is(s.Undo(), ErrNothingToUndo))
}

func TestReplaceAndReset(t *testing.T) {
	cat := catalog.Default()
	s := New(cat)

	cfg := features.Default(cat)
	cfg.SetBool("find_option", true)
	cfg.SetBool(derive.Pull, true)
	require.NoError(t, s.Replace(cfg))

	// find_option has no key type to stand on.
	st := s.Snapshot()
	assert.False(t, st.Config.Bool("find_option"))
	assert.False(t, st.Config.Bool(derive.Pull))

	bad := features.Default(cat)
	bad.SetBool("warp_drive", true)
	err := s.Replace(bad)
	assert.True(t, errors.Is(err, features.ErrUnknownFeature))

	require.NoError(t, s.Enable("unite_option"))
	s.Reset()
	assert.Equal(t, derive.Apply(cat, features.Default(cat)), s.Snapshot().Config)
}

func TestWithConfig(t *testing.T) {
	cat := catalog.Default()
	cfg := features.Default(cat)
	cfg.SetBool("merge_option", true)
	cfg.SetBool("ghost", true)

	s := New(cat, WithConfig(cfg))
	st := s.Snapshot()
	assert.True(t, st.Config.Bool("merge_option"))
	assert.False(t, st.Config.Bool("ghost"))
	assert.Contains(t, st.Code, "ptr merge(")
}

func TestSettleIsStable(t *testing.T) {
	s := newSession(t)
	cat := s.Catalog()
	cfg := features.Default(cat)
	for _, k := range cat.Keys() {
		features.Activate(cat, &cfg, k)
	}
	settled, disabled := Settle(s.Resolver(), cfg)
	again, disabledAgain := Settle(s.Resolver(), settled)
	assert.Equal(t, settled, again)
	assert.True(t, disabled.Equal(disabledAgain))
}

func TestConcurrentEdits(t *testing.T) {
	s := newSession(t)
	keys := []string{"key_type", "size_option", "merge_option", "split_option", "lazy_prop", "range_agg", "par_option", "comments"}

	var g errgroup.Group
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			for j := 0; j < 20; j++ {
				if err := s.Enable(k); err != nil {
					return fmt.Errorf("enable %s: %w", k, err)
				}
				if (i+j)%3 == 0 {
					if err := s.Toggle(k); err != nil && !errors.Is(err, ErrDisabled) {
						return err
					}
				}
				_ = s.Snapshot()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	requireSettled(t, s)
	assert.Equal(t, s.Generator().Generate(s.Snapshot().Config), s.Code())
}
