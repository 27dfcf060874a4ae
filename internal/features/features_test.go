package features

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/byot/internal/catalog"
)

func TestDefaultIsInactive(t *testing.T) {
	cat := catalog.Default()
	cfg := Default(cat)

	require.NoError(t, Validate(cat, cfg))
	assert.Empty(t, ActiveKeys(cat, cfg))
	assert.Empty(t, Changed(cat, cfg))
	assert.Equal(t, "none", cfg.Enum("key_type"))
	assert.Equal(t, "4spaces", cfg.Enum("tab_char"))
	assert.False(t, cfg.Bool("use_namespace_std"))
}

func TestActivateEnumKeepsChosenValue(t *testing.T) {
	cat := catalog.Default()
	cfg := Default(cat)

	Activate(cat, &cfg, "key_type")
	assert.Equal(t, "int", cfg.Enum("key_type"))

	cfg.SetEnum("key_type", "long long")
	Activate(cat, &cfg, "key_type")
	assert.Equal(t, "long long", cfg.Enum("key_type"))

	Deactivate(cat, &cfg, "key_type")
	assert.Equal(t, "none", cfg.Enum("key_type"))
	assert.False(t, Active(cat, cfg, "key_type"))
}

func TestCloneIsDeep(t *testing.T) {
	cat := catalog.Default()
	a := Default(cat)
	b := a.Clone()
	b.SetBool("merge_option", true)
	b.SetEnum("tab_char", "tab")

	assert.False(t, a.Bool("merge_option"))
	assert.Equal(t, "4spaces", a.Enum("tab_char"))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a.Clone()))
}

func TestSet(t *testing.T) {
	cat := catalog.Default()
	cfg := Default(cat)

	next, err := Set(cat, cfg, "merge_option", "yes")
	require.NoError(t, err)
	assert.True(t, next.Bool("merge_option"))
	assert.False(t, cfg.Bool("merge_option"), "input must not change")

	next, err = Set(cat, next, "key_type", "long long")
	require.NoError(t, err)
	assert.Equal(t, "long long", next.Enum("key_type"))

	_, err = Set(cat, cfg, "key_type", "short")
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = Set(cat, cfg, "merge_option", "maybe")
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = Set(cat, cfg, "warp_drive", "on")
	assert.True(t, errors.Is(err, ErrUnknownFeature))
}

func TestValidateRejectsStrayKeys(t *testing.T) {
	cat := catalog.Default()
	cfg := Default(cat)
	cfg.SetBool("pull", true)

	err := Validate(cat, cfg)
	assert.True(t, errors.Is(err, ErrUnknownFeature))
	assert.NoError(t, Validate(cat, cfg, "pull"))

	cfg = Default(cat)
	cfg.SetEnum("tab_char", "7spaces")
	assert.True(t, errors.Is(Validate(cat, cfg), ErrInvalidValue))

	cfg = Default(cat)
	delete(cfg.Bools, "merge_option")
	assert.True(t, errors.Is(Validate(cat, cfg), ErrInvalidValue))
}

func TestNormalize(t *testing.T) {
	cat := catalog.Default()
	cfg := Config{
		Bools: map[string]bool{"merge_option": true, "removed_feature": true},
		Enums: map[string]string{"key_type": "int", "tab_char": "bogus"},
	}
	out := Normalize(cat, cfg)
	require.NoError(t, Validate(cat, out))
	assert.True(t, out.Bool("merge_option"))
	assert.Equal(t, "int", out.Enum("key_type"))
	assert.Equal(t, "4spaces", out.Enum("tab_char"))
	_, stray := out.Bools["removed_feature"]
	assert.False(t, stray)
	assert.Equal(t, []string{"key_type", "merge_option"}, Changed(cat, out))
}

func TestApplyEnv(t *testing.T) {
	cat := catalog.Default()

	t.Setenv("BYOT_ENABLE_FEATURES", "merge_option, split_option,key_type")
	t.Setenv("BYOT_DISABLE_FEATURES", "split_option")
	t.Setenv("BYOT_FEATURE_TAB_CHAR", "tab")

	cfg, err := ApplyEnv(cat, Default(cat))
	require.NoError(t, err)
	assert.True(t, cfg.Bool("merge_option"))
	assert.False(t, cfg.Bool("split_option"))
	assert.Equal(t, "int", cfg.Enum("key_type"))
	assert.Equal(t, "tab", cfg.Enum("tab_char"))
}

func TestApplyEnvKillSwitch(t *testing.T) {
	cat := catalog.Default()
	cfg := Default(cat)
	cfg.SetBool("lazy_prop", true)

	t.Setenv("BYOT_DISABLE_ALL", "1")
	out, err := ApplyEnv(cat, cfg)
	require.NoError(t, err)
	assert.Empty(t, ActiveKeys(cat, out))
}

func TestApplyEnvErrors(t *testing.T) {
	cat := catalog.Default()

	t.Setenv("BYOT_ENABLE_FEATURES", "nope")
	_, err := ApplyEnv(cat, Default(cat))
	assert.True(t, errors.Is(err, ErrUnknownFeature))

	t.Setenv("BYOT_ENABLE_FEATURES", "")
	t.Setenv("BYOT_FEATURE_VAL_TYPE", "float")
	_, err = ApplyEnv(cat, Default(cat))
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "BYOT_FEATURE_KEY_TYPE", EnvKey("key_type"))
	assert.Equal(t, "BYOT_FEATURE_RANGE_TYPE", EnvKey(" range-type "))
}
