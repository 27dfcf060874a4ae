package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/byot/internal/config"
	"github.com/marcus/byot/internal/features"
)

// resetFlags puts every flag of every command back to its default, since
// cobra keeps parsed values on the package-level commands between runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runByot executes the root command in dir and returns what the command
// wrote through cobra's output.
func runByot(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Setenv("BYOT_LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--dir", dir}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestGenerateWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "treap.cpp")

	_, err := runByot(t, dir, "generate", "--set", "split_option", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	code := string(data)
	assert.Contains(t, code, "void split(ptr n, int k, ptr &l, ptr &r) {")
	assert.True(t, strings.HasSuffix(code, "\n"))
	assert.False(t, strings.HasSuffix(code, "\n\n"))
}

func TestGeneratePrintsCode(t *testing.T) {
	dir := t.TempDir()

	out, err := runByot(t, dir, "generate", "--preset", "basic", "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "split(")
	assert.Contains(t, out, "merge(")
}

func TestGenerateRejectsTwoSources(t *testing.T) {
	dir := t.TempDir()

	_, err := runByot(t, dir, "generate", "--preset", "basic", "--from", "split_option")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only one of")
}

func TestGenerateUnknownFeature(t *testing.T) {
	dir := t.TempDir()

	_, err := runByot(t, dir, "generate", "--set", "no_such_feature")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_feature")
}

func TestGenerateLastNeedsSavedConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := runByot(t, dir, "generate", "--last")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no saved configuration")
}

func TestPresetApplyThenGenerateLast(t *testing.T) {
	dir := t.TempDir()

	_, err := runByot(t, dir, "preset", "apply", "ordered-set")
	require.NoError(t, err)

	saved, ok, err := config.GetLastConfig(dir)
	require.NoError(t, err)
	require.True(t, ok)

	out, err := runByot(t, dir, "generate", "--last")
	require.NoError(t, err)
	assert.NotEmpty(t, features.ActiveKeys(getCatalog(), saved))
	assert.Contains(t, out, "split(")
}

func TestPresetSaveShowDelete(t *testing.T) {
	dir := t.TempDir()

	_, err := runByot(t, dir, "preset", "save", "mine", "--set", "split_option", "-d", "just split")
	require.NoError(t, err)

	out, err := runByot(t, dir, "preset", "show", "mine")
	require.NoError(t, err)
	assert.Contains(t, out, "mine")
	assert.Contains(t, out, "just split")
	assert.Contains(t, out, "Share link: ")
	assert.Contains(t, out, "split_option")

	out, err = runByot(t, dir, "preset", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "mine")
	assert.Contains(t, out, "basic")

	_, err = runByot(t, dir, "preset", "delete", "mine")
	require.NoError(t, err)

	_, err = runByot(t, dir, "preset", "show", "mine")
	assert.Error(t, err)
}

func TestPresetSaveWithoutSourceNeedsLast(t *testing.T) {
	dir := t.TempDir()

	_, err := runByot(t, dir, "preset", "save", "resume")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no saved configuration")
}

func TestShareRoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "treap.toml")

	out, err := runByot(t, dir, "share", "--set", "merge_option")
	require.NoError(t, err)
	assert.Equal(t, "merge_option\n", out)

	_, err = runByot(t, dir, "share", "--set", "split_option", "-o", file, "--name", "splitter")
	require.NoError(t, err)

	out, err = runByot(t, dir, "share", "--from", file)
	require.NoError(t, err)
	assert.Contains(t, out, "split_option")
	assert.Contains(t, out, "key_type=int")
}

func TestShareDefaults(t *testing.T) {
	dir := t.TempDir()

	out, err := runByot(t, dir, "share", "--no-env")
	require.NoError(t, err)
	assert.Equal(t, "(defaults)\n", out)
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := runByot(t, dir, "diff", "defaults", "split_option&key_type=int")
	require.NoError(t, err)
	assert.Contains(t, out, "--- defaults")
	assert.Contains(t, out, "+++ split_option&key_type=int")
	assert.Contains(t, out, "+void split(ptr n, int k, ptr &l, ptr &r) {")

	out, err = runByot(t, dir, "diff", "basic", "basic")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLintAllPresets(t *testing.T) {
	dir := t.TempDir()

	out, err := runByot(t, dir, "lint", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "basic: ok")
	assert.Contains(t, out, "range-add-sum: ok")
}

func TestRenderPresets(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "rendered")

	_, err := runByot(t, dir, "render-presets", "--out", outDir, "-j", "2", "--check")
	require.NoError(t, err)

	for _, name := range []string{"basic", "implicit", "range-add-sum", "ordered-set"} {
		data, err := os.ReadFile(filepath.Join(outDir, name+".cpp"))
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestExplainDisabledFeature(t *testing.T) {
	dir := t.TempDir()

	out, err := runByot(t, dir, "explain", "find_option")
	require.NoError(t, err)
	assert.Contains(t, out, "DISABLED BECAUSE:\n  key_type is off")
	assert.Contains(t, out, "key_type is off")
}

func TestVersion(t *testing.T) {
	dir := t.TempDir()
	saved := build
	defer func() { build = saved }()
	SetBuildInfo(BuildInfo{Version: "v1.2.3", Revision: "0123456789ab", Dirty: true})

	out, err := runByot(t, dir, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", out)

	out, err = runByot(t, dir, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "byot version v1.2.3\n")
	assert.Contains(t, out, "revision: 0123456789ab (modified)\n")
	assert.Contains(t, out, fmt.Sprintf("catalog: %d features", getCatalog().Len()))
}

func TestUnknownLogLevel(t *testing.T) {
	dir := t.TempDir()

	_, err := runByot(t, dir, "--log-level", "loud", "version")
	assert.Error(t, err)
}

func TestFeaturesTryEdge(t *testing.T) {
	dir := t.TempDir()

	out, err := runByot(t, dir, "features", "--try-edge", "range_query_key:size_option")
	require.NoError(t, err)
	assert.Equal(t, "range_query_key can need size_option\n", out)

	// ins_option already needs split_option.
	_, err = runByot(t, dir, "features", "--try-edge", "split_option:ins_option")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")

	_, err = runByot(t, dir, "features", "--try-edge", "split_option")
	assert.Error(t, err)
}

func TestFeaturesSection(t *testing.T) {
	dir := t.TempDir()

	_, err := runByot(t, dir, "features", "NoSuchSection")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no section")
}
