package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestRunReactsToChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "treap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	seen := make(chan string, 16)
	w := New(path, func(_ context.Context, p string) error {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		seen <- string(data)
		return nil
	}, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })

	waitFor(t, seen, "v1")

	// Other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	waitFor(t, seen, "v2")

	// Replace by rename, the way many editors save.
	tmp := filepath.Join(dir, ".treap.yaml.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("v3"), 0644))
	require.NoError(t, os.Rename(tmp, path))
	waitFor(t, seen, "v3")

	cancel()
	require.NoError(t, g.Wait())
}

func TestHandlerErrorsDoNotStopTheWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "treap.toml")
	require.NoError(t, os.WriteFile(path, []byte("bad"), 0644))

	calls := make(chan string, 16)
	w := New(path, func(_ context.Context, p string) error {
		data, _ := os.ReadFile(p)
		calls <- string(data)
		if string(data) == "bad" {
			return errors.New("cannot parse")
		}
		return nil
	}, WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, calls, "bad")
	require.NoError(t, os.WriteFile(path, []byte("good"), 0644))
	waitFor(t, calls, "good")

	cancel()
	require.NoError(t, <-done)
}

func TestRunFailsForMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "treap.yaml"), func(context.Context, string) error { return nil })
	require.Error(t, w.Run(context.Background()))
}
