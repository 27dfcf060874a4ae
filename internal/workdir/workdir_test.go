package workdir

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveBaseDir_UsesStateDirFromSubdir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, stateDir), 0755); err != nil {
		t.Fatalf("create %s: %v", stateDir, err)
	}

	subdir := filepath.Join(root, "nested", "dir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("create subdir: %v", err)
	}

	got := ResolveBaseDir(subdir)
	assertSamePath(t, root, got)
}

func TestResolveBaseDir_FollowsRootFileFromSubdir(t *testing.T) {
	root := t.TempDir()
	sharedRoot := filepath.Join(t.TempDir(), "shared-root")
	if err := os.MkdirAll(sharedRoot, 0755); err != nil {
		t.Fatalf("create shared root: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, rootFile), []byte(sharedRoot+"\n"), 0644); err != nil {
		t.Fatalf("write %s: %v", rootFile, err)
	}

	subdir := filepath.Join(root, "nested", "dir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("create subdir: %v", err)
	}

	got := ResolveBaseDir(subdir)
	assertSamePath(t, sharedRoot, got)
}

func TestResolveBaseDir_RootFileWinsOverStateDir(t *testing.T) {
	root := t.TempDir()
	sharedRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, stateDir), 0755); err != nil {
		t.Fatalf("create %s: %v", stateDir, err)
	}
	if err := os.WriteFile(filepath.Join(root, rootFile), []byte(sharedRoot), 0644); err != nil {
		t.Fatalf("write %s: %v", rootFile, err)
	}

	got := ResolveBaseDir(root)
	assertSamePath(t, sharedRoot, got)
}

func TestResolveBaseDir_NoMarkers(t *testing.T) {
	subdir := filepath.Join(t.TempDir(), "nested", "dir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("create subdir: %v", err)
	}

	// Markers above the temp dir would change the answer.
	if _, err := os.Stat(filepath.Join(os.TempDir(), stateDir)); err == nil {
		t.Skip("temp dir has a state dir")
	}

	got := ResolveBaseDir(subdir)
	assertSamePath(t, subdir, got)
}

func TestResolveBaseDir_ResolvesRelativeRootPath(t *testing.T) {
	parent := t.TempDir()
	repo := filepath.Join(parent, "repo")
	if err := os.MkdirAll(repo, 0755); err != nil {
		t.Fatalf("create repo dir: %v", err)
	}
	sharedRoot := filepath.Join(parent, "shared")
	if err := os.MkdirAll(sharedRoot, 0755); err != nil {
		t.Fatalf("create shared root: %v", err)
	}

	if err := os.WriteFile(filepath.Join(repo, rootFile), []byte("../shared"), 0644); err != nil {
		t.Fatalf("write %s: %v", rootFile, err)
	}

	got := ResolveBaseDir(repo)
	assertSamePath(t, sharedRoot, got)
}

func TestResolveBaseDir_IgnoresEmptyRootFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, stateDir), 0755); err != nil {
		t.Fatalf("create %s: %v", stateDir, err)
	}
	if err := os.WriteFile(filepath.Join(root, rootFile), []byte("  \n"), 0644); err != nil {
		t.Fatalf("write %s: %v", rootFile, err)
	}

	got := ResolveBaseDir(root)
	assertSamePath(t, root, got)
}

func assertSamePath(t *testing.T, want string, got string) {
	t.Helper()

	wantResolved, wantErr := filepath.EvalSymlinks(want)
	if wantErr != nil {
		wantResolved = filepath.Clean(want)
	}

	gotResolved, gotErr := filepath.EvalSymlinks(got)
	if gotErr != nil {
		gotResolved = filepath.Clean(got)
	}

	if wantResolved != gotResolved {
		t.Fatalf("expected %q, got %q", wantResolved, gotResolved)
	}
}
