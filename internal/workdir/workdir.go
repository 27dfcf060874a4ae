// Package workdir resolves the byot base directory. A directory is a base
// when it holds a .byot directory; a .byot-root file redirects to another
// base, so several checkouts can share one set of presets.
package workdir

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	rootFile = ".byot-root"
	stateDir = ".byot"
)

// ResolveBaseDir walks up from baseDir to the nearest directory that holds a
// .byot-root file or a .byot directory. A .byot-root file wins and its
// content, absolute or relative to the file, is returned. Without any marker
// baseDir is returned unchanged.
func ResolveBaseDir(baseDir string) string {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return baseDir
	}
	for dir := abs; ; {
		if target, ok := readRootFile(dir); ok {
			return target
		}
		if fi, err := os.Stat(filepath.Join(dir, stateDir)); err == nil && fi.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return baseDir
		}
		dir = parent
	}
}

func readRootFile(dir string) (string, bool) {
	content, err := os.ReadFile(filepath.Join(dir, rootFile))
	if err != nil {
		return "", false
	}
	resolved := strings.TrimSpace(string(content))
	if resolved == "" {
		return "", false
	}
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(dir, resolved)
	}
	return filepath.Clean(resolved), true
}
