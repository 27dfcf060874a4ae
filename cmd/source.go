package cmd

import (
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/config"
	"github.com/marcus/byot/internal/dependency"
	"github.com/marcus/byot/internal/features"
	"github.com/marcus/byot/internal/presets"
	"github.com/marcus/byot/internal/session"
	"github.com/marcus/byot/internal/share"
)

// addSourceFlags registers the flags that say where a configuration
// comes from.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("preset", "", "Start from a preset (built-in or saved)")
	cmd.Flags().String("from", "", "Start from a share file (.yaml, .toml, .json) or share link")
	cmd.Flags().Bool("last", false, "Start from the configuration the configurator saved last")
	cmd.Flags().StringArray("set", nil, "Set a feature: key=value, or just key to switch it on (repeatable)")
	cmd.Flags().Bool("no-env", false, "Ignore BYOT_* feature environment variables")
}

// openPresets opens the project's preset store.
func openPresets() (*presets.Store, error) {
	path, err := config.PresetDBPath(getBaseDir())
	if err != nil {
		slog.Warn("read settings", "err", err)
	}
	return presets.Open(path)
}

// parseAssignment splits "key=value". A bare key means "on".
func parseAssignment(raw string) (string, string, error) {
	key, value, found := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", errors.Newf("bad --set %q: missing feature name", raw)
	}
	if !found {
		return key, "true", nil
	}
	return key, strings.TrimSpace(value), nil
}

// applyAssignments sets every key=value in order. A feature switched on
// this way also gets its prerequisites.
func applyAssignments(res *dependency.Resolver, cfg features.Config, sets []string) (features.Config, error) {
	cat := res.Catalog()
	for _, raw := range sets {
		key, value, err := parseAssignment(raw)
		if err != nil {
			return cfg, err
		}
		next, err := features.Set(cat, cfg, key, value)
		if err != nil {
			return cfg, err
		}
		f, _ := cat.Lookup(strings.ToLower(key))
		if features.Active(cat, next, f.Key) {
			if next, err = res.EnableWithPrerequisites(next, f.Key); err != nil {
				return cfg, err
			}
			// The cascade puts an enum on its activation value; the
			// explicit choice wins.
			if f.Kind == catalog.Enumerated {
				next.SetEnum(f.Key, value)
			}
		}
		cfg = next
	}
	return cfg, nil
}

// startConfig returns the configuration a command starts from before any
// --set: the project indent default, then --last, --preset or --from.
func startConfig(cmd *cobra.Command, cat *catalog.Catalog) (features.Config, error) {
	cfg := features.Default(cat)
	if s, err := config.Load(getBaseDir()); err == nil && s.Indent != "" {
		if next, err := features.Set(cat, cfg, "tab_char", s.Indent); err == nil {
			cfg = next
		} else {
			slog.Warn("ignoring indent setting", "indent", s.Indent, "err", err)
		}
	}

	last, _ := cmd.Flags().GetBool("last")
	presetName, _ := cmd.Flags().GetString("preset")
	from, _ := cmd.Flags().GetString("from")

	sources := 0
	for _, set := range []bool{last, presetName != "", from != ""} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return cfg, errors.New("use only one of --last, --preset and --from")
	}

	switch {
	case last:
		saved, ok, err := config.GetLastConfig(getBaseDir())
		if err != nil {
			return cfg, err
		}
		if !ok {
			return cfg, errors.New("no saved configuration; run byot configure first")
		}
		return features.Normalize(cat, saved), nil

	case presetName != "":
		store, err := openPresets()
		if err != nil {
			slog.Warn("preset store unavailable, using built-ins", "err", err)
			store = nil
		} else {
			defer store.Close()
		}
		p, err := presets.Resolve(store, cat, presetName)
		if err != nil {
			return cfg, err
		}
		return p.Config, nil

	case from != "":
		return share.Load(cat, from)
	}
	return cfg, nil
}

// buildSession assembles the configuration from the source flags, the
// environment and --set, and settles it in a new session.
func buildSession(cmd *cobra.Command) (*session.Session, error) {
	cat := getCatalog()
	cfg, err := startConfig(cmd, cat)
	if err != nil {
		return nil, err
	}

	if noEnv, _ := cmd.Flags().GetBool("no-env"); !noEnv {
		if cfg, err = features.ApplyEnv(cat, cfg); err != nil {
			return nil, err
		}
	}

	res := dependency.New(cat)
	sets, _ := cmd.Flags().GetStringArray("set")
	if cfg, err = applyAssignments(res, cfg, sets); err != nil {
		return nil, err
	}

	sess := session.New(cat, session.WithConfig(cfg), session.WithLogger(slog.Default()))
	warnDropped(cat, cfg, sess.Snapshot().Config)
	return sess, nil
}

// warnDropped logs requested features that settling switched off.
func warnDropped(cat *catalog.Catalog, requested, settled features.Config) {
	for _, k := range features.ActiveKeys(cat, requested) {
		if !features.Active(cat, settled, k) {
			slog.Warn("feature switched off: prerequisites missing or excluded", "feature", k)
		}
	}
}
