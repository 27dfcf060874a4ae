package cmd

import (
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/features"
	"github.com/marcus/byot/internal/output"
	"github.com/marcus/byot/internal/presets"
	"github.com/marcus/byot/internal/session"
	"github.com/marcus/byot/internal/share"
	"github.com/marcus/byot/internal/textdiff"
)

var diffCmd = &cobra.Command{
	Use:   "diff <a> <b>",
	Short: "Show how the generated code differs between two configurations",
	Long: `Generate the code for two configurations and print a unified diff.

Each side is a preset name, a share file, a share link, or "defaults".

Examples:
  byot diff ordered-set range-add-sum
  byot diff defaults 'split_option&merge_option'
  byot diff mine.yaml theirs.toml -U 5`,
	GroupID: "files",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := getCatalog()
		var codes [2]string
		for i, arg := range args {
			cfg, err := resolveSide(cat, arg)
			if err != nil {
				output.Error("%s: %v", arg, err)
				return err
			}
			codes[i] = session.New(cat, session.WithConfig(cfg)).Code()
		}

		lines, _ := cmd.Flags().GetInt("context")
		diff, err := textdiff.Unified(codes[0], codes[1], args[0], args[1], lines)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if diff == "" {
			output.Info("No differences")
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), diff)
		return nil
	},
}

// resolveSide turns one diff argument into a configuration. Preset names
// win over share links with the same spelling.
func resolveSide(cat *catalog.Catalog, arg string) (features.Config, error) {
	if arg == "defaults" {
		return features.Default(cat), nil
	}
	store, err := openPresets()
	if err != nil {
		slog.Debug("preset store unavailable", "err", err)
		store = nil
	} else {
		defer store.Close()
	}
	p, err := presets.Resolve(store, cat, arg)
	if err == nil {
		return p.Config, nil
	}
	if !errors.Is(err, presets.ErrNotFound) {
		return features.Config{}, err
	}
	return share.Load(cat, arg)
}

func init() {
	diffCmd.Flags().IntP("context", "U", 3, "Lines of context around each change")
	rootCmd.AddCommand(diffCmd)
}
