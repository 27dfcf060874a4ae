package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/config"
	"github.com/marcus/byot/internal/output"
	"github.com/marcus/byot/internal/tui/configurator"
)

var configureCmd = &cobra.Command{
	Use:     "configure",
	Aliases: []string{"tui", "ui"},
	Short:   "Pick features interactively and watch the code change",
	Long: `Open the interactive configurator: the feature catalog on the left, the
generated code on the right. Lines changed by the last edit are highlighted.

The configurator resumes the configuration it saved last unless --fresh or
another source (--preset, --from, --set) is given.

Key bindings:
  ↑/↓ j/k        Move between features
  Space/Enter    Toggle (cycles enumerated features)
  e              Enable with every prerequisite
  c / →          Next option of an enumerated feature
  Tab            Switch between the feature list and the code
  u / R          Undo / reset
  w              Write the code to the output file (default treap.cpp)
  s              Save the configuration as a preset
  ?              Toggle help
  q              Quit

Bindings can be changed in .byot/keymap.json, e.g.
  {"bindings": {"toggle": ["x"], "write": ["ctrl+s"]}}`,
	GroupID: "interactive",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		fresh, _ := cmd.Flags().GetBool("fresh")
		sourced := cmd.Flags().Changed("preset") || cmd.Flags().Changed("from") || cmd.Flags().Changed("set")
		if !fresh && !sourced {
			if _, ok, err := config.GetLastConfig(baseDir); err == nil && ok {
				_ = cmd.Flags().Set("last", "true")
			}
		}

		sess, err := buildSession(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		keys, err := configurator.LoadKeyMap(configurator.KeymapPath(baseDir))
		if err != nil {
			output.Warning("ignoring keymap: %v", err)
		}

		opts := []configurator.Option{
			configurator.WithKeyMap(keys),
			configurator.WithLogger(slog.Default()),
		}
		store, err := openPresets()
		if err != nil {
			slog.Warn("preset store unavailable", "err", err)
		} else {
			defer store.Close()
			opts = append(opts, configurator.WithPresetStore(store))
		}

		model := configurator.NewModel(sess, baseDir, opts...)
		if _, err := configurator.Run(cmd.Context(), model); err != nil {
			output.Error("%v", err)
			return err
		}
		return nil
	},
}

func init() {
	addSourceFlags(configureCmd)
	configureCmd.Flags().Bool("fresh", false, "Start from the defaults instead of the last session")
	rootCmd.AddCommand(configureCmd)
}
