package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/config"
	"github.com/marcus/byot/internal/features"
	"github.com/marcus/byot/internal/output"
	"github.com/marcus/byot/internal/presets"
	"github.com/marcus/byot/internal/session"
)

var presetCmd = &cobra.Command{
	Use:     "preset",
	Aliases: []string{"presets"},
	Short:   "Manage saved configurations",
	Long: `Presets are named configurations. Built-in presets ship with byot; saved
presets live in .byot/presets.db and shadow built-ins of the same name.`,
	GroupID: "presets",
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a configuration as a preset",
	Long: `Save a configuration under a name. The configuration comes from the
usual source flags; with none it is the one byot configure saved last.

Examples:
  byot preset save mine --last
  byot preset save splitter --set split_option --set merge_option -d "split/merge only"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourced := cmd.Flags().Changed("preset") || cmd.Flags().Changed("from") || cmd.Flags().Changed("set")
		if !sourced {
			_ = cmd.Flags().Set("last", "true")
		}
		sess, err := buildSession(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		store, err := openPresets()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer store.Close()

		desc, _ := cmd.Flags().GetString("description")
		tags, _ := cmd.Flags().GetStringSlice("tags")
		p := &presets.Preset{
			Name:        args[0],
			Description: desc,
			Tags:        tags,
			Config:      sess.Snapshot().Config,
		}
		if err := store.Save(p); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Saved preset %s (%s)", p.Name, p.ID)
		return nil
	},
}

var presetListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List built-in and saved presets",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := getCatalog()
		all, err := allPresets()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(all)
		}

		rows := make([][]string, 0, len(all))
		for _, p := range all {
			source, updated := "saved", output.FormatTimeAgo(p.UpdatedAt)
			if p.Builtin {
				source, updated = "built-in", "-"
			}
			rows = append(rows, []string{
				p.Name,
				source,
				strconv.Itoa(len(features.ActiveKeys(cat, p.Config))),
				updated,
				p.Description,
			})
		}
		output.Table(cmd.OutOrStdout(), []string{"Name", "Source", "Features", "Updated", "Description"}, rows)
		return nil
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a preset's features and share link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolvePreset(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		cat := getCatalog()
		sess := session.New(cat, session.WithConfig(p.Config))
		st := sess.Snapshot()

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(map[string]interface{}{
				"preset": p,
				"active": features.ActiveKeys(cat, st.Config),
				"link":   shareLink(cat, st.Config),
			})
		}

		w := cmd.OutOrStdout()
		title := p.Name
		if p.Builtin {
			title += " (built-in)"
		}
		fmt.Fprintln(w, title)
		if p.Description != "" {
			fmt.Fprintln(w, output.Subtle(p.Description))
		}
		if len(p.Tags) > 0 {
			fmt.Fprintf(w, "Tags: %s\n", strings.Join(p.Tags, ", "))
		}
		fmt.Fprint(w, output.SectionHeader("Features"))
		for _, k := range features.ActiveKeys(cat, st.Config) {
			f, _ := cat.Lookup(k)
			fmt.Fprintln(w, output.IndentString(output.FeatureLine(k, f.Label, output.StateOn, enumValue(f, st.Config)), 2))
		}
		fmt.Fprintf(w, "\nShare link: %s\n", shareLink(cat, st.Config))
		return nil
	},
}

var presetApplyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Make a preset the current configuration",
	Long: `Store the preset as the configuration byot configure and --last start
from. With -o, also write the generated code.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolvePreset(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		sess := session.New(getCatalog(), session.WithConfig(p.Config))
		if err := config.SetLastConfig(getBaseDir(), sess.Snapshot().Config); err != nil {
			output.Error("%v", err)
			return err
		}
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			if err := writeCode(path, sess.Code()); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("Applied %s and wrote %s", p.Name, path)
			return nil
		}
		output.Success("Applied %s", p.Name)
		return nil
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved preset",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openPresets()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer store.Close()
		if err := store.Delete(args[0]); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Deleted preset %s", args[0])
		return nil
	},
}

// resolvePreset looks a name up among saved presets, then built-ins.
func resolvePreset(name string) (*presets.Preset, error) {
	store, err := openPresets()
	if err != nil {
		store = nil
	} else {
		defer store.Close()
	}
	return presets.Resolve(store, getCatalog(), name)
}

// allPresets lists built-in and saved presets. A missing or broken store
// leaves just the built-ins.
func allPresets() ([]presets.Preset, error) {
	store, err := openPresets()
	if err != nil {
		output.Warning("preset store unavailable: %v", err)
		store = nil
	} else {
		defer store.Close()
	}
	return presets.All(store, getCatalog())
}

func init() {
	addSourceFlags(presetSaveCmd)
	presetSaveCmd.Flags().StringP("description", "d", "", "Description")
	presetSaveCmd.Flags().StringSlice("tags", nil, "Comma-separated tags")
	presetListCmd.Flags().Bool("json", false, "Output as JSON")
	presetShowCmd.Flags().Bool("json", false, "Output as JSON")
	presetApplyCmd.Flags().StringP("output", "o", "", "Also write the generated code to a file")

	presetCmd.AddCommand(presetSaveCmd, presetListCmd, presetShowCmd, presetApplyCmd, presetDeleteCmd)
	rootCmd.AddCommand(presetCmd)
}
