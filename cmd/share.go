package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/features"
	"github.com/marcus/byot/internal/output"
	"github.com/marcus/byot/internal/share"
)

// shareLink returns the query-string form of cfg.
func shareLink(cat *catalog.Catalog, cfg features.Config) string {
	link := share.Encode(cat, cfg)
	if link == "" {
		return "(defaults)"
	}
	return link
}

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Print a share link or write a share file for a configuration",
	Long: `Turn a configuration into something others can load with --from.

Without -o, print the compact link form: only values that differ from the
defaults, e.g. lazy_prop&key_type=int&range_update_key. With -o, write a
share file; the format follows the extension (.yaml, .toml, .json) unless
--format is given.

Examples:
  byot share --preset range-add-sum
  byot share --last -o treap.yaml
  byot share --from 'split_option&merge_option' --format toml`,
	GroupID: "files",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := buildSession(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		cat := sess.Catalog()
		cfg := sess.Snapshot().Config

		path, _ := cmd.Flags().GetString("output")
		formatName, _ := cmd.Flags().GetString("format")
		name, _ := cmd.Flags().GetString("name")

		if path == "" && formatName == "" {
			fmt.Fprintln(cmd.OutOrStdout(), shareLink(cat, cfg))
			return nil
		}

		if path == "" {
			format, err := share.ParseFormat(formatName)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			data, err := share.Marshal(cat, cfg, name, format)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		if formatName != "" {
			format, err := share.ParseFormat(formatName)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			data, err := share.Marshal(cat, cfg, name, format)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if err := writeFile(path, data); err != nil {
				output.Error("%v", err)
				return err
			}
		} else if err := share.WriteFile(cat, path, cfg, name); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Wrote %s", path)
		return nil
	},
}

func init() {
	addSourceFlags(shareCmd)
	shareCmd.Flags().StringP("output", "o", "", "Write a share file instead of printing a link")
	shareCmd.Flags().String("format", "", "File format: yaml, toml or json")
	shareCmd.Flags().String("name", "", "Name stored in the share file")
	rootCmd.AddCommand(shareCmd)
}
