package cmd

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/dependency"
	"github.com/marcus/byot/internal/output"
)

var featuresCmd = &cobra.Command{
	Use:     "features [section]",
	Aliases: []string{"catalog", "ls"},
	Short:   "List the feature catalog",
	Long: `List every feature with its kind, options and prerequisites.

Examples:
  byot features                  # table of all features
  byot features Aggregates       # one section
  byot features --markdown       # rendered reference
  byot features --json           # machine-readable
  byot features --try-edge split_option:ins_option   # would this edge form a cycle?`,
	GroupID: "core",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := getCatalog()
		if edge, _ := cmd.Flags().GetString("try-edge"); edge != "" {
			return tryEdge(cmd, cat, edge)
		}
		list := cat.Features()
		if len(args) == 1 {
			list = filterSection(cat, args[0])
			if len(list) == 0 {
				err := errors.Newf("no section %q (have: %s)", args[0], strings.Join(cat.Sections(), ", "))
				output.Error("%v", err)
				return err
			}
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(featureRecords(cat, list))
		}

		if md, _ := cmd.Flags().GetBool("markdown"); md {
			doc := featuresMarkdown(cat, list)
			if output.IsTerminal() {
				if rendered, err := output.RenderMarkdown(doc); err == nil {
					fmt.Fprint(cmd.OutOrStdout(), rendered)
					return nil
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), doc)
			return nil
		}

		rows := make([][]string, 0, len(list))
		for _, f := range list {
			rows = append(rows, []string{f.Key, f.Section, f.Kind.String(), optionSummary(f), strings.Join(cat.Prerequisites(f.Key), ", ")})
		}
		output.Table(cmd.OutOrStdout(), []string{"Key", "Section", "Kind", "Options", "Requires"}, rows)
		return nil
	},
}

// tryEdge reports whether adding the prerequisite edge "dependent:prerequisite"
// to the catalog would form a cycle.
func tryEdge(cmd *cobra.Command, cat *catalog.Catalog, edge string) error {
	dep, pre, ok := strings.Cut(edge, ":")
	dep, pre = strings.TrimSpace(dep), strings.TrimSpace(pre)
	if !ok || dep == "" || pre == "" {
		err := errors.Newf("bad --try-edge %q: want dependent:prerequisite", edge)
		output.Error("%v", err)
		return err
	}
	for _, k := range []string{dep, pre} {
		if !cat.Has(k) {
			err := errors.Mark(errors.Newf("unknown feature %q", k), catalog.ErrUnknownKey)
			output.Error("%v", err)
			return err
		}
	}
	if dependency.New(cat).WouldCreateCycle(dep, pre) {
		err := errors.Mark(errors.Newf("%s needing %s would create a cycle", dep, pre), catalog.ErrCycle)
		output.Error("%v", err)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s can need %s\n", dep, pre)
	return nil
}

func filterSection(cat *catalog.Catalog, section string) []catalog.Feature {
	for _, s := range cat.Sections() {
		if strings.EqualFold(s, section) {
			return cat.BySection(s)
		}
	}
	return nil
}

// optionSummary lists enum options with the default first.
func optionSummary(f catalog.Feature) string {
	if f.Kind != catalog.Enumerated {
		return "on/off"
	}
	vals := make([]string, len(f.Options))
	for i, o := range f.Options {
		vals[i] = o.Value
	}
	return strings.Join(vals, " | ")
}

type featureRecord struct {
	Key         string           `json:"key"`
	Section     string           `json:"section"`
	Kind        string           `json:"kind"`
	Label       string           `json:"label"`
	Tooltip     string           `json:"tooltip,omitempty"`
	Options     []catalog.Option `json:"options,omitempty"`
	SubOptionOf string           `json:"suboption_of,omitempty"`
	Requires    []string         `json:"requires,omitempty"`
	Excludes    []string         `json:"excludes,omitempty"`
}

func featureRecords(cat *catalog.Catalog, list []catalog.Feature) []featureRecord {
	out := make([]featureRecord, 0, len(list))
	for _, f := range list {
		out = append(out, featureRecord{
			Key:         f.Key,
			Section:     f.Section,
			Kind:        f.Kind.String(),
			Label:       f.Label,
			Tooltip:     f.Tooltip,
			Options:     f.Options,
			SubOptionOf: f.SubOptionOf,
			Requires:    cat.Prerequisites(f.Key),
			Excludes:    cat.Partners(f.Key),
		})
	}
	return out
}

// featuresMarkdown renders the catalog as one table per section.
func featuresMarkdown(cat *catalog.Catalog, list []catalog.Feature) string {
	var b strings.Builder
	b.WriteString("# Feature catalog\n")
	section := ""
	for _, f := range list {
		if f.Section != section {
			section = f.Section
			fmt.Fprintf(&b, "\n## %s\n\n| Feature | Key | Options | Requires |\n|---|---|---|---|\n", section)
		}
		label := f.Label
		if f.SubOptionOf != "" {
			label = "↳ " + label
		}
		reqs := cat.Prerequisites(f.Key)
		for i, r := range reqs {
			reqs[i] = "`" + r + "`"
		}
		fmt.Fprintf(&b, "| %s | `%s` | %s | %s |\n", label, f.Key, optionSummary(f), strings.Join(reqs, ", "))
	}
	return b.String()
}

func init() {
	featuresCmd.Flags().Bool("json", false, "Output as JSON")
	featuresCmd.Flags().Bool("markdown", false, "Output a markdown reference")
	featuresCmd.Flags().String("try-edge", "", "Check whether dependent:prerequisite can be added without a cycle")
	rootCmd.AddCommand(featuresCmd)
}
