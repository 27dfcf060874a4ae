package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/features"
	"github.com/marcus/byot/internal/output"
	"github.com/marcus/byot/internal/session"
)

var explainCmd = &cobra.Command{
	Use:     "explain [feature]",
	Aliases: []string{"why", "status"},
	Short:   "Show what a feature needs and why it is disabled",
	Long: `Explain one feature: its prerequisites (direct and transitive), the
features that depend on it, the features it excludes, and whether it can be
switched on under the given configuration.

Without a feature, list the state of every feature instead.

Examples:
  byot explain range_query_key
  byot explain find_option --set key_type=int
  byot explain --preset ordered-set`,
	GroupID: "core",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := buildSession(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		jsonOut, _ := cmd.Flags().GetBool("json")

		if len(args) == 0 {
			return listStates(cmd, sess, jsonOut)
		}

		key := strings.ToLower(strings.TrimSpace(args[0]))
		reason, err := sess.Explain(key)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		cat := sess.Catalog()
		f, _ := cat.Lookup(key)
		st := sess.Snapshot()
		res := sess.Resolver()
		state := featureState(cat, st, key)

		if jsonOut {
			return output.JSON(map[string]interface{}{
				"key":                   key,
				"state":                 state,
				"value":                 enumValue(f, st.Config),
				"requires":              cat.Prerequisites(key),
				"requires_transitive":   res.TransitivePrerequisites(key),
				"dependents_transitive": res.TransitiveDependents(key),
				"excludes":              cat.Partners(key),
				"missing":               reason.Missing,
				"conflicts":             reason.Conflicts,
			})
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, output.FeatureLine(f.Key, f.Label, state, enumValue(f, st.Config)))
		if f.Tooltip != "" {
			fmt.Fprintln(w, output.Subtle(f.Tooltip))
		}
		printList(w, "Requires", cat.Prerequisites(key))
		printList(w, "Requires (transitive)", res.TransitivePrerequisites(key))
		printList(w, "Needed by", res.TransitiveDependents(key))
		printList(w, "Excludes", cat.Partners(key))

		if reason.Disabled() {
			fmt.Fprint(w, output.SectionHeader("Disabled because"))
			for _, m := range reason.Missing {
				fmt.Fprintf(w, "  %s is off\n", m)
			}
			for _, c := range reason.Conflicts {
				fmt.Fprintf(w, "  %s is on\n", c)
			}
			fmt.Fprintf(w, "\nSwitch it on with its prerequisites: byot generate --set %s\n", key)
		}
		return nil
	},
}

func featureState(cat *catalog.Catalog, st session.State, key string) output.State {
	switch {
	case features.Active(cat, st.Config, key):
		return output.StateOn
	case st.Disabled.Has(key):
		return output.StateDisabled
	default:
		return output.StateOff
	}
}

func enumValue(f catalog.Feature, cfg features.Config) string {
	if f.Kind != catalog.Enumerated {
		return ""
	}
	return cfg.Enum(f.Key)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprint(w, output.SectionHeader(title))
	for _, line := range output.BulletList(items, 2) {
		fmt.Fprintln(w, line)
	}
}

// listStates prints every feature with its state, section by section.
func listStates(cmd *cobra.Command, sess *session.Session, jsonOut bool) error {
	cat := sess.Catalog()
	st := sess.Snapshot()

	if jsonOut {
		type entry struct {
			Key   string       `json:"key"`
			State output.State `json:"state"`
			Value string       `json:"value,omitempty"`
		}
		var out []entry
		for _, f := range cat.Features() {
			out = append(out, entry{Key: f.Key, State: featureState(cat, st, f.Key), Value: enumValue(f, st.Config)})
		}
		return output.JSON(out)
	}

	w := cmd.OutOrStdout()
	for _, section := range cat.Sections() {
		fmt.Fprint(w, output.SectionHeader(section))
		for _, f := range cat.BySection(section) {
			line := output.FeatureLine(f.Key, f.Label, featureState(cat, st, f.Key), enumValue(f, st.Config))
			fmt.Fprintln(w, output.IndentString(line, 2))
		}
	}
	return nil
}

func init() {
	addSourceFlags(explainCmd)
	explainCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(explainCmd)
}
