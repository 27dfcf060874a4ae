package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/codegen"
	"github.com/marcus/byot/internal/output"
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check the generated code for undefined symbols and unbalanced brackets",
	Long: `Generate the code for a configuration and check it:

  - every helper the emitted fragments call is defined by an emitted fragment
  - braces, parentheses and brackets balance

Exits non-zero when a problem is found. With --all, every preset is checked.`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		all, _ := cmd.Flags().GetBool("all")

		results := map[string][]string{}
		failed := 0
		record := func(name string, problems []codegen.Problem) {
			msgs := make([]string, 0, len(problems))
			for _, p := range problems {
				msgs = append(msgs, p.String())
			}
			results[name] = msgs
			if len(msgs) > 0 {
				failed++
			}
		}

		if all {
			cat := getCatalog()
			list, err := allPresets()
			if err != nil {
				output.Error("%v", err)
				return err
			}
			for _, p := range list {
				record(p.Name, checkConfig(cat, p.Config))
			}
		} else {
			sess, err := buildSession(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			record("config", checkSession(sess))
		}

		if jsonOut {
			if err := output.JSON(results); err != nil {
				return err
			}
		} else {
			w := cmd.OutOrStdout()
			for _, name := range sortedNames(results) {
				problems := results[name]
				if len(problems) == 0 {
					fmt.Fprintf(w, "%s: ok\n", name)
					continue
				}
				fmt.Fprintf(w, "%s: %d problem(s)\n", name, len(problems))
				for _, line := range output.BulletList(problems, 2) {
					fmt.Fprintln(w, line)
				}
			}
		}
		if failed > 0 {
			return errCheckFailed
		}
		return nil
	},
}

func sortedNames(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	addSourceFlags(lintCmd)
	lintCmd.Flags().Bool("all", false, "Check every built-in and saved preset")
	lintCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(lintCmd)
}
