package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/codegen"
	"github.com/marcus/byot/internal/features"
	"github.com/marcus/byot/internal/output"
	"github.com/marcus/byot/internal/session"
)

var errCheckFailed = errors.New("generated code failed the checks")

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen", "g"},
	Short:   "Print or write the treap for a configuration",
	Long: `Assemble the treap for a configuration and print it, or write it with -o.

The configuration starts from the defaults (everything off), --last, a
--preset or a --from share file/link, then BYOT_* environment overrides,
then every --set in order. Features switched on with --set bring their
prerequisites along.

Examples:
  byot generate --preset ordered-set
  byot generate --set split_option --set merge_option -o treap.cpp
  byot generate --from 'lazy_prop&key_type=int&range_update_key' --pretty
  byot generate --from treap.yaml --check`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := buildSession(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		code := sess.Code()

		if check, _ := cmd.Flags().GetBool("check"); check {
			if problems := checkSession(sess); len(problems) > 0 {
				for _, p := range problems {
					output.Warning("%s", p)
				}
				output.Error("%d problem(s) in generated code", len(problems))
				return errCheckFailed
			}
		}

		if path, _ := cmd.Flags().GetString("output"); path != "" {
			if err := writeCode(path, code); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("Wrote %s (%d lines)", path, strings.Count(code, "\n")+1)
			return nil
		}

		if pretty, _ := cmd.Flags().GetBool("pretty"); pretty && output.IsTerminal() {
			rendered, err := output.RenderCode(code)
			if err == nil {
				fmt.Fprint(cmd.OutOrStdout(), rendered)
				return nil
			}
		}
		return printCode(cmd.OutOrStdout(), code)
	},
}

// checkSession runs the symbol-order check and the text lint over the
// session's current configuration.
func checkSession(sess *session.Session) []codegen.Problem {
	st := sess.Snapshot()
	problems := sess.Generator().Check(st.Config)
	return append(problems, codegen.Lint(st.Code)...)
}

// checkConfig settles cfg and checks the resulting code.
func checkConfig(cat *catalog.Catalog, cfg features.Config) []codegen.Problem {
	return checkSession(session.New(cat, session.WithConfig(cfg)))
}

func printCode(w io.Writer, code string) error {
	_, err := fmt.Fprintln(w, strings.TrimSuffix(code, "\n"))
	return err
}

// writeCode writes code to path with a trailing newline.
func writeCode(path, code string) error {
	return writeFile(path, []byte(strings.TrimSuffix(code, "\n")+"\n"))
}

// writeFile writes data to path, creating the directory if needed.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "write %s", path)
}

func init() {
	addSourceFlags(generateCmd)
	generateCmd.Flags().StringP("output", "o", "", "Write the code to a file instead of stdout")
	generateCmd.Flags().Bool("pretty", false, "Syntax-highlight the code when printing to a terminal")
	generateCmd.Flags().Bool("check", false, "Fail if the generated code uses undefined symbols or has unbalanced brackets")
	rootCmd.AddCommand(generateCmd)
}
