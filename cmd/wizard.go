package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/config"
	"github.com/marcus/byot/internal/output"
	"github.com/marcus/byot/internal/session"
	"github.com/marcus/byot/internal/wizard"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Answer a few questions per section and get a treap",
	Long: `Walk through the catalog one section at a time. Pick what you need;
prerequisites are switched on for you. At the end the code is written to
the chosen file and the configuration is saved for byot configure.`,
	GroupID: "interactive",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := getCatalog()
		start, err := buildSession(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		w := wizard.New(cat, start.Snapshot().Config, config.OutputPath(getBaseDir()))
		if err := w.Run(cmd.Context()); err != nil {
			output.Error("%v", err)
			return err
		}

		result, err := w.Result(start.Resolver())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if len(result.Added) > 0 {
			output.Info("Also enabled: %s", strings.Join(result.Added, ", "))
		}
		if len(result.Dropped) > 0 {
			output.Warning("Could not keep: %s", strings.Join(result.Dropped, ", "))
		}

		sess := session.New(cat, session.WithConfig(result.Config))
		if err := writeCode(w.Output, sess.Code()); err != nil {
			output.Error("%v", err)
			return err
		}
		if err := config.SetLastConfig(getBaseDir(), sess.Snapshot().Config); err != nil {
			output.Warning("could not save configuration: %v", err)
		}
		output.Success("Wrote %s", w.Output)
		fmt.Fprintf(cmd.OutOrStdout(), "Share link: %s\n", shareLink(cat, sess.Snapshot().Config))
		return nil
	},
}

func init() {
	addSourceFlags(wizardCmd)
	rootCmd.AddCommand(wizardCmd)
}
