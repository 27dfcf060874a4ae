package cmd

import (
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marcus/byot/internal/output"
	"github.com/marcus/byot/internal/session"
)

var renderPresetsCmd = &cobra.Command{
	Use:   "render-presets",
	Short: "Write the code for every preset into a directory",
	Long: `Generate every built-in and saved preset in parallel and write each one
to <dir>/<name>.cpp. Handy for eyeballing what each preset produces or for
compiling them all in CI.`,
	GroupID: "presets",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("out")
		jobs, _ := cmd.Flags().GetInt("jobs")
		check, _ := cmd.Flags().GetBool("check")
		if jobs <= 0 {
			jobs = runtime.GOMAXPROCS(0)
		}

		cat := getCatalog()
		list, err := allPresets()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		var written, failed atomic.Int32
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(jobs)
		for _, p := range list {
			g.Go(func() error {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				sess := session.New(cat, session.WithConfig(p.Config))
				if check {
					if problems := checkSession(sess); len(problems) > 0 {
						failed.Add(1)
						output.Warning("%s: %d problem(s), first: %s", p.Name, len(problems), problems[0])
						return nil
					}
				}
				if err := writeCode(filepath.Join(dir, p.Name+".cpp"), sess.Code()); err != nil {
					return err
				}
				written.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			output.Error("%v", err)
			return err
		}

		output.Success("Wrote %d preset(s) to %s", written.Load(), dir)
		if failed.Load() > 0 {
			output.Error("%d preset(s) failed the checks", failed.Load())
			return errCheckFailed
		}
		return nil
	},
}

func init() {
	renderPresetsCmd.Flags().String("out", "presets", "Directory to write into")
	renderPresetsCmd.Flags().IntP("jobs", "j", 0, "Parallel renders (default: GOMAXPROCS)")
	renderPresetsCmd.Flags().Bool("check", false, "Skip presets whose code fails the checks")
	rootCmd.AddCommand(renderPresetsCmd)
}
