package cmd

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/output"
	"github.com/marcus/byot/internal/session"
	"github.com/marcus/byot/internal/share"
	"github.com/marcus/byot/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>...",
	Short: "Regenerate the code every time a share file changes",
	Long: `Watch one or more share files and rewrite the generated code whenever
one of them is saved. With a single file, -o names the output; otherwise
each file's code goes next to it with a .cpp extension.

Stop with Ctrl+C.

Examples:
  byot watch treap.yaml -o treap.cpp
  byot watch configs/*.toml`,
	GroupID: "files",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		if out != "" && len(args) > 1 {
			err := errors.New("-o needs exactly one file to watch")
			output.Error("%v", err)
			return err
		}
		debounce, _ := cmd.Flags().GetDuration("debounce")
		check, _ := cmd.Flags().GetBool("check")
		cat := getCatalog()

		g, ctx := errgroup.WithContext(cmd.Context())
		for _, src := range args {
			dst := out
			if dst == "" {
				dst = defaultWatchOutput(src)
			}
			w := watch.New(src, regenerate(cat, dst, check),
				watch.WithDebounce(debounce),
				watch.WithLogger(slog.Default().With("file", src)),
			)
			output.Info("Watching %s -> %s", src, dst)
			g.Go(func() error { return w.Run(ctx) })
		}
		return g.Wait()
	},
}

// defaultWatchOutput swaps the share file's extension for .cpp.
func defaultWatchOutput(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".cpp"
}

// regenerate returns a watch handler that reads the share file at the
// given path and writes its code to dst.
func regenerate(cat *catalog.Catalog, dst string, check bool) watch.Handler {
	return func(ctx context.Context, path string) error {
		cfg, err := share.ReadFile(cat, path)
		if err != nil {
			output.Warning("%s: %v", path, err)
			return err
		}
		sess := session.New(cat, session.WithConfig(cfg))
		if check {
			if problems := checkSession(sess); len(problems) > 0 {
				for _, p := range problems {
					output.Warning("%s: %s", path, p)
				}
				return errCheckFailed
			}
		}
		if err := writeCode(dst, sess.Code()); err != nil {
			output.Warning("%v", err)
			return err
		}
		output.Success("%s Wrote %s", time.Now().Format("15:04:05"), dst)
		return nil
	}
}

func init() {
	watchCmd.Flags().StringP("output", "o", "", "Output file (single watched file only)")
	watchCmd.Flags().Duration("debounce", 200*time.Millisecond, "Quiet period before regenerating")
	watchCmd.Flags().Bool("check", false, "Skip writing when the generated code fails the checks")
	rootCmd.AddCommand(watchCmd)
}
