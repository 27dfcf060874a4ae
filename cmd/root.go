package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/catalog"
	"github.com/marcus/byot/internal/config"
	"github.com/marcus/byot/internal/derive"
	"github.com/marcus/byot/internal/workdir"
)

var (
	baseDir string
	cat     *catalog.Catalog
)

var rootCmd = &cobra.Command{
	Use:   "byot",
	Short: "Generate a C++ treap with exactly the operations you pick",
	Long: `byot - Build Your Own Treap.

Pick features from the catalog (split, merge, range queries, lazy updates,
iterators, ...) and byot assembles a single self-contained C++ treap that
implements exactly those, with every prerequisite switched on for you.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		if err := initBaseDir(cmd); err != nil {
			return err
		}
		return loadCatalog(cmd)
	},
}

// Execute runs the root command. An interrupt cancels the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// nameWithAliases returns "name, alias1, alias2" if aliases exist, else just "name"
func nameWithAliases(cmd *cobra.Command) string {
	if len(cmd.Aliases) > 0 {
		return cmd.Name() + ", " + strings.Join(cmd.Aliases, ", ")
	}
	return cmd.Name()
}

func init() {
	// Add custom template function for showing aliases
	cobra.AddTemplateFunc("nameWithAliases", nameWithAliases)

	// Custom usage template that shows aliases inline
	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

	// Need to add the 'add' function for padding calculation
	cobra.AddTemplateFunc("add", func(a, b int) int { return a + b })

	rootCmd.SetUsageTemplate(usageTemplate)

	rootCmd.PersistentFlags().String("catalog", "", "Feature catalog file (YAML) instead of the built-in one")
	rootCmd.PersistentFlags().String("dir", "", "Project directory (default: current directory)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (env BYOT_LOG_LEVEL)")

	// Define command groups for organized help output
	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "interactive", Title: "Interactive Commands:"},
		&cobra.Group{ID: "presets", Title: "Preset Commands:"},
		&cobra.Group{ID: "files", Title: "File Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)

	// Assign built-in commands to system group
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

// initBaseDir resolves the project directory from --dir or the working
// directory, following .byot-root redirects.
func initBaseDir(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "cannot determine working directory")
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", dir)
	}
	baseDir = workdir.ResolveBaseDir(abs)
	slog.Debug("base directory", "dir", baseDir)
	return nil
}

// getBaseDir returns the base directory for the project
func getBaseDir() string {
	return baseDir
}

// loadCatalog picks the catalog: --catalog, then the project settings,
// then the built-in one.
func loadCatalog(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		if s, err := config.Load(baseDir); err == nil && s.Catalog != "" {
			path = s.Catalog
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
		}
	}
	if path == "" {
		cat = catalog.Default()
		return nil
	}

	c, err := catalog.Load(path, derive.Keys()...)
	if err != nil {
		return err
	}
	if err := derive.Validate(c); err != nil {
		return errors.Wrapf(err, "catalog %s", path)
	}
	slog.Debug("loaded catalog", "path", path, "features", c.Len())
	cat = c
	return nil
}

// getCatalog returns the catalog chosen for this invocation
func getCatalog() *catalog.Catalog {
	if cat == nil {
		return catalog.Default()
	}
	return cat
}
