package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/marcus/byot/internal/codegen"
	"github.com/marcus/byot/internal/output"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

var build = BuildInfo{Version: "dev"}

// SetBuildInfo records what main knows about the binary.
func SetBuildInfo(bi BuildInfo) {
	if bi.Version == "" {
		bi.Version = "dev"
	}
	if bi.GoVersion == "" {
		bi.GoVersion = runtime.Version()
	}
	build = bi
}

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version, build and catalog details",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Fprint(cmd.OutOrStdout(), build.Version)
			return nil
		}

		cat := getCatalog()
		fragments := len(codegen.Order())
		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(map[string]interface{}{
				"build":     build,
				"features":  cat.Len(),
				"sections":  len(cat.Sections()),
				"fragments": fragments,
			})
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "byot version %s\n", build.Version)
		if build.Revision != "" {
			rev := build.Revision
			if build.Dirty {
				rev += " (modified)"
			}
			fmt.Fprintf(w, "revision: %s\n", rev)
		}
		fmt.Fprintf(w, "catalog: %d features in %d sections, %d fragments\n", cat.Len(), len(cat.Sections()), fragments)
		fmt.Fprintf(w, "built with %s for %s/%s\n", build.GoVersion, runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Output only version string")
	versionCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(versionCmd)
}
