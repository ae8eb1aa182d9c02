package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/paylink/internal/version"
)

// versionCmd prints build metadata.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Show the paylink version, commit, build date, Go version and platform.`,
	Example: `  paylink version
  paylink version -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := version.Get()
		return formatterFor(cmd, GetCmdContext(cmd)).Emit(info, func(w io.Writer) error {
			outln(w, info.String())
			return nil
		})
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.GroupID = groupConfig
}
