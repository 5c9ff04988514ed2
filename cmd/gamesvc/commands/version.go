package commands

import (
	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// VersionInfo describes the CLI build.
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit"  yaml:"commit"`
	Built   string `json:"built"   yaml:"built"`

	// APIVersion is the x-ms-version sent to the management API.
	APIVersion string `json:"apiVersion" yaml:"api_version"`
}

// NewVersionCommand reports the build and the management API version.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the gamesvc CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := VersionInfo{
				Version:    version,
				Commit:     commit,
				Built:      date,
				APIVersion: constants.APIVersion,
			}

			return render(cmd.OutOrStdout(), info, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")
				_ = table.Append("Version", info.Version)
				_ = table.Append("Commit", info.Commit)
				_ = table.Append("Built", info.Built)
				_ = table.Append("API Version", info.APIVersion)

				return nil
			})
		},
	}
}
