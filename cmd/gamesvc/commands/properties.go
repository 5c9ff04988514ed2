package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewPropertiesCommand creates the properties command.
func NewPropertiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "properties",
		Short: "Display subscription properties",
		Long:  "Display the publisher information the game service holds for the subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			properties, err := client.Properties(ctx)
			if err != nil {
				return fmt.Errorf("failed to get properties: %w", err)
			}

			if properties == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No publisher information found")

				return nil
			}

			return render(cmd.OutOrStdout(), properties, func(table *tablewriter.Table) error {
				packageVersion := NotAvailable
				if properties.ManagementService != nil {
					packageVersion = valueOrNA(properties.ManagementService.PackageVersion)
				}

				table.Header("Property", "Value")
				_ = table.Append("Platform", valueOrNA(properties.Platform))
				_ = table.Append("Sandboxes", valueOrNA(strings.Join(properties.Sandboxes, ", ")))
				_ = table.Append("Cloud Games", strconv.Itoa(len(properties.CloudGames)))
				_ = table.Append("Partial Results", strconv.FormatBool(properties.PartialResults))
				_ = table.Append("Package Version", packageVersion)

				return nil
			})
		},
	}
}
