package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewAssetsCommand creates the assets command group.
func NewAssetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assets",
		Aliases: []string{"asset"},
		Short:   "Manage assets",
		Long:    "List and remove the assets shared by the VM packages of the subscription",
	}

	cmd.AddCommand(newAssetsListCommand())
	cmd.AddCommand(newAssetsRemoveCommand())

	return cmd
}

func newAssetsListCommand() *cobra.Command {
	var cloudGameID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			collection, err := client.Assets().List(ctx, cloudGameID)
			if err != nil {
				return fmt.Errorf("failed to list assets: %w", err)
			}

			if len(collection.Assets) == 0 && isTableOutput() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No assets found")

				return nil
			}

			return render(cmd.OutOrStdout(), collection.Assets, func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "File", "Status")

				for _, asset := range collection.Assets {
					_ = table.Append(asset.ID, asset.Name, valueOrNA(asset.FileName), valueOrNA(asset.Status))
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&cloudGameID, "cloud-game-id", "", "only list assets of this cloud game")

	return cmd
}

func newAssetsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove ASSET_ID",
		Aliases: []string{"delete", "rm"},
		Short:   "Remove an asset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			ok, err := client.Assets().Remove(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to remove asset: %w", err)
			}

			return renderConfirmation(cmd, ok, "Removed asset "+args[0])
		},
	}
}
