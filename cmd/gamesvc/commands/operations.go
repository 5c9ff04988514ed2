package commands

import (
	"fmt"
	"strconv"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewOperationsCommand creates the operations command group.
func NewOperationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "operations",
		Aliases: []string{"operation", "ops"},
		Short:   "Track asynchronous operations",
		Long:    "Resume, list and forget the asynchronous operations recorded by earlier commands",
	}

	cmd.AddCommand(newOperationsWaitCommand())
	cmd.AddCommand(newOperationsListCommand())
	cmd.AddCommand(newOperationsForgetCommand())

	return cmd
}

func newOperationsWaitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "wait REQUEST_ID",
		Short: "Wait for an operation",
		Long:  "Poll an operation by request id until it succeeds, fails or the poll timeout elapses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			result, err := client.Operations().Wait(ctx, args[0])

			return runOperation(cmd, result, err)
		},
	}
}

func newOperationsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			results, err := client.Operations().List(ctx)
			if err != nil {
				return err
			}

			if len(results) == 0 && isTableOutput() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No operations recorded")

				return nil
			}

			return render(cmd.OutOrStdout(), results, func(table *tablewriter.Table) error {
				table.Header("Request ID", "Description", "State", "Polls", "Started")

				for _, result := range results {
					_ = table.Append(
						result.RequestID,
						valueOrNA(result.Description),
						string(result.State),
						strconv.Itoa(result.Polls),
						result.StartedAt.Local().Format(constants.TimestampFormat),
					)
				}

				return nil
			})
		},
	}
}

func newOperationsForgetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "forget REQUEST_ID",
		Aliases: []string{"rm"},
		Short:   "Forget a recorded operation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			if err := client.Operations().Forget(ctx, args[0]); err != nil {
				return err
			}

			return renderConfirmation(cmd, true, "Forgot operation "+args[0])
		},
	}
}
