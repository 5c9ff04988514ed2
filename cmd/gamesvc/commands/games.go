package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewGamesCommand creates the games command group.
func NewGamesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "games",
		Aliases: []string{"game", "cloud-games"},
		Short:   "Manage cloud games",
		Long:    "List, create, deploy, stop and remove cloud games",
	}

	cmd.AddCommand(newGamesListCommand())
	cmd.AddCommand(newGamesGetCommand())
	cmd.AddCommand(newGamesNewCommand())
	cmd.AddCommand(newGamesRemoveCommand())
	cmd.AddCommand(newGamesDeployCommand())
	cmd.AddCommand(newGamesStopCommand())

	return cmd
}

func newGamesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cloud games",
		Long:  "List every cloud game of the subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			games, err := client.CloudGames().List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list cloud games: %w", err)
			}

			if len(games) == 0 && isTableOutput() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No cloud games found")

				return nil
			}

			return render(cmd.OutOrStdout(), games, func(table *tablewriter.Table) error {
				table.Header("Name", "Platform", "Status", "Title ID", "Error")

				for _, game := range games {
					errorMessage := ""
					if game.Error != nil {
						errorMessage = game.Error.Message
					}

					_ = table.Append(game.Name, valueOrNA(game.Platform), valueOrNA(game.Status), valueOrNA(game.TitleID), errorMessage)
				}

				return nil
			})
		},
	}
}

func newGamesGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Get cloud game details",
		Long:  "Display detailed information about a cloud game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := platformFlag(cmd)
			if err != nil {
				return err
			}

			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			game, err := client.CloudGames().Get(ctx, args[0], platform)
			if err != nil {
				return fmt.Errorf("failed to get cloud game: %w", err)
			}

			if game == nil {
				return fmt.Errorf("%w: %s", ErrCloudGameNotFound, args[0])
			}

			return render(cmd.OutOrStdout(), game, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")
				_ = table.Append("Name", game.Name)
				_ = table.Append("ID", valueOrNA(game.ID))
				_ = table.Append("Display Name", valueOrNA(game.DisplayName))
				_ = table.Append("Platform", valueOrNA(game.Platform))
				_ = table.Append("Status", valueOrNA(game.Status))
				_ = table.Append("Title ID", valueOrNA(game.TitleID))
				_ = table.Append("Schema", valueOrNA(game.SchemaName))
				_ = table.Append("Sandboxes", valueOrNA(game.Sandboxes))
				_ = table.Append("Resource Sets", valueOrNA(game.ResourceSets))
				_ = table.Append("Selection Order", strconv.Itoa(game.SelectionOrder))
				_ = table.Append("Can Deploy", strconv.FormatBool(game.CanDeploy))

				if game.Error != nil {
					_ = table.Append("Error", game.Error.Message)
				}

				return nil
			})
		},
	}

	addPlatformFlag(cmd)

	return cmd
}

// GamesNewOptions holds the options for creating a cloud game.
type GamesNewOptions struct {
	TitleID        string
	SelectionOrder int
	Sandboxes      []string
	ResourceSets   []string
	SchemaID       string
	SchemaName     string
	SchemaFile     string
	Tags           map[string]string
}

func newGamesNewCommand() *cobra.Command {
	var opts GamesNewOptions

	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a cloud game",
		Long: "Create a cloud game and wait for the operation to finish.\n\n" +
			"Either --schema-id or --schema-file must be given. A schema file is\n" +
			"uploaded as a new game mode schema before the game is created.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := platformFlag(cmd)
			if err != nil {
				return err
			}

			request := &gamesvc.CloudGameRequest{
				Name:           args[0],
				Platform:       platform,
				TitleID:        opts.TitleID,
				SelectionOrder: opts.SelectionOrder,
				Sandboxes:      opts.Sandboxes,
				ResourceSetIDs: opts.ResourceSets,
				SchemaID:       opts.SchemaID,
			}

			if len(opts.Tags) > 0 {
				request.Tags = make(map[string]any, len(opts.Tags))
				for key, value := range opts.Tags {
					request.Tags[key] = value
				}
			}

			if opts.SchemaFile != "" {
				file, err := os.Open(filepath.Clean(opts.SchemaFile))
				if err != nil {
					return fmt.Errorf("failed to open schema file: %w", err)
				}
				defer func() { _ = file.Close() }()

				request.Schema = file
				request.SchemaFileName = filepath.Base(opts.SchemaFile)

				request.SchemaName = opts.SchemaName
				if request.SchemaName == "" {
					request.SchemaName = strings.TrimSuffix(request.SchemaFileName, filepath.Ext(request.SchemaFileName))
				}
			}

			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			result, err := client.CloudGames().Create(ctx, request)

			return runOperation(cmd, result, err)
		},
	}

	addPlatformFlag(cmd)
	cmd.Flags().StringVar(&opts.TitleID, "title-id", "", "title id of the game")
	cmd.Flags().IntVar(&opts.SelectionOrder, "selection-order", 0, "selection order of the game")
	cmd.Flags().StringSliceVar(&opts.Sandboxes, "sandboxes", nil, "sandboxes the game is available in")
	cmd.Flags().StringSliceVar(&opts.ResourceSets, "resource-sets", nil, "resource set ids")
	cmd.Flags().StringVar(&opts.SchemaID, "schema-id", "", "id of an existing game mode schema")
	cmd.Flags().StringVar(&opts.SchemaName, "schema-name", "", "name of the schema uploaded from --schema-file")
	cmd.Flags().StringVar(&opts.SchemaFile, "schema-file", "", "game mode schema file to upload")
	cmd.Flags().StringToStringVar(&opts.Tags, "tag", nil, "tags as key=value pairs")
	cmd.MarkFlagsMutuallyExclusive("schema-id", "schema-file")

	return cmd
}

func newGamesRemoveCommand() *cobra.Command {
	var skipStateCheck bool

	cmd := &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"delete", "rm"},
		Short:   "Remove a cloud game",
		Long:    "Remove a cloud game. A deployed game is refused unless --skip-state-check is given.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := platformFlag(cmd)
			if err != nil {
				return err
			}

			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			result, err := client.CloudGames().Remove(ctx, args[0], platform, !skipStateCheck)

			return runOperation(cmd, result, err)
		},
	}

	addPlatformFlag(cmd)
	cmd.Flags().BoolVar(&skipStateCheck, "skip-state-check", false, "remove without checking the deployment state first")

	return cmd
}

// GamesDeployOptions holds the options for deploying a cloud game.
type GamesDeployOptions struct {
	Sandboxes   []string
	GeoRegions  []string
	PublishOnly bool
}

func newGamesDeployCommand() *cobra.Command {
	var opts GamesDeployOptions

	cmd := &cobra.Command{
		Use:     "deploy NAME",
		Aliases: []string{"publish"},
		Short:   "Deploy a cloud game",
		Long:    "Deploy a cloud game to the given sandboxes and regions and wait for the operation to finish",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := platformFlag(cmd)
			if err != nil {
				return err
			}

			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			result, err := client.CloudGames().Deploy(ctx, args[0], platform, &gamesvc.DeployRequest{
				Sandboxes:   opts.Sandboxes,
				GeoRegions:  opts.GeoRegions,
				PublishOnly: opts.PublishOnly,
			})

			return runOperation(cmd, result, err)
		},
	}

	addPlatformFlag(cmd)
	cmd.Flags().StringSliceVar(&opts.Sandboxes, "sandboxes", nil, "sandboxes to deploy to")
	cmd.Flags().StringSliceVar(&opts.GeoRegions, "geo-regions", nil, "regions to deploy to")
	cmd.Flags().BoolVar(&opts.PublishOnly, "publish-only", false, "publish without starting new instances")

	return cmd
}

func newGamesStopCommand() *cobra.Command {
	var unpublishOnly bool

	cmd := &cobra.Command{
		Use:     "stop NAME",
		Aliases: []string{"unpublish"},
		Short:   "Stop a cloud game",
		Long:    "Stop a deployed cloud game and wait for the operation to finish",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, err := platformFlag(cmd)
			if err != nil {
				return err
			}

			client, err := newClientFromConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			result, err := client.CloudGames().Stop(ctx, args[0], platform, unpublishOnly)

			return runOperation(cmd, result, err)
		},
	}

	addPlatformFlag(cmd)
	cmd.Flags().BoolVar(&unpublishOnly, "unpublish-only", false, "unpublish without stopping running instances")

	return cmd
}
