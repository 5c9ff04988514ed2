package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const maskedValue = "***"

// ErrUnknownConfigKey is returned for keys the CLI does not read.
var ErrUnknownConfigKey = errors.New("unknown configuration key")

// ConfigKeys lists the settings that can be persisted with `config set`.
var ConfigKeys = []string{
	"endpoint",
	"subscription",
	"token",
	"cert-file",
	"key-file",
	"output",
	"verbose",
	"timeout",
	"metrics-file",
	"retry.max-tries",
	"retry.delay",
	"poll.interval",
	"poll.timeout",
	"operations.store",
	"operations.file",
	"nats.url",
	"nats.bucket",
	"nats.ttl",
}

var secretKeys = map[string]bool{"token": true}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and edit the settings stored in the gamesvc configuration file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration from flags, environment and the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := make(map[string]string, len(ConfigKeys))

			for _, key := range ConfigKeys {
				value := viper.GetString(key)
				if value != "" && secretKeys[key] {
					value = maskedValue
				}

				settings[key] = value
			}

			return render(cmd.OutOrStdout(), settings, func(table *tablewriter.Table) error {
				table.Header("Key", "Value")

				for _, key := range ConfigKeys {
					_ = table.Append(key, settings[key])
				}

				return nil
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := updateConfigFile(args[0], args[1]); err != nil {
				return err
			}

			return renderConfirmation(cmd, true, "Set "+args[0])
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := updateConfigFile(args[0], ""); err != nil {
				return err
			}

			return renderConfirmation(cmd, true, "Unset "+args[0])
		},
	}
}

// configFilePath returns the file in use, or ~/.gamesvc/config.yml.
func configFilePath() (string, error) {
	if path := viper.ConfigFileUsed(); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".gamesvc", "config.yml"), nil
}

// updateConfigFile sets key to value in the configuration file, removing it
// when value is empty. Dotted keys are stored as nested sections.
func updateConfigFile(key, value string) error {
	if !isConfigKey(key) {
		return fmt.Errorf("%w: %s (known keys: %s)", ErrUnknownConfigKey, key, strings.Join(sortedConfigKeys(), ", "))
	}

	path, err := configFilePath()
	if err != nil {
		return err
	}

	settings, err := readConfigFile(path)
	if err != nil {
		return err
	}

	section, leaf := settings, key
	if before, after, found := strings.Cut(key, "."); found {
		nested, _ := settings[before].(map[string]interface{})
		if nested == nil {
			nested = map[string]interface{}{}
		}

		settings[before] = nested
		section, leaf = nested, after
	}

	if value == "" {
		delete(section, leaf)
	} else {
		section[leaf] = value
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	viper.Set(key, value)

	return nil
}

func readConfigFile(path string) (map[string]interface{}, error) {
	settings := map[string]interface{}{}

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if settings == nil {
		settings = map[string]interface{}{}
	}

	return settings, nil
}

func isConfigKey(key string) bool {
	for _, known := range ConfigKeys {
		if key == known {
			return true
		}
	}

	return false
}

func sortedConfigKeys() []string {
	keys := append([]string(nil), ConfigKeys...)
	sort.Strings(keys)

	return keys
}
