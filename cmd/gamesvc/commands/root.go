package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/operation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand creates the gamesvc root command with every command group
// attached and its persistent flags bound to viper.
func NewRootCommand(version, commit, date string) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "gamesvc",
		Short: "Game services management CLI",
		Long: `gamesvc manages cloud games, packages, certificates and assets
hosted on the game services compute platform.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			initConfig(configFile)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return errors.Join(writeMetrics(viper.GetString("metrics-file")), CloseResources())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is $HOME/.gamesvc/config.yml)")
	flags.String("endpoint", "", "management API endpoint")
	flags.String("subscription", "", "subscription id")
	flags.String("token", "", "bearer access token")
	flags.String("cert-file", "", "management certificate (PEM)")
	flags.String("key-file", "", "management certificate key (PEM)")
	flags.StringP("output", "o", OutputFormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "log requests and responses to stderr")
	flags.Duration("timeout", 0, "overall command timeout (0 for none)")
	flags.Int("max-tries", constants.DefaultMaxTries, "attempts per request, including the first")
	flags.Duration("retry-delay", constants.DefaultRetryDelay, "pause between request attempts")
	flags.Duration("poll-interval", constants.DefaultPollInterval, "pause between operation status requests")
	flags.Duration("poll-timeout", constants.DefaultPollTimeout, "time to wait for an operation before giving up")
	flags.String("operations-store", string(operation.StoreTypeFile), "operation store (file, nats, none)")
	flags.String("operations-file", "", "operation store file (default is $HOME/.gamesvc/operations.yml)")
	flags.String("nats-url", "", "NATS server for the nats operation store")
	flags.String("nats-bucket", operation.DefaultNATSBucket, "key-value bucket for the nats operation store")
	flags.String("metrics-file", "", "write client metrics in text format to this file")

	bindings := map[string]string{
		"endpoint":         "endpoint",
		"subscription":     "subscription",
		"token":            "token",
		"cert-file":        "cert-file",
		"key-file":         "key-file",
		"output":           "output",
		"verbose":          "verbose",
		"timeout":          "timeout",
		"retry.max-tries":  "max-tries",
		"retry.delay":      "retry-delay",
		"poll.interval":    "poll-interval",
		"poll.timeout":     "poll-timeout",
		"operations.store": "operations-store",
		"operations.file":  "operations-file",
		"nats.url":         "nats-url",
		"nats.bucket":      "nats-bucket",
		"metrics-file":     "metrics-file",
	}

	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(NewGamesCommand())
	rootCmd.AddCommand(NewOperationsCommand())
	rootCmd.AddCommand(NewCertificatesCommand())
	rootCmd.AddCommand(NewAssetsCommand())
	rootCmd.AddCommand(NewPropertiesCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand(version, commit, date))

	return rootCmd
}

// initConfig reads the config file and GAMESVC_* environment variables.
func initConfig(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".gamesvc"))
			viper.SetConfigType("yml")
			viper.SetConfigName("config")
		}
	}

	viper.SetEnvPrefix("GAMESVC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		_, _ = fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func writeMetrics(path string) error {
	if path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}

	return nil
}
