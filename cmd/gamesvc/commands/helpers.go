package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/operation"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"github.com/fivetwenty-io/gameservices-client/pkg/gsclient"
	"github.com/go-logr/logr/funcr"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"

	NotAvailable = constants.NotAvailable

	yamlIndent = 2
)

// Static errors used by the commands.
var (
	ErrEndpointRequired     = errors.New("endpoint is required (use --endpoint or GAMESVC_ENDPOINT)")
	ErrSubscriptionRequired = errors.New("subscription is required (use --subscription or GAMESVC_SUBSCRIPTION)")
	ErrPlatformRequired     = errors.New("platform is required (use --platform)")
	ErrCloudGameNotFound    = errors.New("cloud game not found")
	ErrUnsupportedOutput    = errors.New("unsupported output format")
	ErrOperationIncomplete  = errors.New("operation did not finish")
)

// ClientFactory builds the client used by every command. Tests replace it.
var ClientFactory = func(config *gamesvc.Config) (gamesvc.Client, error) {
	return gsclient.New(config)
}

// registry collects client metrics for --metrics-file.
var registry = prometheus.NewRegistry()

// MetricsRegistry returns the registry the CLI clients report to.
func MetricsRegistry() *prometheus.Registry {
	return registry
}

// newClientFromConfig builds a client from the viper configuration.
func newClientFromConfig(cmd *cobra.Command) (gamesvc.Client, error) {
	config, err := clientConfig(cmd)
	if err != nil {
		return nil, err
	}

	client, err := ClientFactory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

func clientConfig(cmd *cobra.Command) (*gamesvc.Config, error) {
	endpoint := viper.GetString("endpoint")
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}

	subscription := viper.GetString("subscription")
	if subscription == "" {
		return nil, ErrSubscriptionRequired
	}

	store, err := operationStore()
	if err != nil {
		return nil, err
	}

	config := &gamesvc.Config{
		Endpoint:          endpoint,
		SubscriptionID:    subscription,
		AccessToken:       viper.GetString("token"),
		CertFile:          viper.GetString("cert-file"),
		KeyFile:           viper.GetString("key-file"),
		MaxTries:          viper.GetInt("retry.max-tries"),
		RetryDelay:        viper.GetDuration("retry.delay"),
		PollInterval:      viper.GetDuration("poll.interval"),
		PollTimeout:       viper.GetDuration("poll.timeout"),
		ClientVersion:     cmd.Root().Version,
		MetricsRegisterer: registry,
		OperationStore:    store,
	}

	if config.CertFile == "" && config.AccessToken == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		token, err := readSecret(cmd, "Access token: ")
		if err != nil {
			return nil, err
		}

		config.AccessToken = token
	}

	if viper.GetBool("verbose") {
		config.Debug = true
		config.Logger = gamesvc.NewLogrLogger(funcr.New(func(prefix, args string) {
			if prefix != "" {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), prefix, args)

				return
			}

			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), args)
		}, funcr.Options{Verbosity: 1}))
	}

	return config, nil
}

// operationStore selects the backend recording operations for
// `operations wait|list|forget`.
func operationStore() (gamesvc.OperationStore, error) {
	storeConfig := &operation.StoreConfig{
		Type: operation.StoreType(viper.GetString("operations.store")),
		Path: viper.GetString("operations.file"),
	}

	if storeConfig.Type == operation.StoreTypeNATS {
		storeConfig.NATS = &operation.NATSConfig{
			URL:    viper.GetString("nats.url"),
			Bucket: viper.GetString("nats.bucket"),
			TTL:    viper.GetDuration("nats.ttl"),
		}
	}

	store, err := operation.NewStoreFromConfig(storeConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open operation store: %w", err)
	}

	trackCloser(store)

	return store, nil
}

var (
	closersMu sync.Mutex
	closers   []io.Closer
)

// trackCloser remembers value for CloseResources when it holds a connection.
func trackCloser(value any) {
	closer, ok := value.(io.Closer)
	if !ok {
		return
	}

	closersMu.Lock()
	defer closersMu.Unlock()

	closers = append(closers, closer)
}

// CloseResources closes the connections opened by commands, such as the
// NATS operation store. It is safe to call more than once.
func CloseResources() error {
	closersMu.Lock()
	pending := closers
	closers = nil
	closersMu.Unlock()

	var errs []error

	for _, closer := range pending {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to close resources: %w", err)
	}

	return nil
}

// readSecret prompts on the terminal without echoing input.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)

	secret, err := term.ReadPassword(int(os.Stdin.Fd()))

	_, _ = fmt.Fprintln(cmd.ErrOrStderr())

	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(string(secret)), nil
}

func platformFlag(cmd *cobra.Command) (gamesvc.Platform, error) {
	value, _ := cmd.Flags().GetString("platform")
	if value == "" {
		return "", ErrPlatformRequired
	}

	platform, err := gamesvc.ParsePlatform(value)
	if err != nil {
		return "", fmt.Errorf("invalid platform %q: %w", value, err)
	}

	return platform, nil
}

func addPlatformFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("platform", "p", "", "cloud game platform (XboxOne, Xbox360, PC)")
}

// render writes value as JSON or YAML, or calls table for the table format.
func render(w io.Writer, value interface{}, table func(*tablewriter.Table) error) error {
	switch viper.GetString("output") {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(value); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}

		return nil
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(yamlIndent)

		if err := encoder.Encode(value); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return encoder.Close()
	case OutputFormatTable, "":
		writer := tablewriter.NewWriter(w)
		if err := table(writer); err != nil {
			return err
		}

		if err := writer.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedOutput, viper.GetString("output"))
	}
}

func renderOperation(cmd *cobra.Command, result *gamesvc.OperationResult) error {
	if result == nil {
		return nil
	}

	err := render(cmd.OutOrStdout(), result, func(table *tablewriter.Table) error {
		table.Header("Property", "Value")
		_ = table.Append("Request ID", valueOrNA(result.RequestID))
		_ = table.Append("Description", valueOrNA(result.Description))
		_ = table.Append("State", string(result.State))
		_ = table.Append("Polls", strconv.Itoa(result.Polls))
		_ = table.Append("Elapsed", result.Elapsed.Round(time.Millisecond).String())

		if result.ErrorMessage != "" {
			_ = table.Append("Error", result.ErrorMessage)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if result.State == gamesvc.OperationStateTimedOut {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Operation still in progress, resume with: gamesvc operations wait %s\n", result.RequestID)

		return fmt.Errorf("%w: %s", ErrOperationIncomplete, result.RequestID)
	}

	return nil
}

// runOperation prints the outcome of an asynchronous call. A Failed
// outcome is printed before its error is returned.
func runOperation(cmd *cobra.Command, result *gamesvc.OperationResult, err error) error {
	if renderErr := renderOperation(cmd, result); renderErr != nil && err == nil {
		return renderErr
	}

	return err
}

func renderConfirmation(cmd *cobra.Command, ok bool, message string) error {
	if !ok {
		return nil
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), message)

	return err
}

func valueOrNA(value string) string {
	if value == "" {
		return NotAvailable
	}

	return value
}

// commandContext bounds a command by --timeout when it is set.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if timeout := viper.GetDuration("timeout"); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}

	return context.WithCancel(ctx)
}

func isTableOutput() bool {
	output := viper.GetString("output")

	return output == "" || output == OutputFormatTable
}
