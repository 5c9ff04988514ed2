package operation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// StoreType represents the type of operation store backend.
type StoreType string

const (
	// StoreTypeFile keeps operations in a local YAML file.
	StoreTypeFile StoreType = "file"

	// StoreTypeMemory keeps operations for the lifetime of the process.
	StoreTypeMemory StoreType = "memory"

	// StoreTypeNATS keeps operations in a JetStream key-value bucket.
	StoreTypeNATS StoreType = "nats"

	// StoreTypeNone records nothing.
	StoreTypeNone StoreType = "none"
)

// StoreConfig configures an operation store backend.
type StoreConfig struct {
	Type StoreType

	// Path of the YAML file for the file backend.
	Path string

	// NATS configures the NATS backend.
	NATS *NATSConfig
}

// DefaultStorePath returns ~/.gamesvc/operations.yml.
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".gamesvc", "operations.yml"), nil
}

// NewStoreFromConfig creates an operation store from configuration. A nil
// config selects the file backend at its default path.
func NewStoreFromConfig(config *StoreConfig) (gamesvc.OperationStore, error) {
	if config == nil {
		config = &StoreConfig{Type: StoreTypeFile}
	}

	switch config.Type {
	case StoreTypeFile, "":
		path := config.Path
		if path == "" {
			var err error

			path, err = DefaultStorePath()
			if err != nil {
				return nil, err
			}
		}

		return NewFileStore(path), nil

	case StoreTypeMemory:
		return NewMemoryStore(), nil

	case StoreTypeNATS:
		if config.NATS == nil {
			return nil, constants.ErrNATSConfigRequired
		}

		return NewNATSStore(config.NATS)

	case StoreTypeNone:
		return NewNoOpStore(), nil

	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnsupportedStoreType, config.Type)
	}
}
