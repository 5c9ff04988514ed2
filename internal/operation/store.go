package operation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"gopkg.in/yaml.v3"
)

// MemoryStore keeps operation results for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]gamesvc.OperationResult
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]gamesvc.OperationResult)}
}

// Save implements gamesvc.OperationStore.
func (s *MemoryStore) Save(_ context.Context, result *gamesvc.OperationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[result.RequestID] = *result

	return nil
}

// Get implements gamesvc.OperationStore.
func (s *MemoryStore) Get(_ context.Context, requestID string) (*gamesvc.OperationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[requestID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", constants.ErrOperationNotFound, requestID)
	}

	return &result, nil
}

// List implements gamesvc.OperationStore.
func (s *MemoryStore) List(_ context.Context) ([]gamesvc.OperationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]gamesvc.OperationResult, 0, len(s.results))
	for _, result := range s.results {
		results = append(results, result)
	}

	sortResults(results)

	return results, nil
}

// Delete implements gamesvc.OperationStore.
func (s *MemoryStore) Delete(_ context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.results[requestID]; !ok {
		return fmt.Errorf("%w: %s", constants.ErrOperationNotFound, requestID)
	}

	delete(s.results, requestID)

	return nil
}

// FileStore keeps operation results in a YAML file, so that a later CLI
// invocation can resume an operation that timed out.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type operationsFile struct {
	Operations map[string]gamesvc.OperationResult `yaml:"operations"`
}

// NewFileStore creates a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Save implements gamesvc.OperationStore.
func (s *FileStore) Save(_ context.Context, result *gamesvc.OperationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	file.Operations[result.RequestID] = *result

	return s.write(file)
}

// Get implements gamesvc.OperationStore.
func (s *FileStore) Get(_ context.Context, requestID string) (*gamesvc.OperationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	result, ok := file.Operations[requestID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", constants.ErrOperationNotFound, requestID)
	}

	return &result, nil
}

// List implements gamesvc.OperationStore.
func (s *FileStore) List(_ context.Context) ([]gamesvc.OperationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}

	results := make([]gamesvc.OperationResult, 0, len(file.Operations))
	for _, result := range file.Operations {
		results = append(results, result)
	}

	sortResults(results)

	return results, nil
}

// Delete implements gamesvc.OperationStore.
func (s *FileStore) Delete(_ context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := file.Operations[requestID]; !ok {
		return fmt.Errorf("%w: %s", constants.ErrOperationNotFound, requestID)
	}

	delete(file.Operations, requestID)

	return s.write(file)
}

func (s *FileStore) load() (*operationsFile, error) {
	file := &operationsFile{}

	// #nosec G304 -- the path comes from the CLI configuration
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading operation store: %w", err)
	}

	if len(data) > 0 {
		err = yaml.Unmarshal(data, file)
		if err != nil {
			return nil, fmt.Errorf("parsing operation store %s: %w", s.path, err)
		}
	}

	if file.Operations == nil {
		file.Operations = make(map[string]gamesvc.OperationResult)
	}

	return file, nil
}

func (s *FileStore) write(file *operationsFile) error {
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encoding operation store: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(s.path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("creating operation store directory: %w", err)
	}

	tmp := s.path + ".tmp"

	err = os.WriteFile(tmp, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("writing operation store: %w", err)
	}

	err = os.Rename(tmp, s.path)
	if err != nil {
		return fmt.Errorf("replacing operation store: %w", err)
	}

	return nil
}

// NoOpStore records nothing.
type NoOpStore struct{}

// NewNoOpStore creates a store that records nothing.
func NewNoOpStore() *NoOpStore {
	return &NoOpStore{}
}

// Save does nothing.
func (NoOpStore) Save(context.Context, *gamesvc.OperationResult) error {
	return nil
}

// Get always fails.
func (NoOpStore) Get(context.Context, string) (*gamesvc.OperationResult, error) {
	return nil, constants.ErrOperationStoreDisable
}

// List returns nothing.
func (NoOpStore) List(context.Context) ([]gamesvc.OperationResult, error) {
	return nil, nil
}

// Delete always fails.
func (NoOpStore) Delete(context.Context, string) error {
	return constants.ErrOperationStoreDisable
}

// sortResults orders newest first.
func sortResults(results []gamesvc.OperationResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].StartedAt.Equal(results[j].StartedAt) {
			return results[i].RequestID < results[j].RequestID
		}

		return results[i].StartedAt.After(results[j].StartedAt)
	})
}
