package operation_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/operation"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []gamesvc.OperationResult {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	return []gamesvc.OperationResult{
		{
			RequestID: "older", State: gamesvc.OperationStateSucceeded, Polls: 2,
			StartedAt: base, Elapsed: 1500 * time.Millisecond,
		},
		{
			RequestID: "newer", Description: "deploy halo", State: gamesvc.OperationStateTimedOut, Polls: 120,
			HTTPStatusCode: 202, StartedAt: base.Add(time.Hour), Elapsed: 10 * time.Minute,
		},
	}
}

func exerciseStore(t *testing.T, store gamesvc.OperationStore) {
	t.Helper()

	ctx := context.Background()

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	for _, result := range sampleResults() {
		require.NoError(t, store.Save(ctx, &result))
	}

	got, err := store.Get(ctx, "newer")
	require.NoError(t, err)
	assert.Equal(t, "deploy halo", got.Description)
	assert.Equal(t, gamesvc.OperationStateTimedOut, got.State)
	assert.Equal(t, 10*time.Minute, got.Elapsed)
	assert.True(t, got.StartedAt.Equal(time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)))

	listed, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "newer", listed[0].RequestID)
	assert.Equal(t, "older", listed[1].RequestID)

	updated := sampleResults()[1]
	updated.State = gamesvc.OperationStateSucceeded
	require.NoError(t, store.Save(ctx, &updated))

	got, err = store.Get(ctx, "newer")
	require.NoError(t, err)
	assert.Equal(t, gamesvc.OperationStateSucceeded, got.State)

	require.NoError(t, store.Delete(ctx, "older"))
	require.ErrorIs(t, store.Delete(ctx, "older"), constants.ErrOperationNotFound)

	_, err = store.Get(ctx, "older")
	require.ErrorIs(t, err, constants.ErrOperationNotFound)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	exerciseStore(t, operation.NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "operations.yml")
	store := operation.NewFileStore(path)

	exerciseStore(t, store)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(constants.ConfigFilePerm), info.Mode().Perm())

	// A second store on the same file sees the same data.
	reopened := operation.NewFileStore(path)

	got, err := reopened.Get(context.Background(), "newer")
	require.NoError(t, err)
	assert.Equal(t, gamesvc.OperationStateSucceeded, got.State)
}

func TestFileStore_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "operations.yml")
	require.NoError(t, os.WriteFile(path, []byte("operations: [unclosed"), 0o600))

	_, err := operation.NewFileStore(path).List(context.Background())
	require.Error(t, err)
}

func TestNoOpStore(t *testing.T) {
	t.Parallel()

	store := operation.NewNoOpStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &gamesvc.OperationResult{RequestID: "a"}))

	_, err := store.Get(ctx, "a")
	require.ErrorIs(t, err, constants.ErrOperationStoreDisable)

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestNewStoreFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *operation.StoreConfig
		want    interface{}
		wantErr error
	}{
		{name: "memory", config: &operation.StoreConfig{Type: operation.StoreTypeMemory}, want: &operation.MemoryStore{}},
		{name: "file", config: &operation.StoreConfig{Type: operation.StoreTypeFile, Path: "/tmp/ops.yml"}, want: &operation.FileStore{}},
		{name: "none", config: &operation.StoreConfig{Type: operation.StoreTypeNone}, want: &operation.NoOpStore{}},
		{name: "nats without config", config: &operation.StoreConfig{Type: operation.StoreTypeNATS}, wantErr: constants.ErrNATSConfigRequired},
		{name: "unknown", config: &operation.StoreConfig{Type: "redis"}, wantErr: constants.ErrUnsupportedStoreType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, err := operation.NewStoreFromConfig(tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
		})
	}
}
