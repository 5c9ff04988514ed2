package operation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"github.com/nats-io/nats.go"
)

// NATSConfig configures a NATSStore.
type NATSConfig struct {
	URL    string
	Bucket string

	// TTL expires recorded operations; zero keeps them until deleted.
	TTL time.Duration

	// Conn reuses an existing connection instead of dialing URL.
	Conn *nats.Conn
}

// DefaultNATSBucket is used when NATSConfig.Bucket is empty.
const DefaultNATSBucket = "gamesvc_operations"

// NATSStore keeps operation results in a JetStream key-value bucket, shared
// by every client pointed at the same server.
type NATSStore struct {
	conn  *nats.Conn
	owned bool
	kv    nats.KeyValue
}

// NewNATSStore connects to NATS and opens, or creates, the bucket.
func NewNATSStore(config *NATSConfig) (*NATSStore, error) {
	if config == nil {
		return nil, constants.ErrNATSConfigRequired
	}

	conn := config.Conn
	owned := false

	if conn == nil {
		var err error

		conn, err = nats.Connect(config.URL, nats.Name("gamesvc-operation-store"))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		owned = true
	}

	store, err := openBucket(conn, config)
	if err != nil {
		if owned {
			conn.Close()
		}

		return nil, err
	}

	store.owned = owned

	return store, nil
}

func openBucket(conn *nats.Conn, config *NATSConfig) (*NATSStore, error) {
	bucket := config.Bucket
	if bucket == "" {
		bucket = DefaultNATSBucket
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("opening JetStream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: "game services operation results",
			TTL:         config.TTL,
		})
	}

	if err != nil {
		return nil, fmt.Errorf("opening key-value bucket %s: %w", bucket, err)
	}

	return &NATSStore{conn: conn, kv: kv}, nil
}

// Save implements gamesvc.OperationStore.
func (s *NATSStore) Save(_ context.Context, result *gamesvc.OperationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding operation %s: %w", result.RequestID, err)
	}

	_, err = s.kv.Put(result.RequestID, data)
	if err != nil {
		return fmt.Errorf("storing operation %s: %w", result.RequestID, err)
	}

	return nil
}

// Get implements gamesvc.OperationStore.
func (s *NATSStore) Get(_ context.Context, requestID string) (*gamesvc.OperationResult, error) {
	entry, err := s.kv.Get(requestID)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", constants.ErrOperationNotFound, requestID)
	}

	if err != nil {
		return nil, fmt.Errorf("loading operation %s: %w", requestID, err)
	}

	var result gamesvc.OperationResult

	err = json.Unmarshal(entry.Value(), &result)
	if err != nil {
		return nil, fmt.Errorf("decoding operation %s: %w", requestID, err)
	}

	return &result, nil
}

// List implements gamesvc.OperationStore.
func (s *NATSStore) List(ctx context.Context) ([]gamesvc.OperationResult, error) {
	keys, err := s.kv.Keys(nats.Context(ctx))
	if errors.Is(err, nats.ErrNoKeysFound) {
		return []gamesvc.OperationResult{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	results := make([]gamesvc.OperationResult, 0, len(keys))

	for _, key := range keys {
		result, err := s.Get(ctx, key)
		if errors.Is(err, constants.ErrOperationNotFound) {
			continue
		}

		if err != nil {
			return nil, err
		}

		results = append(results, *result)
	}

	sortResults(results)

	return results, nil
}

// Delete implements gamesvc.OperationStore.
func (s *NATSStore) Delete(ctx context.Context, requestID string) error {
	_, err := s.Get(ctx, requestID)
	if err != nil {
		return err
	}

	err = s.kv.Delete(requestID)
	if err != nil {
		return fmt.Errorf("deleting operation %s: %w", requestID, err)
	}

	return nil
}

// Close releases the connection when the store dialed it.
func (s *NATSStore) Close() error {
	if s.owned && s.conn != nil {
		s.conn.Close()
	}

	return nil
}
