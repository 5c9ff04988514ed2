package envelope

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	gshttp "github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/internal/metrics"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"golang.org/x/sync/errgroup"
)

// TypeSet is an immutable, case-insensitive set of resource types.
type TypeSet struct {
	types map[string]struct{}
}

// NewTypeSet creates a set holding types.
func NewTypeSet(types ...string) TypeSet {
	set := TypeSet{types: make(map[string]struct{}, len(types))}
	for _, resourceType := range types {
		set.types[strings.ToLower(resourceType)] = struct{}{}
	}

	return set
}

// Contains reports whether resourceType is in the set.
func (s TypeSet) Contains(resourceType string) bool {
	_, ok := s.types[strings.ToLower(resourceType)]

	return ok
}

// Len returns the number of types in the set.
func (s TypeSet) Len() int {
	return len(s.types)
}

// FetchFunc loads a domain object from its secondary endpoint. It returns
// nil without an error when the object does not exist there.
type FetchFunc[T any] func(ctx context.Context, name, resourceType string) (*T, error)

// RemoveFunc deletes an orphaned resource.
type RemoveFunc func(ctx context.Context, name, resourceType string) error

// AnnotateFunc copies envelope state, such as the last operation error,
// onto an object decoded from the envelope payload.
type AnnotateFunc[T any] func(item *T, resource *Resource)

// Codec turns a cloud service listing into domain objects of type T.
//
// Resources whose type is not in Types are skipped. A resource with a
// payload is decoded from it. A resource without one is loaded through
// Fetch; when Fetch finds nothing, the resource is left out of the result
// and removed through Remove in the background.
type Codec[T any] struct {
	Types    TypeSet
	Fetch    FetchFunc[T]
	Remove   RemoveFunc
	Annotate AnnotateFunc[T]

	// Concurrency bounds both fallback fetches and orphan removals.
	Concurrency int

	Logger  gamesvc.Logger
	Metrics *metrics.Collector
}

// Decode parses a CloudService document and returns the recognized objects
// in document order. The returned Reconciliation tracks orphan removals
// started during the decode; its errors never affect the returned items.
func (c *Codec[T]) Decode(ctx context.Context, data []byte, charset string) ([]*T, *Reconciliation, error) {
	var service CloudService

	err := gshttp.UnmarshalXML(data, charset, &service)
	if err != nil {
		return nil, nil, gamesvc.NewError(gamesvc.ErrorKindDecode, "parsing cloud service document", err)
	}

	return c.DecodeResources(ctx, service.Resources)
}

// DecodeResources is Decode for an already parsed resource list.
func (c *Codec[T]) DecodeResources(ctx context.Context, resources []Resource) ([]*T, *Reconciliation, error) {
	reconciliation := newReconciliation(ctx, c.limit(), c.Remove, c.Logger, c.Metrics)

	slots := make([]*T, len(resources))
	fetches, fetchCtx := errgroup.WithContext(ctx)
	fetches.SetLimit(c.limit())

	for index := range resources {
		resource := &resources[index]
		if !c.Types.Contains(resource.Type) {
			continue
		}

		if resource.HasPayload() {
			item := new(T)

			err := resource.Payload(item)
			if err != nil {
				_ = fetches.Wait()
				_ = reconciliation.Wait()

				return nil, nil, gamesvc.NewError(gamesvc.ErrorKindDecode, "decoding resource payload", err)
			}

			if c.Annotate != nil {
				c.Annotate(item, resource)
			}

			slots[index] = item

			continue
		}

		fetches.Go(func() error {
			return c.fetch(fetchCtx, resource, &slots[index], reconciliation)
		})
	}

	err := fetches.Wait()
	if err != nil {
		_ = reconciliation.Wait()

		return nil, nil, err
	}

	items := make([]*T, 0, len(slots))

	for _, item := range slots {
		if item != nil {
			items = append(items, item)
		}
	}

	return items, reconciliation, nil
}

func (c *Codec[T]) fetch(ctx context.Context, resource *Resource, slot **T, reconciliation *Reconciliation) error {
	if c.Fetch == nil {
		reconciliation.schedule(resource.Key())

		return nil
	}

	item, err := c.Fetch(ctx, resource.Name, resource.Type)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", resource.Key(), err)
	}

	if item == nil {
		reconciliation.schedule(resource.Key())

		return nil
	}

	*slot = item

	return nil
}

func (c *Codec[T]) limit() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}

	return constants.DefaultConcurrencyLimit
}

// Reconciliation tracks the orphan removals started by a decode. Removals
// run independently: one failure never cancels another.
type Reconciliation struct {
	ctx     context.Context
	group   errgroup.Group
	remove  RemoveFunc
	logger  gamesvc.Logger
	metrics *metrics.Collector

	mu        sync.Mutex
	scheduled []Key
	errs      []error
}

func newReconciliation(ctx context.Context, limit int, remove RemoveFunc, logger gamesvc.Logger, collector *metrics.Collector) *Reconciliation {
	reconciliation := &Reconciliation{
		ctx:     ctx,
		remove:  remove,
		logger:  logger,
		metrics: collector,
	}
	reconciliation.group.SetLimit(limit)

	return reconciliation
}

func (r *Reconciliation) schedule(key Key) {
	r.mu.Lock()
	r.scheduled = append(r.scheduled, key)
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Info("removing resource unknown to the game service", map[string]interface{}{
			"name": key.Name,
			"type": key.Type,
		})
	}

	if r.remove == nil {
		return
	}

	r.group.Go(func() error {
		err := r.remove(r.ctx, key.Name, key.Type)
		r.metrics.ObserveOrphanCleanup(err)

		if err != nil {
			r.mu.Lock()
			r.errs = append(r.errs, fmt.Errorf("removing %s: %w", key, err))
			r.mu.Unlock()

			if r.logger != nil {
				r.logger.Warn("orphaned resource removal failed", map[string]interface{}{
					"name":  key.Name,
					"type":  key.Type,
					"error": err,
				})
			}
		}

		return nil
	})
}

// Scheduled returns the resources queued for removal.
func (r *Reconciliation) Scheduled() []Key {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Key(nil), r.scheduled...)
}

// Wait blocks until every removal has finished and joins their errors.
func (r *Reconciliation) Wait() error {
	if r == nil {
		return nil
	}

	_ = r.group.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	return errors.Join(r.errs...)
}
