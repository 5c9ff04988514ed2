package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"sync"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/envelope"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/internal/operation"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// registrar performs the idempotent first-use setup of a subscription:
// resource type registration, the parent cloud service and the container
// resource holding subscription level items.
type registrar struct {
	httpClient *http.Client
	poller     *operation.Poller
	logger     gamesvc.Logger

	// container is set once the container is known to exist, so later
	// uploads in the same process skip the round trips.
	mu        sync.Mutex
	container bool
}

func newRegistrar(httpClient *http.Client, poller *operation.Poller, logger gamesvc.Logger) *registrar {
	return &registrar{
		httpClient: httpClient,
		poller:     poller,
		logger:     logger,
	}
}

// register registers resourceType on the subscription. Already registered
// types answer 409, which is success.
func (r *registrar) register(ctx context.Context, resourceType string) error {
	resp, err := r.httpClient.Do(ctx, &http.Request{
		Method: nethttp.MethodPut,
		Path:   servicesPath,
		Query: url.Values{
			"service": []string{constants.ResourceProviderNamespace + "." + resourceType},
			"action":  []string{"register"},
		},
		Accept: constants.ContentTypeJSON,
	})
	if err != nil {
		return fmt.Errorf("registering %s: %w", resourceType, err)
	}

	_, err = http.DecodeBooleanAllowConflict(resp)
	if err != nil {
		return fmt.Errorf("registering %s: %w", resourceType, err)
	}

	return nil
}

// ensureCloudService creates the gameservices cloud service unless it exists.
func (r *registrar) ensureCloudService(ctx context.Context) error {
	resp, err := r.httpClient.GetXML(ctx, cloudServicePath, nil)
	if err != nil {
		return fmt.Errorf("getting cloud service: %w", err)
	}

	switch {
	case resp.IsSuccess():
		existing, err := http.DecodeXML[envelope.CloudService](resp)
		if err != nil {
			return fmt.Errorf("getting cloud service: %w", err)
		}

		if existing.Name == constants.DefaultServiceName {
			return nil
		}
	case resp.StatusCode != nethttp.StatusNotFound:
		return fmt.Errorf("getting cloud service: %w", http.NewResponseError(resp))
	}

	r.logger.Info("creating cloud service", map[string]interface{}{
		"name":       constants.DefaultServiceName,
		"geo_region": constants.DefaultGeoRegion,
	})

	resp, err = r.httpClient.PutXML(ctx, cloudServicePath,
		envelope.NewCloudService(constants.DefaultServiceName, constants.DefaultGeoRegion))
	if err != nil {
		return fmt.Errorf("creating cloud service: %w", err)
	}

	err = http.ExpectStatus(resp)
	if err != nil {
		return fmt.Errorf("creating cloud service: %w", err)
	}

	return nil
}

// registerCloudGameType prepares the subscription for a cloud game of the
// given resource type.
func (r *registrar) registerCloudGameType(ctx context.Context, resourceType string) error {
	err := r.register(ctx, resourceType)
	if err != nil {
		return err
	}

	return r.ensureCloudService(ctx)
}

// containerAvailable reports whether the container name is still free, that
// is the container has not been created yet.
func (r *registrar) containerAvailable(ctx context.Context) (bool, error) {
	resp, err := r.httpClient.GetXML(ctx, containerTypePath, url.Values{
		"op":           []string{"checknameavailability"},
		"resourceName": []string{constants.ContainerResourceName},
	})
	if err != nil {
		return false, fmt.Errorf("checking container name availability: %w", err)
	}

	// No cloud service yet, so no container either.
	if resp.StatusCode == nethttp.StatusNotFound {
		return true, nil
	}

	availability, err := http.DecodeXML[envelope.NameAvailability](resp)
	if err != nil {
		return false, fmt.Errorf("checking container name availability: %w", err)
	}

	return availability.IsAvailable, nil
}

// ensureContainer registers the container type and creates the container
// resource when it does not exist. A 400 on creation means another client
// created it first.
func (r *registrar) ensureContainer(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.container {
		return nil
	}

	err := r.register(ctx, constants.ContainerResourceType)
	if err != nil {
		return err
	}

	available, err := r.containerAvailable(ctx)
	if err != nil {
		return err
	}

	if available {
		err = r.createContainer(ctx)
		if err != nil {
			return err
		}
	}

	r.container = true

	return nil
}

func (r *registrar) createContainer(ctx context.Context) error {
	err := r.ensureCloudService(ctx)
	if err != nil {
		return err
	}

	resource, err := envelope.Encode(constants.ContainerResourceType, constants.ContainerResourceName, nil)
	if err != nil {
		return err
	}

	r.logger.Info("creating container resource", map[string]interface{}{
		"name": constants.ContainerResourceName,
	})

	resp, err := r.httpClient.PutXML(ctx, containerPath, resource)
	if err != nil {
		return fmt.Errorf("creating container: %w", err)
	}

	if resp.StatusCode == nethttp.StatusBadRequest {
		return nil
	}

	result, err := awaitOperation(ctx, r.poller, resp, "create container")
	if err != nil {
		return fmt.Errorf("creating container: %w", err)
	}

	if result.State == gamesvc.OperationStateTimedOut {
		return fmt.Errorf("creating container: %w", timedOut(result))
	}

	return nil
}
