package client

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/envelope"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/internal/metrics"
	"github.com/fivetwenty-io/gameservices-client/internal/operation"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// CloudGamesClient implements gamesvc.CloudGamesClient.
type CloudGamesClient struct {
	httpClient *http.Client
	poller     *operation.Poller
	registrar  *registrar
	logger     gamesvc.Logger
	metrics    *metrics.Collector
}

// NewCloudGamesClient creates a new cloud games client.
func NewCloudGamesClient(httpClient *http.Client, poller *operation.Poller, registrar *registrar, logger gamesvc.Logger, collector *metrics.Collector) *CloudGamesClient {
	return &CloudGamesClient{
		httpClient: httpClient,
		poller:     poller,
		registrar:  registrar,
		logger:     logger,
		metrics:    collector,
	}
}

// cloudGamePayload is the JSON document carried in the envelope of a new
// cloud game.
type cloudGamePayload struct {
	CloudGame      cloudGameSpec          `json:"cloudGame"`
	GameModeSchema *gameModeSchemaPayload `json:"gameModeSchema,omitempty"`
}

type cloudGameSpec struct {
	Name           string         `json:"name"`
	ResourceSets   string         `json:"resourceSets"`
	Sandboxes      string         `json:"sandboxes"`
	SchemaID       string         `json:"schemaId,omitempty"`
	SchemaName     string         `json:"schemaName,omitempty"`
	TitleID        string         `json:"titleId"`
	SelectionOrder int            `json:"selectionOrder"`
	Tags           map[string]any `json:"tags,omitempty"`
}

type gameModeSchemaPayload struct {
	Metadata gameModeSchemaMetadata `json:"metadata"`
	Content  string                 `json:"content"`
}

type gameModeSchemaMetadata struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	TitleID  string `json:"titleId,omitempty"`
}

type configurePayload struct {
	ResourceSets string `json:"resourceSets"`
	Sandboxes    string `json:"sandboxes"`
}

// deployedStates are the statuses in which a game cannot be removed.
var deployedStates = []string{"deployed", "deploying", "published", "publishing"}

// List implements gamesvc.CloudGamesClient.List. Games that the listing
// knows but the game service does not are removed before List returns;
// failures to remove them are logged and do not fail the listing. A
// subscription without the game services cloud service answers 404, which
// List reports as no games rather than as an error.
func (c *CloudGamesClient) List(ctx context.Context) ([]gamesvc.CloudGame, error) {
	resp, err := c.httpClient.GetXML(ctx, cloudServicePath, url.Values{"detailLevel": []string{"full"}})
	if err != nil {
		return nil, fmt.Errorf("listing cloud games: %w", err)
	}

	if resp.StatusCode == nethttp.StatusNotFound {
		return []gamesvc.CloudGame{}, nil
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("listing cloud games: %w", http.NewResponseError(resp))
	}

	codec := &envelope.Codec[gamesvc.CloudGame]{
		Types:    envelope.NewTypeSet(gamesvc.CloudGameResourceTypes()...),
		Fetch:    c.fetch,
		Remove:   c.removeOrphan,
		Annotate: annotateCloudGame,
		Logger:   c.logger,
		Metrics:  c.metrics,
	}

	items, reconciliation, err := codec.Decode(ctx, resp.Body, resp.Charset())
	if err != nil {
		return nil, fmt.Errorf("listing cloud games: %w", err)
	}

	err = reconciliation.Wait()
	if err != nil {
		c.logger.Warn("removing orphaned cloud games", map[string]interface{}{
			"scheduled": len(reconciliation.Scheduled()),
			"error":     err,
		})
	}

	games := make([]gamesvc.CloudGame, 0, len(items))
	for _, item := range items {
		games = append(games, *item)
	}

	return games, nil
}

func (c *CloudGamesClient) fetch(ctx context.Context, name, resourceType string) (*gamesvc.CloudGame, error) {
	platform, err := gamesvc.PlatformForResourceType(resourceType)
	if err != nil {
		return nil, err
	}

	return c.Get(ctx, name, platform)
}

func (c *CloudGamesClient) removeOrphan(ctx context.Context, name, resourceType string) error {
	platform, err := gamesvc.PlatformForResourceType(resourceType)
	if err != nil {
		return err
	}

	_, err = c.Remove(ctx, name, platform, false)

	return err
}

func annotateCloudGame(game *gamesvc.CloudGame, resource *envelope.Resource) {
	game.Error = resource.Error()
	game.InErrorState = game.Error != nil

	if game.Name == "" {
		game.Name = resource.Name
	}

	if game.Type == "" {
		game.Type = resource.Type
	}
}

// Get implements gamesvc.CloudGamesClient.Get.
func (c *CloudGamesClient) Get(ctx context.Context, name string, platform gamesvc.Platform) (*gamesvc.CloudGame, error) {
	path, err := cloudGamePath(name, platform)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting cloud game: %w", err)
	}

	game, err := http.DecodeJSON[gamesvc.CloudGame](resp)
	if err != nil {
		return nil, fmt.Errorf("getting cloud game: %w", err)
	}

	return game, nil
}

// Create implements gamesvc.CloudGamesClient.Create.
func (c *CloudGamesClient) Create(ctx context.Context, request *gamesvc.CloudGameRequest) (*gamesvc.OperationResult, error) {
	if request == nil || request.Name == "" {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrNameRequired.Error(), constants.ErrNameRequired)
	}

	resourceType, err := platformType(request.Platform)
	if err != nil {
		return nil, err
	}

	payload, err := newCloudGamePayload(request)
	if err != nil {
		return nil, err
	}

	err = c.registrar.registerCloudGameType(ctx, resourceType)
	if err != nil {
		return nil, fmt.Errorf("creating cloud game: %w", err)
	}

	resource, err := envelope.Encode(resourceType, request.Name, payload)
	if err != nil {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, "encoding cloud game", err)
	}

	path, err := cloudGameResourcePath(request.Name, request.Platform)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.PutXML(ctx, path, resource)
	if err != nil {
		return nil, fmt.Errorf("creating cloud game: %w", err)
	}

	result, err := awaitOperation(ctx, c.poller, resp, "create cloud game "+request.Name)
	if err != nil {
		return result, fmt.Errorf("creating cloud game: %w", err)
	}

	return result, nil
}

// newCloudGamePayload validates request and builds the envelope payload. An
// existing schema is referenced by id; otherwise the schema is sent inline.
func newCloudGamePayload(request *gamesvc.CloudGameRequest) (*cloudGamePayload, error) {
	payload := &cloudGamePayload{
		CloudGame: cloudGameSpec{
			Name:           request.Name,
			ResourceSets:   strings.Join(request.ResourceSetIDs, ","),
			Sandboxes:      strings.Join(request.Sandboxes, ","),
			SchemaName:     request.SchemaName,
			TitleID:        request.TitleID,
			SelectionOrder: request.SelectionOrder,
			Tags:           request.Tags,
		},
	}

	if request.SchemaID != "" {
		payload.CloudGame.SchemaID = request.SchemaID

		return payload, nil
	}

	if request.SchemaName == "" || request.SchemaFileName == "" || request.Schema == nil {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, gamesvc.ErrInvalidSchema.Error(), gamesvc.ErrInvalidSchema)
	}

	content, err := io.ReadAll(request.Schema)
	if err != nil {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, "reading game mode schema", err)
	}

	payload.GameModeSchema = &gameModeSchemaPayload{
		Metadata: gameModeSchemaMetadata{
			Name:     request.SchemaName,
			Filename: request.SchemaFileName,
			TitleID:  request.TitleID,
		},
		Content: string(content),
	}

	return payload, nil
}

// Remove implements gamesvc.CloudGamesClient.Remove. With checkStateFirst a
// deployed game is refused before anything is deleted.
func (c *CloudGamesClient) Remove(ctx context.Context, name string, platform gamesvc.Platform, checkStateFirst bool) (*gamesvc.OperationResult, error) {
	path, err := cloudGameResourcePath(name, platform)
	if err != nil {
		return nil, err
	}

	if checkStateFirst {
		game, err := c.Get(ctx, name, platform)
		if err != nil {
			return nil, fmt.Errorf("removing cloud game: %w", err)
		}

		if game != nil && isDeployed(game.Status) {
			return nil, gamesvc.NewError(gamesvc.ErrorKindValidation,
				fmt.Sprintf("%s is %s", name, game.Status), constants.ErrCloudGameDeployed)
		}
	}

	resp, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("removing cloud game: %w", err)
	}

	result, err := awaitOperation(ctx, c.poller, resp, "remove cloud game "+name)
	if err != nil {
		return result, fmt.Errorf("removing cloud game: %w", err)
	}

	return result, nil
}

func isDeployed(status string) bool {
	for _, state := range deployedStates {
		if strings.EqualFold(status, state) {
			return true
		}
	}

	return false
}

// Deploy implements gamesvc.CloudGamesClient.Deploy.
func (c *CloudGamesClient) Deploy(ctx context.Context, name string, platform gamesvc.Platform, request *gamesvc.DeployRequest) (*gamesvc.OperationResult, error) {
	if request == nil {
		request = &gamesvc.DeployRequest{}
	}

	query := url.Values{
		"operation": []string{"publish"},
		"sandboxes": []string{strings.Join(request.Sandboxes, ",")},
		"geoRegion": []string{strings.Join(request.GeoRegions, ",")},
	}

	if request.PublishOnly {
		query.Set("publishOnly", "true")
	}

	result, err := c.lifecycle(ctx, name, platform, query, "deploy cloud game "+name)
	if err != nil {
		return result, fmt.Errorf("deploying cloud game: %w", err)
	}

	return result, nil
}

// Stop implements gamesvc.CloudGamesClient.Stop.
func (c *CloudGamesClient) Stop(ctx context.Context, name string, platform gamesvc.Platform, unpublishOnly bool) (*gamesvc.OperationResult, error) {
	query := url.Values{"operation": []string{"unpublish"}}

	if unpublishOnly {
		query.Set("unpublishOnly", "true")
	}

	result, err := c.lifecycle(ctx, name, platform, query, "stop cloud game "+name)
	if err != nil {
		return result, fmt.Errorf("stopping cloud game: %w", err)
	}

	return result, nil
}

// lifecycle sends an empty PUT carrying an operation query and waits for it.
func (c *CloudGamesClient) lifecycle(ctx context.Context, name string, platform gamesvc.Platform, query url.Values, description string) (*gamesvc.OperationResult, error) {
	path, err := cloudGamePath(name, platform)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method: nethttp.MethodPut,
		Path:   path,
		Query:  query,
		Accept: constants.ContentTypeJSON,
	})
	if err != nil {
		return nil, err
	}

	return awaitOperation(ctx, c.poller, resp, description)
}

// Configure implements gamesvc.CloudGamesClient.Configure.
func (c *CloudGamesClient) Configure(ctx context.Context, name string, platform gamesvc.Platform, resourceSets, sandboxes []string) (bool, error) {
	path, err := cloudGamePath(name, platform)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method: nethttp.MethodPut,
		Path:   path,
		Query:  url.Values{"operation": []string{"configure"}},
		Body: configurePayload{
			ResourceSets: strings.Join(resourceSets, ","),
			Sandboxes:    strings.Join(sandboxes, ","),
		},
		Accept: constants.ContentTypeJSON,
	})
	if err != nil {
		return false, fmt.Errorf("configuring cloud game: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("configuring cloud game: %w", err)
	}

	return ok, nil
}

// RepairSessionHost implements gamesvc.CloudGamesClient.RepairSessionHost.
func (c *CloudGamesClient) RepairSessionHost(ctx context.Context, name string, platform gamesvc.Platform, sessionHostID string) (bool, error) {
	if sessionHostID == "" {
		return false, gamesvc.NewError(gamesvc.ErrorKindValidation, "session host id is required", nil)
	}

	path, err := cloudGamePath(name, platform, "sessionhosts", sessionHostID)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method: nethttp.MethodPut,
		Path:   path,
		Query:  url.Values{"operation": []string{"repair"}},
		Accept: constants.ContentTypeJSON,
	})
	if err != nil {
		return false, fmt.Errorf("repairing session host: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("repairing session host: %w", err)
	}

	return ok, nil
}
