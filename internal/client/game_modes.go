package client

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

var gameModeSchemasPath = containerPassthroughPath + "/variantschemas"

type gameModeMetadata struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// GameModeSchemasClient implements gamesvc.GameModeSchemasClient.
type GameModeSchemasClient struct {
	httpClient *http.Client
	registrar  *registrar
}

// NewGameModeSchemasClient creates a new game mode schemas client.
func NewGameModeSchemasClient(httpClient *http.Client, registrar *registrar) *GameModeSchemasClient {
	return &GameModeSchemasClient{
		httpClient: httpClient,
		registrar:  registrar,
	}
}

// List implements gamesvc.GameModeSchemasClient.List. With details set, each
// schema carries its game modes.
func (c *GameModeSchemasClient) List(ctx context.Context, details bool) (*gamesvc.GameModeSchemaCollection, error) {
	query := url.Values{"details": []string{strconv.FormatBool(details)}}

	resp, err := c.httpClient.Get(ctx, gameModeSchemasPath, query)
	if err != nil {
		return nil, fmt.Errorf("listing game mode schemas: %w", err)
	}

	list, err := decodeCollection[gamesvc.GameModeSchemaCollection](resp)
	if err != nil {
		return nil, fmt.Errorf("listing game mode schemas: %w", err)
	}

	return list, nil
}

// Create implements gamesvc.GameModeSchemasClient.Create.
func (c *GameModeSchemasClient) Create(ctx context.Context, name, fileName string, content io.Reader) (*gamesvc.ItemCreated, error) {
	if name == "" {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrNameRequired.Error(), constants.ErrNameRequired)
	}

	if content == nil {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrFileRequired.Error(), constants.ErrFileRequired)
	}

	err := c.registrar.ensureContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating game mode schema: %w", err)
	}

	resp, err := sendMultipart(ctx, c.httpClient, nethttp.MethodPost, gameModeSchemasPath,
		gameModeMetadata{Name: name, Filename: fileName},
		formFile{field: "variantSchema", fileName: fileName, content: content})
	if err != nil {
		return nil, fmt.Errorf("creating game mode schema: %w", err)
	}

	created, err := decodeCreated[gamesvc.ItemCreated](resp)
	if err != nil {
		return nil, fmt.Errorf("creating game mode schema: %w", err)
	}

	return created, nil
}

// Remove implements gamesvc.GameModeSchemasClient.Remove.
func (c *GameModeSchemasClient) Remove(ctx context.Context, schemaID string) (bool, error) {
	resp, err := c.httpClient.Delete(ctx, joinPath(gameModeSchemasPath, schemaID))
	if err != nil {
		return false, fmt.Errorf("removing game mode schema: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("removing game mode schema: %w", err)
	}

	return ok, nil
}

// GameModesClient implements gamesvc.GameModesClient. Game modes always
// belong to a schema.
type GameModesClient struct {
	httpClient *http.Client
}

// NewGameModesClient creates a new game modes client.
func NewGameModesClient(httpClient *http.Client) *GameModesClient {
	return &GameModesClient{
		httpClient: httpClient,
	}
}

func gameModesPath(schemaID string, gameModeID ...string) string {
	return joinPath(gameModeSchemasPath, append([]string{schemaID, "variants"}, gameModeID...)...)
}

// List implements gamesvc.GameModesClient.List.
func (c *GameModesClient) List(ctx context.Context, schemaID string) (*gamesvc.GameModeCollection, error) {
	resp, err := c.httpClient.Get(ctx, gameModesPath(schemaID), nil)
	if err != nil {
		return nil, fmt.Errorf("listing game modes: %w", err)
	}

	list, err := decodeCollection[gamesvc.GameModeCollection](resp)
	if err != nil {
		return nil, fmt.Errorf("listing game modes: %w", err)
	}

	return list, nil
}

// Create implements gamesvc.GameModesClient.Create.
func (c *GameModesClient) Create(ctx context.Context, schemaID, name, fileName string, content io.Reader) (*gamesvc.ItemCreated, error) {
	if name == "" {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrNameRequired.Error(), constants.ErrNameRequired)
	}

	if content == nil {
		return nil, gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrFileRequired.Error(), constants.ErrFileRequired)
	}

	resp, err := sendMultipart(ctx, c.httpClient, nethttp.MethodPost, gameModesPath(schemaID),
		gameModeMetadata{Name: name, Filename: fileName},
		formFile{field: "variant", fileName: fileName, content: content})
	if err != nil {
		return nil, fmt.Errorf("creating game mode: %w", err)
	}

	created, err := decodeCreated[gamesvc.ItemCreated](resp)
	if err != nil {
		return nil, fmt.Errorf("creating game mode: %w", err)
	}

	return created, nil
}

// Remove implements gamesvc.GameModesClient.Remove.
func (c *GameModesClient) Remove(ctx context.Context, schemaID, gameModeID string) (bool, error) {
	resp, err := c.httpClient.Delete(ctx, gameModesPath(schemaID, gameModeID))
	if err != nil {
		return false, fmt.Errorf("removing game mode: %w", err)
	}

	ok, err := http.DecodeBoolean(resp)
	if err != nil {
		return false, fmt.Errorf("removing game mode: %w", err)
	}

	return ok, nil
}
