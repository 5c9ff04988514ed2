package integration

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/envelope"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

const (
	subscription   = "sub-int"
	namespaceXML   = "http://schemas.microsoft.com/windowsazure"
	cloudService   = "/cloudservices/gameservices"
	resources      = cloudService + "/resources/gameservices/"
	passthrough    = resources + "~/"
	blobPathPrefix = "/blobs/"
)

// fakeOperation completes after a number of status requests.
type fakeOperation struct {
	remaining int
	failure   string
	apply     func()
	done      bool
}

// fakeRDFE is an in-memory management API holding one subscription. It
// answers the subset of the API the client uses and records every request.
type fakeRDFE struct {
	t      *testing.T
	server *httptest.Server

	mu           sync.Mutex
	registered   map[string]bool
	cloudService bool
	container    bool
	games        map[envelope.Key]*gamesvc.CloudGame
	orphans      map[envelope.Key]bool
	operations   map[string]*fakeOperation
	assets       map[string]*gamesvc.Asset
	certificates map[string]*gamesvc.Certificate
	blobs        map[string][]byte
	requests     []string
	nextID       int

	// pollsPerOperation is the number of InProgress answers before an
	// operation finishes.
	pollsPerOperation int

	// deployFailure, when set, fails every publish operation with this message.
	deployFailure string
}

func newFakeRDFE(t *testing.T) *fakeRDFE {
	t.Helper()

	fake := &fakeRDFE{
		t:                 t,
		registered:        map[string]bool{},
		games:             map[envelope.Key]*gamesvc.CloudGame{},
		orphans:           map[envelope.Key]bool{},
		operations:        map[string]*fakeOperation{},
		assets:            map[string]*gamesvc.Asset{},
		certificates:      map[string]*gamesvc.Certificate{},
		blobs:             map[string][]byte{},
		pollsPerOperation: 1,
	}

	fake.server = httptest.NewServer(http.HandlerFunc(fake.serveHTTP))
	t.Cleanup(fake.server.Close)

	return fake
}

func (f *fakeRDFE) URL() string {
	return f.server.URL
}

func (f *fakeRDFE) newID(prefix string) string {
	f.nextID++

	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// count returns how many times request, "METHOD /path", was received.
func (f *fakeRDFE) count(request string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for _, received := range f.requests {
		if received == request {
			n++
		}
	}

	return n
}

// game returns a copy of the stored game.
func (f *fakeRDFE) game(resourceType, name string) *gamesvc.CloudGame {
	f.mu.Lock()
	defer f.mu.Unlock()

	game, ok := f.games[envelope.Key{Name: name, Type: resourceType}]
	if !ok {
		return nil
	}

	clone := *game

	return &clone
}

func (f *fakeRDFE) addOrphan(resourceType, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.orphans[envelope.Key{Name: name, Type: resourceType}] = true
}

func (f *fakeRDFE) failDeployments(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deployFailure = message
}

func (f *fakeRDFE) setPollsPerOperation(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pollsPerOperation = n
}

// finishOperations makes every pending operation complete on its next poll.
func (f *fakeRDFE) finishOperations() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, operation := range f.operations {
		operation.remaining = 0
	}
}

func (f *fakeRDFE) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if strings.HasPrefix(r.URL.Path, blobPathPrefix) {
		f.serveBlob(w, r)

		return
	}

	if r.Header.Get("Authorization") != "Bearer integration-token" {
		w.WriteHeader(http.StatusUnauthorized)

		return
	}

	path, ok := strings.CutPrefix(r.URL.Path, "/"+subscription)
	if !ok {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	switch {
	case path == "/services":
		f.serveRegister(w, r)
	case path == cloudService:
		f.serveCloudService(w, r)
	case strings.HasPrefix(path, "/operations/"):
		f.serveOperation(w, strings.TrimPrefix(path, "/operations/"))
	case strings.HasPrefix(path, passthrough):
		f.servePassthrough(w, r, strings.Split(strings.TrimPrefix(path, passthrough), "/"))
	case strings.HasPrefix(path, resources):
		f.serveResource(w, r, strings.Split(strings.TrimPrefix(path, resources), "/"))
	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeRDFE) serveRegister(w http.ResponseWriter, r *http.Request) {
	service := r.URL.Query().Get("service")
	if f.registered[service] {
		w.WriteHeader(http.StatusConflict)

		return
	}

	f.registered[service] = true
	w.WriteHeader(http.StatusOK)
}

func (f *fakeRDFE) serveCloudService(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		f.cloudService = true
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		if !f.cloudService {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		writeXML(f.t, w, http.StatusOK, f.listing())
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// listing renders the cloud service with every resource, sorted by key.
func (f *fakeRDFE) listing() *envelope.CloudService {
	service := envelope.NewCloudService(constants.DefaultServiceName, constants.DefaultGeoRegion)

	if f.container {
		container, _ := envelope.Encode(constants.ContainerResourceType, constants.ContainerResourceName, nil)
		service.Resources = append(service.Resources, *container)
	}

	keys := make([]envelope.Key, 0, len(f.games))
	for key := range f.games {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for _, key := range keys {
		resource, err := envelope.Encode(key.Type, key.Name, f.games[key])
		if err != nil {
			f.t.Errorf("encoding %s: %v", key, err)

			continue
		}

		service.Resources = append(service.Resources, *resource)
	}

	for key := range f.orphans {
		resource, _ := envelope.Encode(key.Type, key.Name, nil)
		service.Resources = append(service.Resources, *resource)
	}

	return service
}

// accept starts an operation and answers 202 with its request id.
func (f *fakeRDFE) accept(w http.ResponseWriter, apply func()) *fakeOperation {
	id := f.newID("req")
	operation := &fakeOperation{remaining: f.pollsPerOperation, apply: apply}
	f.operations[id] = operation

	w.Header().Set(constants.RequestIDHeader, id)
	w.WriteHeader(http.StatusAccepted)

	return operation
}

func (f *fakeRDFE) serveOperation(w http.ResponseWriter, id string) {
	operation, ok := f.operations[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	status := "InProgress"

	switch {
	case operation.remaining > 0:
		operation.remaining--
	case operation.failure != "":
		status = "Failed"
	default:
		status = "Succeeded"

		if !operation.done && operation.apply != nil {
			operation.apply()
		}

		operation.done = true
	}

	document := fmt.Sprintf(`<Operation xmlns="%s"><ID>%s</ID><Status>%s</Status><HttpStatusCode>200</HttpStatusCode>`,
		namespaceXML, id, status)
	if status == "Failed" {
		document = fmt.Sprintf(`<Operation xmlns="%s"><ID>%s</ID><Status>Failed</Status><HttpStatusCode>Conflict</HttpStatusCode>`+
			`<Error><Code>Conflict</Code><Message>%s</Message></Error>`, namespaceXML, id, operation.failure)
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, document+"</Operation>")
}

// serveResource handles envelope level requests: name availability,
// creation and deletion.
func (f *fakeRDFE) serveResource(w http.ResponseWriter, r *http.Request, segments []string) {
	resourceType := segments[0]

	name := ""
	if len(segments) > 1 {
		name = segments[1]
	}

	switch {
	case r.Method == http.MethodGet && name == "" && r.URL.Query().Get("op") == "checknameavailability":
		writeXML(f.t, w, http.StatusOK, &envelope.NameAvailability{IsAvailable: !f.container})

	case r.Method == http.MethodPut && resourceType == constants.ContainerResourceType:
		f.accept(w, func() { f.container = true })

	case r.Method == http.MethodPut:
		f.createGame(w, r, resourceType, name)

	case r.Method == http.MethodDelete:
		key := envelope.Key{Name: name, Type: resourceType}

		if f.orphans[key] {
			delete(f.orphans, key)
			w.WriteHeader(http.StatusOK)

			return
		}

		if _, ok := f.games[key]; !ok {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		f.accept(w, func() { delete(f.games, key) })

	default:
		f.t.Errorf("unexpected resource request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (f *fakeRDFE) createGame(w http.ResponseWriter, r *http.Request, resourceType, name string) {
	var resource envelope.Resource

	if err := xml.NewDecoder(r.Body).Decode(&resource); err != nil {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	var payload struct {
		CloudGame struct {
			TitleID   string `json:"titleId"`
			Sandboxes string `json:"sandboxes"`
			SchemaID  string `json:"schemaId"`
		} `json:"cloudGame"`
		GameModeSchema *struct {
			Metadata struct {
				Name string `json:"name"`
			} `json:"metadata"`
		} `json:"gameModeSchema"`
	}

	if err := resource.Payload(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	platform, err := gamesvc.PlatformForResourceType(resourceType)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	key := envelope.Key{Name: name, Type: resourceType}
	if _, exists := f.games[key]; exists {
		w.WriteHeader(http.StatusConflict)

		return
	}

	game := &gamesvc.CloudGame{
		ID:        f.newID("game"),
		Name:      name,
		Status:    "Creating",
		Platform:  strings.ToLower(string(platform)),
		TitleID:   payload.CloudGame.TitleID,
		Sandboxes: payload.CloudGame.Sandboxes,
		SchemaID:  payload.CloudGame.SchemaID,
	}

	if payload.GameModeSchema != nil {
		game.SchemaName = payload.GameModeSchema.Metadata.Name
	}

	f.games[key] = game
	f.accept(w, func() { game.Status = "Stopped" })
}

// servePassthrough handles requests forwarded to the game service.
func (f *fakeRDFE) servePassthrough(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) < 2 {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	if segments[0] == constants.ContainerResourceType {
		f.serveContainerItems(w, r, segments[2:])

		return
	}

	key := envelope.Key{Name: segments[1], Type: segments[0]}

	game, ok := f.games[key]
	if !ok {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	switch {
	case r.Method == http.MethodGet:
		writeJSON(f.t, w, http.StatusOK, game)
	case r.Method == http.MethodPut && r.URL.Query().Get("operation") == "publish":
		if game.Status == "Deployed" {
			w.WriteHeader(http.StatusConflict)

			return
		}

		operation := f.accept(w, func() { game.Status = "Deployed" })
		operation.failure = f.deployFailure
	case r.Method == http.MethodPut && r.URL.Query().Get("operation") == "unpublish":
		f.accept(w, func() { game.Status = "Stopped" })
	default:
		f.t.Errorf("unexpected game request %s %s", r.Method, r.URL.String())
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (f *fakeRDFE) serveContainerItems(w http.ResponseWriter, r *http.Request, segments []string) {
	if !f.container {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	if len(segments) == 0 {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	id := ""
	if len(segments) > 1 {
		id = segments[1]
	}

	switch segments[0] {
	case "assets":
		f.serveAssets(w, r, id)
	case "certificates":
		f.serveCertificates(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeRDFE) serveAssets(w http.ResponseWriter, r *http.Request, id string) {
	switch {
	case r.Method == http.MethodGet && id == "":
		collection := gamesvc.AssetCollection{Assets: []gamesvc.Asset{}}
		for _, asset := range f.assets {
			collection.Assets = append(collection.Assets, *asset)
		}

		writeJSON(f.t, w, http.StatusOK, collection)

	case r.Method == http.MethodPost && id == "":
		var metadata struct {
			Name     string `json:"name"`
			Filename string `json:"filename"`
		}

		if err := json.Unmarshal([]byte(r.FormValue("metadata")), &metadata); err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		assetID := f.newID("asset")
		f.assets[assetID] = &gamesvc.Asset{ID: assetID, Name: metadata.Name, FileName: metadata.Filename, Status: "Pending"}

		writeJSON(f.t, w, http.StatusOK, gamesvc.AssetPostResponse{
			AssetID:         assetID,
			AssetPreAuthURL: f.server.URL + blobPathPrefix + assetID,
		})

	case r.Method == http.MethodPut && id != "":
		asset, ok := f.assets[id]
		if !ok || f.blobs[id] == nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		asset.Status = "Ready"
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodDelete && id != "":
		if _, ok := f.assets[id]; !ok {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		delete(f.assets, id)
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (f *fakeRDFE) serveCertificates(w http.ResponseWriter, r *http.Request, id string) {
	switch {
	case r.Method == http.MethodGet && id == "":
		collection := gamesvc.CertificateCollection{Certificates: []gamesvc.Certificate{}}
		for _, certificate := range f.certificates {
			collection.Certificates = append(collection.Certificates, *certificate)
		}

		writeJSON(f.t, w, http.StatusOK, collection)

	case r.Method == http.MethodPost && id == "":
		var metadata struct {
			Name     string `json:"name"`
			Filename string `json:"filename"`
			Password string `json:"password"`
		}

		if err := json.Unmarshal([]byte(r.FormValue("metadata")), &metadata); err != nil || metadata.Password == "" {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		file, _, err := r.FormFile("certificate")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}
		_ = file.Close()

		certificateID := f.newID("cert")
		f.certificates[certificateID] = &gamesvc.Certificate{ID: certificateID, Name: metadata.Name, FileName: metadata.Filename}

		writeJSON(f.t, w, http.StatusOK, gamesvc.ItemCreated{ID: certificateID})

	case r.Method == http.MethodDelete && id != "":
		if _, ok := f.certificates[id]; !ok {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		delete(f.certificates, id)
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

// serveBlob stores a pre-authorized upload. Uploads carry no credential.
func (f *fakeRDFE) serveBlob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut || r.Header.Get("Authorization") != "" || r.Header.Get("x-ms-blob-type") != "BlockBlob" {
		w.WriteHeader(http.StatusForbidden)

		return
	}

	content, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	f.blobs[strings.TrimPrefix(r.URL.Path, blobPathPrefix)] = content
	w.WriteHeader(http.StatusCreated)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, value interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(value); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func writeXML(t *testing.T, w http.ResponseWriter, status int, value interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(status)

	if err := xml.NewEncoder(w).Encode(value); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}
