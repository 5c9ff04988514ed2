// Package envelope reads and writes the XML resource envelopes of the
// management API. Each Resource carries its domain object as a JSON document
// inside a CDATA section.
package envelope

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"github.com/google/uuid"
)

// CloudService is the parent collection of every game resource.
type CloudService struct {
	XMLName     xml.Name   `xml:"http://schemas.microsoft.com/windowsazure CloudService"`
	Description string     `xml:"Description,omitempty"`
	GeoRegion   string     `xml:"GeoRegion,omitempty"`
	Label       string     `xml:"Label,omitempty"`
	Name        string     `xml:"Name"`
	Resources   []Resource `xml:"Resources>Resource"`
}

// NewCloudService returns the service definition created on first registration.
func NewCloudService(name, geoRegion string) *CloudService {
	return &CloudService{
		Name:        name,
		Label:       name,
		Description: name,
		GeoRegion:   geoRegion,
	}
}

// Resource is one entry of a cloud service. Elements are kept in the order
// the service expects them on PUT.
type Resource struct {
	XMLName                   xml.Name           `xml:"http://schemas.microsoft.com/windowsazure Resource"`
	ETag                      string             `xml:"ETag,omitempty"`
	IntrinsicSettings         *IntrinsicSettings `xml:"IntrinsicSettings,omitempty"`
	Name                      string             `xml:"Name"`
	OperationStatus           *OperationStatus   `xml:"OperationStatus,omitempty"`
	Plan                      string             `xml:"Plan"`
	ResourceProviderNamespace string             `xml:"ResourceProviderNamespace"`
	SchemaVersion             string             `xml:"SchemaVersion,omitempty"`
	State                     string             `xml:"State,omitempty"`
	Type                      string             `xml:"Type"`
}

// IntrinsicSettings holds the raw JSON payload of a resource.
type IntrinsicSettings struct {
	Data string `xml:",cdata"`
}

// OperationStatus is the result of the last operation run on a resource.
type OperationStatus struct {
	Type   string                 `xml:"Type,omitempty"`
	Result string                 `xml:"Result,omitempty"`
	Error  *gamesvc.ResourceError `xml:"Error,omitempty"`
}

// NameAvailability answers a resource name availability check.
type NameAvailability struct {
	XMLName     xml.Name `xml:"http://schemas.microsoft.com/windowsazure ResourceNameAvailabilityResponse"`
	IsAvailable bool     `xml:"IsAvailable"`
	Reason      string   `xml:"Reason,omitempty"`
	Message     string   `xml:"Message,omitempty"`
}

// Key identifies a resource within a cloud service.
type Key struct {
	Name string
	Type string
}

func (k Key) String() string {
	return k.Type + "/" + k.Name
}

// Key returns the identity of r.
func (r *Resource) Key() Key {
	return Key{Name: r.Name, Type: r.Type}
}

// HasPayload reports whether r carries a non-empty payload.
func (r *Resource) HasPayload() bool {
	return r.IntrinsicSettings != nil && strings.TrimSpace(r.IntrinsicSettings.Data) != ""
}

// Payload decodes the embedded JSON document into value.
func (r *Resource) Payload(value interface{}) error {
	if !r.HasPayload() {
		return fmt.Errorf("resource %s carries no intrinsic settings", r.Key())
	}

	decoder := json.NewDecoder(strings.NewReader(r.IntrinsicSettings.Data))

	err := decoder.Decode(value)
	if err != nil {
		return fmt.Errorf("decoding intrinsic settings of %s: %w", r.Key(), err)
	}

	return nil
}

// Error returns the error state of the last operation, if any.
func (r *Resource) Error() *gamesvc.ResourceError {
	if r.OperationStatus == nil || r.OperationStatus.Error == nil {
		return nil
	}

	if *r.OperationStatus.Error == (gamesvc.ResourceError{}) {
		return nil
	}

	return r.OperationStatus.Error
}

// Encode wraps payload in a new resource envelope of the given type. A nil
// payload produces an envelope without intrinsic settings.
func Encode(resourceType, name string, payload interface{}) (*Resource, error) {
	resource := &Resource{
		ETag:                      uuid.NewString(),
		Name:                      name,
		ResourceProviderNamespace: constants.ResourceProviderNamespace,
		SchemaVersion:             constants.SchemaVersion,
		Type:                      resourceType,
	}

	if payload == nil {
		return resource, nil
	}

	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	err := encoder.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding intrinsic settings of %s/%s: %w", resourceType, name, err)
	}

	resource.IntrinsicSettings = &IntrinsicSettings{Data: strings.TrimSuffix(buf.String(), "\n")}

	return resource, nil
}
