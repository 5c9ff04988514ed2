// Package operation polls asynchronous management operations and keeps
// track of their outcomes.
package operation

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	gshttp "github.com/fivetwenty-io/gameservices-client/internal/http"
)

// Status is the state reported by the status endpoint.
type Status string

const (
	StatusInProgress Status = constants.OperationStatusInProgress
	StatusSucceeded  Status = constants.OperationStatusSucceeded
	StatusFailed     Status = constants.OperationStatusFailed
)

// ParseStatus maps a reported status to a Status, ignoring case.
func ParseStatus(value string) (Status, error) {
	for _, status := range []Status{StatusInProgress, StatusSucceeded, StatusFailed} {
		if strings.EqualFold(strings.TrimSpace(value), string(status)) {
			return status, nil
		}
	}

	return "", fmt.Errorf("unknown operation status %q", value)
}

// ErrorDetails is the failure reported for a Failed operation.
type ErrorDetails struct {
	Code    string
	Message string
}

// StatusResponse is one answer of the status endpoint.
type StatusResponse struct {
	ID             string
	Status         Status
	HTTPStatusCode int

	// RequestID is the request id of the poll itself, kept for diagnostics.
	RequestID string

	Error *ErrorDetails
}

type statusDocument struct {
	XMLName        xml.Name `xml:"http://schemas.microsoft.com/windowsazure Operation"`
	ID             string   `xml:"ID"`
	Status         string   `xml:"Status"`
	HTTPStatusCode string   `xml:"HttpStatusCode"`
	Error          *struct {
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	} `xml:"Error"`
}

// ParseStatusResponse decodes a status document.
func ParseStatusResponse(data []byte, charset string) (*StatusResponse, error) {
	var document statusDocument

	err := gshttp.UnmarshalXML(data, charset, &document)
	if err != nil {
		return nil, fmt.Errorf("parsing operation status: %w", err)
	}

	status, err := ParseStatus(document.Status)
	if err != nil {
		return nil, err
	}

	code, err := ParseHTTPStatusCode(document.HTTPStatusCode)
	if err != nil {
		return nil, err
	}

	response := &StatusResponse{
		ID:             strings.TrimSpace(document.ID),
		Status:         status,
		HTTPStatusCode: code,
	}

	if document.Error != nil {
		response.Error = &ErrorDetails{
			Code:    strings.TrimSpace(document.Error.Code),
			Message: strings.TrimSpace(document.Error.Message),
		}
	}

	return response, nil
}

// statusCodesByName maps names such as "Conflict" or "InternalServerError"
// to their codes. It is never written after initialization.
var statusCodesByName = func() map[string]int {
	names := make(map[string]int)

	for code := 100; code < 600; code++ {
		text := http.StatusText(code)
		if text == "" {
			continue
		}

		name := strings.NewReplacer(" ", "", "-", "", "'", "").Replace(text)
		names[strings.ToLower(name)] = code
	}

	// Names that differ from the registered reason phrases.
	names["redirect"] = http.StatusFound
	names["redirectmethod"] = http.StatusSeeOther
	names["redirectkeepverb"] = http.StatusTemporaryRedirect
	names["ambiguous"] = http.StatusMultipleChoices
	names["moved"] = http.StatusMovedPermanently
	names["requestentitytoolarge"] = http.StatusRequestEntityTooLarge
	names["requesturitoolong"] = http.StatusRequestURITooLong

	return names
}()

// ParseHTTPStatusCode accepts a numeric code or a status name. An empty
// value yields zero.
func ParseHTTPStatusCode(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	if code, err := strconv.Atoi(value); err == nil {
		return code, nil
	}

	code, ok := statusCodesByName[strings.ToLower(value)]
	if !ok {
		return 0, fmt.Errorf("unknown HTTP status code %q", value)
	}

	return code, nil
}
