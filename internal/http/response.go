package http

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
	"golang.org/x/net/html/charset"
)

// DecodeJSON decodes a successful JSON response into a new T. A 404 returns
// nil without an error; any other failure returns a ServiceResponseError.
func DecodeJSON[T any](resp *Response) (*T, error) {
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	if !resp.IsSuccess() {
		return nil, NewResponseError(resp)
	}

	value := new(T)

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return value, nil
	}

	err := json.Unmarshal(resp.Body, value)
	if err != nil {
		return nil, decodeError(resp, "parsing JSON response", err)
	}

	return value, nil
}

// DecodeXML decodes a successful XML response into a new T, honoring the
// charset declared by the response.
func DecodeXML[T any](resp *Response) (*T, error) {
	if !resp.IsSuccess() {
		return nil, NewResponseError(resp)
	}

	value := new(T)

	err := UnmarshalXML(resp.Body, resp.Charset(), value)
	if err != nil {
		return nil, decodeError(resp, "parsing XML response", err)
	}

	return value, nil
}

// DecodeBoolean returns true for a 2xx response and an error otherwise.
func DecodeBoolean(resp *Response) (bool, error) {
	if resp.IsSuccess() {
		return true, nil
	}

	return false, NewResponseError(resp)
}

// DecodeBooleanAllowConflict also treats 409 as success, for idempotent
// registration calls.
func DecodeBooleanAllowConflict(resp *Response) (bool, error) {
	if resp.StatusCode == http.StatusConflict {
		return true, nil
	}

	return DecodeBoolean(resp)
}

// ExpectStatus returns an error unless resp is 2xx or one of allowed.
func ExpectStatus(resp *Response, allowed ...int) error {
	if resp.IsSuccess() {
		return nil
	}

	for _, status := range allowed {
		if resp.StatusCode == status {
			return nil
		}
	}

	return NewResponseError(resp)
}

// UnmarshalXML decodes data into value. A non UTF-8 label transcodes the
// input first; an encoding named in the XML declaration is honored otherwise.
func UnmarshalXML(data []byte, label string, value interface{}) error {
	reader, transcoded, err := utf8Reader(data, label)
	if err != nil {
		return err
	}

	decoder := xml.NewDecoder(reader)
	if transcoded {
		decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
			return input, nil
		}
	} else {
		decoder.CharsetReader = charset.NewReaderLabel
	}

	return decoder.Decode(value)
}

func utf8Reader(data []byte, label string) (io.Reader, bool, error) {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == "" || label == "utf-8" || label == "utf8" {
		return bytes.NewReader(data), false, nil
	}

	reader, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("unsupported charset %q: %w", label, err)
	}

	return reader, true, nil
}

// NewResponseError builds the error for a failed response. The message is
// extracted from the body on a best-effort basis and is never allowed to
// hide the status code.
func NewResponseError(resp *Response) *gamesvc.ServiceResponseError {
	kind := gamesvc.ErrorKindResponse
	if resp.StatusCode >= http.StatusInternalServerError {
		kind = gamesvc.ErrorKindTransport
	}

	body := resp.Body

	if reader, transcoded, err := utf8Reader(resp.Body, resp.Charset()); err == nil && transcoded {
		if converted, readErr := io.ReadAll(reader); readErr == nil {
			body = converted
		}
	}

	code, message := extractErrorMessage(body)

	return &gamesvc.ServiceResponseError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Code:       code,
		Message:    message,
		RequestID:  resp.Header.Get(constants.RequestIDHeader),
	}
}

func decodeError(resp *Response, message string, err error) *gamesvc.ServiceResponseError {
	return &gamesvc.ServiceResponseError{
		Kind:       gamesvc.ErrorKindDecode,
		StatusCode: resp.StatusCode,
		Message:    message + ": " + err.Error(),
		RequestID:  resp.Header.Get(constants.RequestIDHeader),
		Cause:      err,
	}
}

// jsonError is the flat error object returned by the game service.
type jsonError struct {
	ExtendedCode string `json:"ExtendedCode"`
	Code         string `json:"Code"`
	Message      string `json:"Message"`
}

// xmlNode captures an arbitrary element tree.
type xmlNode struct {
	XMLName  xml.Name
	Text     string    `xml:",chardata"`
	Children []xmlNode `xml:",any"`
}

func (n *xmlNode) innerText() string {
	var builder strings.Builder

	n.writeText(&builder)

	return strings.TrimSpace(builder.String())
}

func (n *xmlNode) writeText(builder *strings.Builder) {
	builder.WriteString(n.Text)

	for i := range n.Children {
		n.Children[i].writeText(builder)
	}
}

// extractErrorMessage returns (code, message). The rules, in order:
//   - empty body: empty message
//   - XML whose root holds only text: that text, read as a JSON error when possible
//   - XML with a Message element: its text
//   - other XML: the root inner text
//   - flat JSON error object: its message, else its code
//   - anything else: the raw body
func extractErrorMessage(body []byte) (string, string) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", ""
	}

	switch trimmed[0] {
	case '<':
		var root xmlNode

		err := UnmarshalXML(trimmed, "", &root)
		if err != nil {
			return "", string(trimmed)
		}

		if len(root.Children) == 0 {
			text := strings.TrimSpace(root.Text)
			if code, message, ok := parseJSONError([]byte(text), true); ok {
				return code, message
			}

			return "", text
		}

		code := ""

		for i := range root.Children {
			child := &root.Children[i]
			if child.XMLName.Local == "Code" {
				code = child.innerText()
			}
		}

		for i := range root.Children {
			child := &root.Children[i]
			if child.XMLName.Local == "Message" &&
				(child.XMLName.Space == "" || child.XMLName.Space == constants.AzureNamespace) {
				return code, child.innerText()
			}
		}

		return code, root.innerText()
	case '{':
		if code, message, ok := parseJSONError(trimmed, false); ok {
			return code, message
		}
	}

	return "", string(trimmed)
}

// parseJSONError reads a {Code, ExtendedCode, Message} object. The extended
// code is the message of an XML-wrapped object; a flat object keeps Message.
func parseJSONError(data []byte, wrapped bool) (string, string, bool) {
	if len(data) == 0 || data[0] != '{' {
		return "", "", false
	}

	var payload jsonError

	err := json.Unmarshal(data, &payload)
	if err != nil {
		return "", "", false
	}

	code := payload.ExtendedCode
	if code == "" {
		code = payload.Code
	}

	switch {
	case wrapped && payload.ExtendedCode != "":
		return code, payload.ExtendedCode, true
	case payload.Message != "":
		return code, payload.Message, true
	case code != "":
		return code, code, true
	default:
		return "", string(data), true
	}
}
