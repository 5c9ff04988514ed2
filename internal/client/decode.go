package client

import (
	nethttp "net/http"

	"github.com/fivetwenty-io/gameservices-client/internal/http"
)

// decodeCollection is DecodeJSON with a 404 read as an empty collection.
func decodeCollection[T any](resp *http.Response) (*T, error) {
	value, err := http.DecodeJSON[T](resp)
	if err != nil {
		return nil, err
	}

	if value == nil {
		value = new(T)
	}

	return value, nil
}

// decodeCreated is DecodeJSON for calls where a 404 is a failure, such as
// the POST that creates an item.
func decodeCreated[T any](resp *http.Response) (*T, error) {
	if resp.StatusCode == nethttp.StatusNotFound {
		return nil, http.NewResponseError(resp)
	}

	return http.DecodeJSON[T](resp)
}
