package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"

	"github.com/fivetwenty-io/gameservices-client/internal/constants"
	"github.com/fivetwenty-io/gameservices-client/internal/http"
	"github.com/fivetwenty-io/gameservices-client/pkg/gamesvc"
)

// formFile is a file part of a multipart request.
type formFile struct {
	field    string
	fileName string
	content  io.Reader
}

// multipartForm encodes metadata as a JSON "metadata" field followed by
// files. The whole form is buffered so retries resend the same bytes.
func multipartForm(metadata interface{}, files ...formFile) ([]byte, string, error) {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, "", fmt.Errorf("encoding metadata: %w", err)
	}

	err = writer.WriteField("metadata", string(encoded))
	if err != nil {
		return nil, "", fmt.Errorf("writing metadata field: %w", err)
	}

	for _, file := range files {
		if file.content == nil {
			return nil, "", gamesvc.NewError(gamesvc.ErrorKindValidation,
				fmt.Sprintf("%s: %v", file.field, constants.ErrFileRequired), constants.ErrFileRequired)
		}

		part, err := writer.CreateFormFile(file.field, file.fileName)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file: %w", err)
		}

		_, err = io.Copy(part, file.content)
		if err != nil {
			return nil, "", fmt.Errorf("writing %s to form: %w", file.field, err)
		}
	}

	err = writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

// sendMultipart sends a multipart form with method to path.
func sendMultipart(ctx context.Context, httpClient *http.Client, method, path string, metadata interface{}, files ...formFile) (*http.Response, error) {
	body, contentType, err := multipartForm(metadata, files...)
	if err != nil {
		return nil, err
	}

	return httpClient.Do(ctx, &http.Request{
		Method:      method,
		Path:        path,
		RawBody:     body,
		ContentType: contentType,
		Accept:      constants.ContentTypeJSON,
	})
}

// uploadThenCommit runs the three step upload used by assets, VM packages and
// game packages: the metadata POST returns a pre-authorized blob URL, the
// content is uploaded there, and the metadata is PUT to commit the item.
func uploadThenCommit(ctx context.Context, httpClient *http.Client, upload string, content io.Reader, commitPath string, metadata interface{}) error {
	if content == nil {
		return gamesvc.NewError(gamesvc.ErrorKindValidation, constants.ErrFileRequired.Error(), constants.ErrFileRequired)
	}

	if upload == "" {
		return gamesvc.NewError(gamesvc.ErrorKindProtocol, constants.ErrMissingUploadLocation.Error(), constants.ErrMissingUploadLocation)
	}

	resp, err := httpClient.Upload(ctx, upload, content)
	if err != nil {
		return fmt.Errorf("%w: %w", gamesvc.ErrUploadFailed, err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("%w: %w", gamesvc.ErrUploadFailed, http.NewResponseError(resp))
	}

	resp, err = sendMultipart(ctx, httpClient, nethttp.MethodPut, commitPath, metadata)
	if err != nil {
		return err
	}

	return http.ExpectStatus(resp)
}
