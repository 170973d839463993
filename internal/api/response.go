package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Bodies larger than this are truncated before decoding.
const maxResponseBytes = 4 << 20

var errNullBody = errors.New("unexpected null body")

const recordingTooLarge = "The recording exceeds the server-configured size limit"

func interpretRecordingResponse(resp *http.Response) (*RecordingUploadResult, error) {
	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		if message, ok := decodeErrorPayload(resp); ok {
			return nil, &ApplicationError{StatusCode: resp.StatusCode, Message: message}
		}
		return nil, &ApplicationError{StatusCode: resp.StatusCode, Message: recordingTooLarge}
	}
	if !isSuccess(resp.StatusCode) {
		return nil, statusError(resp)
	}
	var result RecordingUploadResult
	if err := decodeSuccess(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func interpretStreamResponse(resp *http.Response, hostname string, dest any) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &ApplicationError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("this CLI hasn't been authenticated with %s - run `asciinema auth` first", hostname),
		}
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		if message, ok := decodeErrorPayload(resp); ok {
			return &ApplicationError{StatusCode: resp.StatusCode, Message: message}
		}
		return &ApplicationError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s doesn't support streaming", hostname),
		}
	}
	if !isSuccess(resp.StatusCode) {
		return statusError(resp)
	}
	return decodeSuccess(resp, dest)
}

// decodeErrorPayload attempts to read a {"message": "..."} body. Any failure
// means there is no structured error; it is never reported.
func decodeErrorPayload(resp *http.Response) (string, bool) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", false
	}
	var payload errorPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Message == nil {
		return "", false
	}
	return *payload.Message, true
}

func decodeSuccess(resp *http.Response, dest any) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &DecodeError{Err: fmt.Errorf("read body: %w", err)}
	}
	// A bare null would leave slices and maps nil without an error.
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return &DecodeError{Err: errNullBody}
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

func statusError(resp *http.Response) error {
	path := ""
	if resp.Request != nil && resp.Request.URL != nil {
		path = resp.Request.URL.Path
	}
	return &ApplicationError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("api %s returned status %d", path, resp.StatusCode),
	}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
