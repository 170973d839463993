package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RecordingUploadResult mirrors the payload returned by POST /api/v1/recordings.
type RecordingUploadResult struct {
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

// DisplayText returns the server message when present, otherwise the URL.
func (r RecordingUploadResult) DisplayText() string {
	if strings.TrimSpace(r.Message) != "" {
		return r.Message
	}
	return r.URL
}

func (r *RecordingUploadResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		URL     *string `json:"url"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.URL == nil {
		return missingField("url")
	}
	*r = RecordingUploadResult{URL: *raw.URL}
	if raw.Message != nil {
		r.Message = *raw.Message
	}
	return nil
}

// StreamHandle describes a server-side live stream.
type StreamHandle struct {
	ID uint64 `json:"id"`
	// ProducerEndpoint is the websocket URL the recorder streams to.
	ProducerEndpoint string `json:"ws_producer_url"`
	// ViewURL is where viewers watch the stream.
	ViewURL string `json:"url"`
}

func (h *StreamHandle) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID               *uint64 `json:"id"`
		ProducerEndpoint *string `json:"ws_producer_url"`
		ViewURL          *string `json:"url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.ID == nil:
		return missingField("id")
	case raw.ProducerEndpoint == nil:
		return missingField("ws_producer_url")
	case raw.ViewURL == nil:
		return missingField("url")
	}
	*h = StreamHandle{
		ID:               *raw.ID,
		ProducerEndpoint: *raw.ProducerEndpoint,
		ViewURL:          *raw.ViewURL,
	}
	return nil
}

// errorPayload is the structured error body the server may send.
type errorPayload struct {
	Message *string `json:"message"`
}

func missingField(name string) error {
	return fmt.Errorf("missing field %q", name)
}
