package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfig struct {
	serverURL string
	installID string
	urlErr    error
	idErr     error
	calls     atomic.Int32
}

func (f *fakeConfig) ServerURL() (*url.URL, error) {
	f.calls.Add(1)
	if f.urlErr != nil {
		return nil, f.urlErr
	}
	return url.Parse(f.serverURL)
}

func (f *fakeConfig) InstallID() (string, error) {
	f.calls.Add(1)
	if f.idErr != nil {
		return "", f.idErr
	}
	return f.installID, nil
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *fakeConfig) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, &fakeConfig{serverURL: server.URL, installID: "install-123"}
}

func writeRecording(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.cast")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestClient_UploadRecordingSendsMultipartWithHeaders(t *testing.T) {
	t.Setenv("USER", "alice")
	const recording = `{"version": 2, "width": 80, "height": 24}` + "\n"

	var gotFile, gotFilename, gotUserAgent, gotAccept string
	var gotUser, gotPass string
	var gotAuthOK bool
	_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/recordings", r.URL.Path)
		gotUser, gotPass, gotAuthOK = r.BasicAuth()
		gotUserAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")

		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			data, _ := io.ReadAll(file)
			gotFile = string(data)
			gotFilename = header.Filename
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://asciinema.example/a/1","message":"View it at https://asciinema.example/a/1"}`))
	})

	c := NewClient(cfg)
	result, err := c.UploadRecording(context.Background(), writeRecording(t, recording))
	require.NoError(t, err)

	assert.Equal(t, "https://asciinema.example/a/1", result.URL)
	assert.Equal(t, "View it at https://asciinema.example/a/1", result.DisplayText())
	assert.Equal(t, recording, gotFile)
	assert.Equal(t, "demo.cast", gotFilename)
	assert.True(t, gotAuthOK)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "install-123", gotPass)
	assert.True(t, strings.HasPrefix(gotUserAgent, "asciinema/"), "User-Agent = %q", gotUserAgent)
	assert.Contains(t, gotUserAgent, " target/")
	assert.Equal(t, "application/json", gotAccept)
}

func TestClient_UploadRecordingWithoutMessageDisplaysURL(t *testing.T) {
	_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"https://asciinema.example/a/2"}`))
	})

	result, err := NewClient(cfg).UploadRecording(context.Background(), writeRecording(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://asciinema.example/a/2", result.DisplayText())
}

func TestClient_UploadRecording413(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"structured message", `{"message": "too big"}`, "too big"},
		{"unparseable body", `<html>413</html>`, recordingTooLarge},
		{"object without message", `{"error": "nope"}`, recordingTooLarge},
		{"empty body", ``, recordingTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := NewClient(cfg).UploadRecording(context.Background(), writeRecording(t, "{}\n"))
			var appErr *ApplicationError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, http.StatusRequestEntityTooLarge, appErr.StatusCode)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestClient_UploadRecordingOtherStatusIsGeneric(t *testing.T) {
	_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		// Stream-only statuses get no special treatment on upload.
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "ignored"}`))
	})

	_, err := NewClient(cfg).UploadRecording(context.Background(), writeRecording(t, "{}\n"))
	var appErr *ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "api /api/v1/recordings returned status 401", err.Error())
}

func TestClient_UploadRecordingMissingFileSendsNothing(t *testing.T) {
	var hits atomic.Int32
	_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	_, err := NewClient(cfg).UploadRecording(context.Background(), filepath.Join(t.TempDir(), "missing.cast"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, hits.Load())
}

func TestClient_ListUserStreamsEncodesQuery(t *testing.T) {
	var gotQuery string
	_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/user/streams", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[
			{"id": 1, "ws_producer_url": "wss://asciinema.example/ws/s/a", "url": "https://asciinema.example/s/a"},
			{"id": 2, "ws_producer_url": "wss://asciinema.example/ws/s/b", "url": "https://asciinema.example/s/b"}
		]`))
	})

	streams, err := NewClient(cfg).ListUserStreams(context.Background(), "my stream")
	require.NoError(t, err)
	assert.Equal(t, "prefix=my+stream&limit=10", gotQuery)
	require.Len(t, streams, 2)
	assert.Equal(t, uint64(2), streams[1].ID)
	assert.Equal(t, "https://asciinema.example/s/b", streams[1].ViewURL)
}

func TestClient_CreateStreamSendsChangeset(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string
	_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/streams", r.URL.Path)
		gotContentType = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"id": 42, "ws_producer_url": "wss://asciinema.example/ws/s/x", "url": "https://asciinema.example/s/x"}`))
	})

	stream, err := NewClient(cfg).CreateStream(context.Background(), StreamChangeset{
		Live:  Set(true),
		Shell: Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, &StreamHandle{
		ID:               42,
		ProducerEndpoint: "wss://asciinema.example/ws/s/x",
		ViewURL:          "https://asciinema.example/s/x",
	}, stream)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]any{"live": true, "shell": nil}, gotBody)
}

func TestClient_UpdateStreamUsesPatch(t *testing.T) {
	var gotBody string
	_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/streams/42", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		_, _ = w.Write([]byte(`{"id": 42, "ws_producer_url": "wss://h/ws", "url": "https://h/s/x"}`))
	})

	stream, err := NewClient(cfg).UpdateStream(context.Background(), 42, StreamChangeset{
		Title: Set("demo"),
		Env:   Set(map[string]string{"LANG": "C.UTF-8"}),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), stream.ID)
	assert.JSONEq(t, `{"title":"demo","env":{"LANG":"C.UTF-8"}}`, gotBody)
}

func TestClient_RequestPathReplacesBasePath(t *testing.T) {
	var gotPath string
	server, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	})
	cfg.serverURL = server.URL + "/some/prefix/?x=1"

	streams, err := NewClient(cfg).ListUserStreams(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, streams)
	assert.Equal(t, "/api/v1/user/streams", gotPath)
}

func TestClient_StreamErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"ignored"}`, "this CLI hasn't been authenticated with 127.0.0.1 - run `asciinema auth` first"},
		{"not found without body", http.StatusNotFound, ``, "127.0.0.1 doesn't support streaming"},
		{"not found with html", http.StatusNotFound, `<h1>Not Found</h1>`, "127.0.0.1 doesn't support streaming"},
		{"not found with message", http.StatusNotFound, `{"message":"stream not found"}`, "stream not found"},
		{"unprocessable with message", http.StatusUnprocessableEntity, `{"message":"title is too long"}`, "title is too long"},
		{"unprocessable without message", http.StatusUnprocessableEntity, `{"errors":{}}`, "127.0.0.1 doesn't support streaming"},
		{"server error", http.StatusInternalServerError, `{"message":"ignored"}`, "api /api/v1/streams returned status 500"},
		{"payload too large is generic", http.StatusRequestEntityTooLarge, `{"message":"ignored"}`, "api /api/v1/streams returned status 413"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := NewClient(cfg).CreateStream(context.Background(), StreamChangeset{})
			var appErr *ApplicationError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.status, appErr.StatusCode)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestClient_UnauthorizedNamesHostForEveryStreamOperation(t *testing.T) {
	_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := NewClient(cfg)
	ctx := context.Background()

	_, listErr := c.ListUserStreams(ctx, "")
	_, createErr := c.CreateStream(ctx, StreamChangeset{})
	_, updateErr := c.UpdateStream(ctx, 7, StreamChangeset{})
	for _, err := range []error{listErr, createErr, updateErr} {
		require.Error(t, err)
		assert.Contains(t, err.Error(), "127.0.0.1")
		assert.Contains(t, err.Error(), "asciinema auth")
	}
}

func TestClient_MalformedSuccessBodyIsDecodeError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing id", `{"ws_producer_url": "wss://h/ws", "url": "https://h/s/x"}`},
		{"missing producer url", `{"id": 1, "url": "https://h/s/x"}`},
		{"missing view url", `{"id": 1, "ws_producer_url": "wss://h/ws"}`},
		{"wrong type", `{"id": "one", "ws_producer_url": "wss://h/ws", "url": "https://h/s/x"}`},
		{"not json", `{not-json`},
		{"null", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := NewClient(cfg).CreateStream(context.Background(), StreamChangeset{})
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			var appErr *ApplicationError
			assert.False(t, errors.As(err, &appErr), "decode error must not be an ApplicationError")
			assert.Contains(t, err.Error(), "decode response")
		})
	}
}

func TestClient_ListUserStreamsMalformedBodyIsDecodeError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"null", `null`},
		{"null with whitespace", " null\n"},
		{"object instead of list", `{"id": 1}`},
		{"element missing id", `[{"ws_producer_url": "wss://h/ws", "url": "https://h/s/x"}]`},
		{"not json", `[`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			streams, err := NewClient(cfg).ListUserStreams(context.Background(), "")
			assert.Nil(t, streams)
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			var appErr *ApplicationError
			assert.False(t, errors.As(err, &appErr), "decode error must not be an ApplicationError")
		})
	}
}

func TestClient_ListUserStreamsEmptyListIsSuccess(t *testing.T) {
	_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	streams, err := NewClient(cfg).ListUserStreams(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, streams)
}

func TestEndpointHostname(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "https://asciinema.org", want: "asciinema.org"},
		{raw: "http://127.0.0.1:4000", want: "127.0.0.1"},
		{raw: "http://[::1]:8080", want: "[::1]"},
		{raw: "http://[fe80::1]", want: "[fe80::1]"},
	}
	for _, tt := range tests {
		base, err := url.Parse(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, endpoint{base: base}.hostname(), "hostname(%s)", tt.raw)
	}
}

func TestClient_UploadMissingURLIsDecodeError(t *testing.T) {
	_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"no url here"}`))
	})

	_, err := NewClient(cfg).UploadRecording(context.Background(), writeRecording(t, "{}\n"))
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, err.Error(), `missing field "url"`)
}

func TestClient_ConfigErrorsAbortBeforeIO(t *testing.T) {
	var hits atomic.Int32
	_, cfg := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	urlErr := errors.New("invalid server URL \"::\"")
	cfg.urlErr = urlErr
	_, err := NewClient(cfg).CreateStream(context.Background(), StreamChangeset{})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, urlErr)
	assert.Equal(t, urlErr.Error(), err.Error())

	cfg.urlErr = nil
	cfg.idErr = errors.New("read install id: permission denied")
	_, err = NewClient(cfg).UploadRecording(context.Background(), writeRecording(t, "{}\n"))
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "read install id: permission denied", err.Error())

	assert.Zero(t, hits.Load())
}

func TestClient_UnreachableServerIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	cfg := &fakeConfig{serverURL: server.URL, installID: "id"}
	server.Close()

	c := NewClient(cfg)

	_, err := c.ListUserStreams(context.Background(), "")
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, strings.HasPrefix(err.Error(), "cannot obtain stream producer endpoint - is the server down?"), err.Error())

	_, err = c.UploadRecording(context.Background(), writeRecording(t, "{}\n"))
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, strings.HasPrefix(err.Error(), "cannot upload recording - is the server down?"), err.Error())

	var appErr *ApplicationError
	assert.False(t, errors.As(err, &appErr))
}

func TestClient_NilClient(t *testing.T) {
	var c *Client
	_, err := c.ListUserStreams(context.Background(), "")
	assert.Error(t, err)
}
