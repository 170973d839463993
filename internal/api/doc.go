// Package api provides an HTTP client for the asciinema server API.
//
// # Overview
//
// The client uploads finished recordings and manages live streams on behalf
// of the CLI. Every operation is a single request/response round trip; there
// are no retries and no state is shared between calls.
//
// # Architecture
//
//   - client.go: Service interface, Client, request construction
//   - changeset.go: Field tri-state values and StreamChangeset encoding
//   - response.go: status-code handling and payload decoding
//   - identity.go: connect URL, User-Agent and basic-auth credentials
//   - disabled.go: the Service used when network access is turned off
//   - errors.go: error types returned to callers
//
// # Client Usage
//
//	svc := api.New(cfg, api.WithLogger(logger), api.WithNetworkDisabled(cfg.NetworkDisabled()))
//
//	result, err := svc.UploadRecording(ctx, "demo.cast")
//	if err != nil {
//		return err
//	}
//	fmt.Println(result.DisplayText())
//
// cfg is consulted on every call, so a missing or invalid server URL is
// reported by the operation that needed it.
//
// # API Endpoints
//
//   - POST /api/v1/recordings: multipart upload, form field "file"
//   - GET /api/v1/user/streams?prefix=<p>&limit=10: the user's streams
//   - POST /api/v1/streams: create a stream from a changeset
//   - PATCH /api/v1/streams/<id>: apply a changeset to a stream
//
// All requests carry HTTP basic auth ($USER, install id), a User-Agent of the
// form "asciinema/<version> target/<arch>-<os>" and Accept: application/json.
//
// # Changesets
//
// Each StreamChangeset field is a Field with three states. The zero Field is
// unset and is omitted from the body; Null encodes as JSON null and clears
// the value on the server; Set encodes the value:
//
//	api.StreamChangeset{
//		Live:  api.Set(true),
//		Shell: api.Null[string](),
//	}
//	// {"live":true,"shell":null}
//
// # Error Handling
//
//   - *ConfigError: server URL or install id unavailable; nothing was sent
//   - *TransportError: the server could not be reached
//   - *ApplicationError: non-2xx status, with the server's message or a
//     fixed fallback
//   - *DecodeError: a 2xx body did not match the expected payload
//   - ErrNetworkDisabled: network access is turned off
//
// Structured error bodies ({"message": "..."}) are decoded on a best-effort
// basis for 413 (uploads) and 404/422 (streams). A body that does not decode
// falls back to a fixed message rather than surfacing the decode failure.
package api
