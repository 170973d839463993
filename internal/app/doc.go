// Package app is the composition root for the asciinema CLI.
//
// New loads configuration, builds a zap logger and the API service, and binds
// themed styles to the output streams. Each exported method backs one CLI
// command:
//
//   - Upload validates an asciicast file and uploads it
//   - Auth prints the account-linking URL and can open it in a browser
//   - ListStreams prints a table of the user's streams
//   - CreateStream and UpdateStream print the resulting stream handle
//
// Results go to stdout. Spinners, prompts and log lines go to stderr so output
// stays pipeable. When network access is disabled every command fails with
// api.ErrNetworkDisabled before touching local files or the server.
package app
