package api

import (
	"net/url"
	"os"

	"github.com/sekuso/asciinema/internal/version"
)

const productName = "asciinema"

// AuthenticationURL returns the page that links this installation to a user
// account on the server.
func AuthenticationURL(cfg Config) (*url.URL, error) {
	base, err := cfg.ServerURL()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	installID, err := cfg.InstallID()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return base.ResolveReference(&url.URL{Path: "/connect/" + installID}), nil
}

// UserAgent is sent with every request.
func UserAgent() string {
	return productName + "/" + version.String() + " target/" + version.Target()
}

// BasicAuthPair returns the credentials sent with every request. The
// username is the local user and may be empty.
func BasicAuthPair(installID string) (username, password string) {
	return os.Getenv("USER"), installID
}
