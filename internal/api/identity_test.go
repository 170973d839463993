package api

import (
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekuso/asciinema/internal/version"
)

func TestAuthenticationURL(t *testing.T) {
	cfg := &fakeConfig{serverURL: "https://asciinema.example/ignored/path?q=1", installID: "abc-123"}

	got, err := AuthenticationURL(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://asciinema.example/connect/abc-123", got.String())
}

func TestAuthenticationURL_PropagatesConfigErrors(t *testing.T) {
	cfg := &fakeConfig{urlErr: errors.New("no server")}
	_, err := AuthenticationURL(cfg)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "no server", err.Error())

	cfg = &fakeConfig{serverURL: "https://asciinema.example", idErr: errors.New("no id")}
	_, err = AuthenticationURL(cfg)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "no id", err.Error())
}

func TestUserAgent(t *testing.T) {
	want := fmt.Sprintf("asciinema/%s target/%s-%s", version.String(), runtime.GOARCH, runtime.GOOS)
	assert.Equal(t, want, UserAgent())
}

func TestBasicAuthPair(t *testing.T) {
	t.Setenv("USER", "bob")
	user, pass := BasicAuthPair("install-1")
	assert.Equal(t, "bob", user)
	assert.Equal(t, "install-1", pass)

	t.Setenv("USER", "")
	user, pass = BasicAuthPair("install-2")
	assert.Equal(t, "", user)
	assert.Equal(t, "install-2", pass)
}
