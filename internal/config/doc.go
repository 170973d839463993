// Package config loads the asciinema CLI configuration and manages the
// persisted install id.
//
// # Configuration Discovery
//
// Load resolves the config file in this order:
//
//  1. Options.Path, when provided
//  2. $XDG_CONFIG_HOME/asciinema/config.toml
//  3. ~/.config/asciinema/config.toml
//
// A missing file is not an error; defaults are used instead.
//
// # TOML Format
//
//	[server]
//	url = "https://asciinema.org"
//
//	[network]
//	disabled = false
//
//	[ui]
//	theme = "Nightfox"
//
// # Overrides
//
// The server URL is taken from the first non-empty source:
//
//   - Options.ServerURL (the --server-url flag)
//   - ASCIINEMA_SERVER_URL
//   - ASCIINEMA_API_URL (legacy)
//   - [server] url
//   - https://asciinema.org
//
// ASCIINEMA_NO_NETWORK=1 turns network access off regardless of the file.
//
// The server URL is validated lazily by ServerURL so that each API operation
// reports a bad value itself.
//
// # Install ID
//
// InstallID reads $XDG_STATE_HOME/asciinema/install-id (default
// ~/.local/state/asciinema/install-id), then the legacy location
// <config dir>/install-id. When neither exists a random UUID is generated and
// saved to the state location. The value is cached on the Config.
package config
