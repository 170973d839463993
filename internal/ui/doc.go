// Package ui renders CLI output for the asciinema client.
//
// # Themes
//
// Three palettes are available: Nightfox (default), Kanagawa and Slate,
// selected with the [ui] theme config key. Theme.StylesFor binds lipgloss
// styles to a writer so colors are dropped when output is not a terminal.
//
// # Interaction
//
// Spin shows a bubbletea spinner while a request is in flight. It never reads
// from stdin and leaves signal handling to the caller's context.
//
// Confirm asks a yes/no question with huh. OpenURL hands a URL to the
// platform opener (open, xdg-open or rundll32).
package ui
