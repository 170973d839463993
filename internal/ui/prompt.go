package ui

import (
	"errors"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Confirm asks a yes/no question. Aborting the prompt counts as no.
func Confirm(in io.Reader, out io.Writer, theme Theme, title string, def bool) (bool, error) {
	answer := def
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&answer),
		),
	)
	form.WithInput(in).WithOutput(out).WithTheme(huhTheme(theme)).WithShowHelp(false)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return answer, nil
}

func huhTheme(t Theme) *huh.Theme {
	theme := huh.ThemeBase()
	accent := lipgloss.Color(t.Accent)
	text := lipgloss.Color(t.Text)
	muted := lipgloss.Color(t.Muted)

	theme.Focused.Title = theme.Focused.Title.Foreground(text).Bold(true)
	theme.Focused.Description = theme.Focused.Description.Foreground(muted)
	theme.Focused.FocusedButton = theme.Focused.FocusedButton.Background(accent).Foreground(lipgloss.Color("#000000")).Bold(true)
	theme.Focused.BlurredButton = theme.Focused.BlurredButton.Foreground(muted)

	theme.Blurred = theme.Focused
	theme.Blurred.Base = theme.Blurred.Base.BorderStyle(lipgloss.HiddenBorder())
	return theme
}
