package cli

import (
	"errors"
	"strings"

	"github.com/alexanderramin/insession/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// insessionHuhTheme returns a huh theme using the Gruvbox palette.
func insessionHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func validateTask(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("task is required")
	}
	return nil
}

// taskInput returns a huh.Input for the task a session is started for.
func taskInput(value *string) *huh.Input {
	return huh.NewInput().
		Title("What are you working on?").
		Placeholder("Write the quarterly report").
		Value(value).
		Validate(validateTask)
}

// taskForm returns a themed single-field Form for collecting a task.
func taskForm(value *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(taskInput(value)),
	).WithTheme(insessionHuhTheme()).WithShowHelp(false)
}
