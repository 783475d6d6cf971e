package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/novelreader/internal/loader"
)

// NovelTypes are the extensions offered by the picker
var NovelTypes = []string{".txt", ".md", ".markdown"}

// PickerModel selects one file to load. Leaving without a selection
// yields loader.ErrCancelled.
type PickerModel struct {
	picker   filepicker.Model
	selected string
	notice   string
	err      error
}

// NewPickerModel starts browsing in dir
func NewPickerModel(dir string, allowed []string) *PickerModel {
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.AllowedTypes = allowed
	fp.AutoHeight = true
	return &PickerModel{picker: fp}
}

// Init implements tea.Model
func (m *PickerModel) Init() tea.Cmd {
	return m.picker.Init()
}

// Update implements tea.Model
func (m *PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.err = loader.ErrCancelled
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.selected = path
		return m, tea.Quit
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.notice = fmt.Sprintf("%s is not a %s file", path, strings.Join(NovelTypes, "/"))
	}

	return m, cmd
}

// View implements tea.Model
func (m *PickerModel) View() string {
	var builder strings.Builder
	builder.WriteString(" Pick a novel to load\n\n")
	builder.WriteString(m.picker.View())
	builder.WriteString("\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if m.notice != "" {
		builder.WriteString(helpStyle.Render(m.notice))
		builder.WriteString("\n")
	}
	builder.WriteString(helpStyle.Render("enter:select  h/backspace:up  q/esc:cancel"))
	return builder.String()
}

// Result returns the selected path, or loader.ErrCancelled
func (m *PickerModel) Result() (string, error) {
	if m.selected == "" && m.err == nil {
		return "", loader.ErrCancelled
	}
	return m.selected, m.err
}

// PickFile runs the picker on the alt screen and returns the chosen path
func PickFile(dir string) (string, error) {
	model := NewPickerModel(dir, NovelTypes)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return "", err
	}
	return model.Result()
}
