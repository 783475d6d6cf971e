package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/novelreader/internal/logging"
	"github.com/TimelordUK/novelreader/internal/protocol"
	"github.com/TimelordUK/novelreader/internal/reader"
	"github.com/TimelordUK/novelreader/internal/render"
)

var log = logging.GetLogger("ui")

// NotificationMsg carries a router broadcast into the program
type NotificationMsg protocol.Notification

// initDoneMsg reports the outcome of restoring reader state
type initDoneMsg struct{ err error }

// persistedMsg reports the outcome of a background write
type persistedMsg struct {
	what string
	err  error
}

// ReaderModel is one rendering context: a single line drawn at the saved
// offset, paged with the keyboard
type ReaderModel struct {
	ctx      context.Context
	reader   *reader.Reader
	renderer *render.Renderer
	keys     KeyMap
	help     help.Model

	width   int
	height  int
	hovered bool
	ready   bool

	err error
}

// NewReaderModel creates the model. Init restores state through the reader.
func NewReaderModel(ctx context.Context, r *reader.Reader, rend *render.Renderer, keys KeyMap) *ReaderModel {
	h := help.New()
	h.ShortSeparator = "  "
	return &ReaderModel{
		ctx:      ctx,
		reader:   r,
		renderer: rend,
		keys:     keys,
		help:     h,
	}
}

// Init implements tea.Model
func (m *ReaderModel) Init() tea.Cmd {
	return func() tea.Msg {
		return initDoneMsg{err: m.reader.Init(m.ctx)}
	}
}

// Update implements tea.Model
func (m *ReaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.hovered = m.over(msg.X, msg.Y)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer.SetWidth(msg.Width)
		return m, nil

	case initDoneMsg:
		m.ready = true
		m.err = msg.err
		m.renderer.SetSettings(m.reader.Settings())
		return m, nil

	case NotificationMsg:
		m.reader.Apply(protocol.Notification(msg))
		return m, nil

	case persistedMsg:
		if msg.err != nil {
			log.Warningf("persist %s: %s", msg.what, msg.err)
		}
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m *ReaderModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Next):
		return m, m.moved(m.reader.Next())
	case key.Matches(msg, m.keys.Previous):
		return m, m.moved(m.reader.Previous())
	case key.Matches(msg, m.keys.JumpForward):
		return m, m.moved(m.reader.JumpForward())
	case key.Matches(msg, m.keys.JumpBack):
		return m, m.moved(m.reader.JumpBack())

	case key.Matches(msg, m.keys.Toggle):
		return m, m.persist("visibility", func(ctx context.Context) error {
			_, err := m.reader.ToggleVisibility(ctx)
			return err
		})

	case key.Matches(msg, m.keys.Left):
		return m, m.move(-2, 0)
	case key.Matches(msg, m.keys.Right):
		return m, m.move(2, 0)
	case key.Matches(msg, m.keys.Up):
		return m, m.move(0, -1)
	case key.Matches(msg, m.keys.Down):
		return m, m.move(0, 1)
	}

	return m, nil
}

// moved persists the line number after a navigation step that changed it
func (m *ReaderModel) moved(changed bool) tea.Cmd {
	if !changed {
		return nil
	}
	return m.persist("line", m.reader.Persist)
}

func (m *ReaderModel) move(dx, dy int) tea.Cmd {
	m.reader.MoveBy(dx, dy)
	return m.persist("position", m.reader.SavePosition)
}

func (m *ReaderModel) persist(what string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return persistedMsg{what: what, err: fn(m.ctx)}
	}
}

// origin returns where the overlay is drawn, kept on screen
func (m *ReaderModel) origin(overlay string) (int, int) {
	pos := m.reader.Position()
	left, top := pos.Left, pos.Top
	if m.width > 0 {
		left = min(left, max(0, m.width-lipgloss.Width(overlay)))
	}
	if m.height > 0 {
		// Reserve 2 lines for status bar
		top = min(top, max(0, m.height-2-lipgloss.Height(overlay)))
	}
	return left, top
}

// over reports whether a cell lies inside the overlay
func (m *ReaderModel) over(x, y int) bool {
	if !m.reader.Visible() {
		return false
	}
	overlay := m.renderer.Render(m.reader.Text(), m.hovered)
	left, top := m.origin(overlay)
	return x >= left && x < left+lipgloss.Width(overlay) &&
		y >= top && y < top+lipgloss.Height(overlay)
}

// Overlay returns the styled line alone
func (m *ReaderModel) Overlay() string {
	return m.renderer.Render(m.reader.Text(), m.hovered)
}

// View implements tea.Model
func (m *ReaderModel) View() string {
	if !m.ready {
		return ""
	}

	var builder strings.Builder

	body := ""
	if m.reader.Visible() {
		overlay := m.Overlay()
		left, top := m.origin(overlay)
		body = strings.Repeat("\n", top) +
			lipgloss.NewStyle().MarginLeft(left).Render(overlay)
	}
	builder.WriteString(body)

	if m.height > 0 {
		if pad := m.height - 2 - lipgloss.Height(body); pad > 0 {
			builder.WriteString(strings.Repeat("\n", pad))
		}
	}
	builder.WriteString("\n")

	// Status bar
	statusStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("240")).
		Foreground(lipgloss.Color("255")).
		Width(m.width)
	builder.WriteString(statusStyle.Render(m.status()))
	builder.WriteString("\n")

	// Help line
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	builder.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return builder.String()
}

func (m *ReaderModel) status() string {
	name := m.reader.FileName()
	if name == "" {
		name = "-"
	}
	lineInfo := fmt.Sprintf("L%d/%d", m.reader.LineNumber(), m.reader.Len())
	if !m.reader.HasContent() {
		lineInfo = "L0/0"
	}
	hidden := ""
	if !m.reader.Visible() {
		hidden = "  [hidden]"
	}
	errInfo := ""
	if m.err != nil {
		errInfo = "  ! " + m.err.Error()
	}
	return fmt.Sprintf(" %s  %s  %s%s%s", name, lineInfo, m.reader.Locale(), hidden, errInfo)
}
