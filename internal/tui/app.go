// Package tui is the terminal front end: an upload view and a chat view
// over one shell.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/hrassist/internal/chat"
	"github.com/user/hrassist/internal/render"
	"github.com/user/hrassist/internal/shell"
	"github.com/user/hrassist/internal/types"
	"github.com/user/hrassist/internal/upload"
)

const (
	toastTTL      = 5 * time.Second
	visibleToasts = 3
)

type healthMsg types.HealthStatus

type uploadDoneMsg struct {
	file *types.UploadedFile
	err  error
}

type answerMsg struct {
	answer *types.ChatMessage
	err    error
}

type expireToastsMsg struct{}

type toast struct {
	event types.Event
	shown time.Time
}

type Model struct {
	ctx    context.Context
	shell  *shell.Shell
	toasts Toasts

	pathInput textinput.Model
	chatInput textinput.Model
	spinner   spinner.Model

	uploading bool
	sending   bool
	shown     []toast
	width     int
	height    int
	quitting  bool
}

func NewModel(ctx context.Context, s *shell.Shell, toasts Toasts) Model {
	pi := textinput.New()
	pi.Placeholder = "path/to/document.pdf"
	pi.CharLimit = 500
	pi.Focus()

	ci := textinput.New()
	ci.CharLimit = 1000

	return Model{
		ctx:       ctx,
		shell:     s,
		toasts:    toasts,
		pathInput: pi,
		chatInput: ci,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:     100,
		height:    30,
	}
}

// Run starts the UI and blocks until the user quits.
func Run(ctx context.Context, s *shell.Shell, toasts Toasts) error {
	p := tea.NewProgram(NewModel(ctx, s, toasts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.mount(), m.toasts.wait(), textinput.Blink)
}

func (m Model) mount() tea.Cmd {
	return func() tea.Msg {
		return healthMsg(m.shell.Mount(m.ctx))
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return healthMsg(m.shell.RefreshHealth(m.ctx))
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case healthMsg:
		m.syncChatInput()
		return m, nil

	case uploadDoneMsg:
		m.uploading = false
		if msg.err == nil {
			m.pathInput.Reset()
		}
		cmd := m.focusView()
		return m, cmd

	case answerMsg:
		m.sending = false
		// A rejected submission leaves the text in the session buffer.
		m.chatInput.SetValue(m.shell.Chat().Input())
		if errors.Is(msg.err, chat.ErrSuggestionsClosed) || errors.Is(msg.err, chat.ErrNoSuchSuggestion) {
			m.toasts.Notify(types.Event{
				Topic:       "chat.suggestion",
				Level:       types.LevelWarning,
				Title:       "No such suggestion",
				Description: msg.err.Error(),
			})
		}
		cmd := m.focusView()
		return m, cmd

	case toastMsg:
		m.shown = append(m.shown, toast{event: types.Event(msg), shown: time.Now()})
		if len(m.shown) > visibleToasts {
			m.shown = m.shown[len(m.shown)-visibleToasts:]
		}
		return m, tea.Batch(m.toasts.wait(), tea.Tick(toastTTL, func(time.Time) tea.Msg { return expireToastsMsg{} }))

	case expireToastsMsg:
		m.expireToasts(time.Now())
		return m, nil

	case spinner.TickMsg:
		if !m.uploading && !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "ctrl+r":
		return m, m.refresh()

	case "tab":
		next := shell.ViewChat
		if m.shell.View() == shell.ViewChat {
			next = shell.ViewUpload
		}
		if err := m.shell.SetView(next); err != nil {
			m.toasts.Notify(types.Event{
				Topic:       "view.unavailable",
				Level:       types.LevelWarning,
				Title:       "Chat unavailable",
				Description: "Upload a document before chatting.",
			})
			return m, nil
		}
		cmd := m.focusView()
		return m, cmd

	case "enter":
		if m.shell.View() == shell.ViewUpload {
			return m.submitUpload()
		}
		return m.submitChat()
	}

	var cmd tea.Cmd
	if m.shell.View() == shell.ViewUpload {
		m.pathInput, cmd = m.pathInput.Update(msg)
	} else if m.shell.Chat().InputEnabled() && !m.sending {
		m.chatInput, cmd = m.chatInput.Update(msg)
		m.shell.Chat().SetInput(m.chatInput.Value())
	}
	return m, cmd
}

func (m Model) submitUpload() (tea.Model, tea.Cmd) {
	if m.uploading || m.shell.Uploads().IsUploading() {
		return m, nil
	}
	path := strings.TrimSpace(m.pathInput.Value())

	var file *types.File
	var closer func() error
	if path != "" {
		f, c, err := upload.Open(path)
		if err != nil {
			m.toasts.Notify(types.Event{
				Topic:       "upload.rejected",
				Level:       types.LevelError,
				Title:       "Cannot open file",
				Description: err.Error(),
			})
			return m, nil
		}
		file, closer = f, c.Close
	}

	m.uploading = true
	m.pathInput.Blur()
	s, ctx := m.shell, m.ctx
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		if closer != nil {
			defer closer()
		}
		uploaded, err := s.Upload(ctx, file)
		return uploadDoneMsg{file: uploaded, err: err}
	})
}

func (m Model) submitChat() (tea.Model, tea.Cmd) {
	c, ctx := m.shell.Chat(), m.ctx
	if m.sending {
		return m, nil
	}

	var run func() (*types.ChatMessage, error)
	if n, ok := suggestionIndex(strings.TrimSpace(c.Input())); ok && c.InputEnabled() {
		c.SetInput("")
		run = func() (*types.ChatMessage, error) { return c.AskSuggestion(ctx, n) }
	} else if c.CanSend() {
		run = func() (*types.ChatMessage, error) { return c.Send(ctx) }
	} else {
		return m, nil
	}

	m.sending = true
	m.chatInput.Reset()
	m.chatInput.Blur()
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		answer, err := run()
		return answerMsg{answer: answer, err: err}
	})
}

// suggestionIndex parses "/1".."/6" into a zero-based suggestion index.
func suggestionIndex(text string) (int, bool) {
	if !strings.HasPrefix(text, "/") {
		return 0, false
	}
	n, err := strconv.Atoi(text[1:])
	if err != nil {
		return 0, false
	}
	return n - 1, true
}

func (m *Model) syncChatInput() {
	m.chatInput.Placeholder = m.shell.Chat().Placeholder()
	if !m.shell.Chat().InputEnabled() {
		m.chatInput.Blur()
	}
}

func (m *Model) focusView() tea.Cmd {
	m.syncChatInput()
	if m.shell.View() == shell.ViewUpload {
		m.chatInput.Blur()
		if m.uploading {
			return nil
		}
		return m.pathInput.Focus()
	}
	m.pathInput.Blur()
	if m.sending || !m.shell.Chat().InputEnabled() {
		return nil
	}
	return m.chatInput.Focus()
}

func (m *Model) expireToasts(now time.Time) {
	kept := m.shown[:0]
	for _, t := range m.shown {
		if now.Sub(t.shown) < toastTTL {
			kept = append(kept, t)
		}
	}
	m.shown = kept
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader() + "\n")
	b.WriteString(m.renderTabs() + "\n\n")

	if m.shell.View() == shell.ViewUpload {
		b.WriteString(m.renderUpload())
	} else {
		b.WriteString(m.renderChat())
	}

	b.WriteString("\n")
	for _, t := range m.shown {
		b.WriteString(renderToast(t.event) + "\n")
	}
	b.WriteString(helpStyle.Render("  Tab: switch view  Enter: submit  Ctrl+R: recheck health  Ctrl+C: quit"))
	return b.String()
}

func (m Model) renderHeader() string {
	health := m.shell.Health()
	return titleStyle.Render("HR Assistant") + " " +
		render.HealthBadges(health) + " " +
		render.Badge(render.DocumentsBadge(len(m.shell.Files())), render.Blue)
}

func (m Model) renderTabs() string {
	uploadTab, chatTab := tabStyle, disabledTabStyle
	if m.shell.ChatAvailable() {
		chatTab = tabStyle
	}
	if m.shell.View() == shell.ViewUpload {
		uploadTab = activeTabStyle
	} else {
		chatTab = activeTabStyle
	}
	return uploadTab.Render("Upload Documents") + " " + chatTab.Render("Chat")
}

func (m Model) renderUpload() string {
	var b strings.Builder
	b.WriteString("Upload your HR documents (PDF, max 10MB) to get started.\n\n")
	if m.uploading {
		b.WriteString(m.spinner.View() + " Uploading and processing...\n")
	} else {
		b.WriteString(inputStyle.Render(m.pathInput.View()) + "\n")
	}

	files := m.shell.Files()
	if len(files) > 0 {
		now := time.Now()
		b.WriteString("\nUploaded Documents\n")
		for _, f := range files {
			b.WriteString("  " + render.File(f, now) + "\n")
		}
	}
	return b.String()
}

func (m Model) renderChat() string {
	c := m.shell.Chat()
	var lines []string
	for _, msg := range c.Messages() {
		lines = append(lines, strings.Split(renderMessage(msg), "\n")...)
		lines = append(lines, "")
	}
	if m.sending {
		lines = append(lines, m.spinner.View()+" Thinking...")
	}

	// keep the newest lines that fit above the input
	room := m.height - 10
	if offered := c.Suggestions(); offered != nil {
		lines = append(lines, dimStyle.Render("Suggested questions:"))
		for i, q := range offered {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("  /%d %s", i+1, q)))
		}
	}
	if room > 0 && len(lines) > room {
		lines = lines[len(lines)-room:]
	}

	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n") + "\n")
	if c.Offline() {
		b.WriteString(errorStyle.Render("AI Service Offline") + "\n")
	}
	b.WriteString(inputStyle.Render(m.chatInput.View()) + "\n")
	return b.String()
}

func renderMessage(msg types.ChatMessage) string {
	label := assistantStyle.Render("Assistant")
	text := render.ReplyText(msg.Text)
	if msg.Sender == types.SenderUser {
		label = userStyle.Render("You")
		text = msg.Text
	}
	if msg.IsError {
		text = errorStyle.Render(text)
	}

	var b strings.Builder
	b.WriteString(label + " " + dimStyle.Render(render.FormatTimestamp(msg.Timestamp)) + "\n" + text)
	if src := render.Sources(msg.Sources); src != "" {
		b.WriteString("\n" + dimStyle.Render(src))
	}
	if label := render.ConfidenceLabel(msg.Confidence); label != "" {
		b.WriteString("\n" + render.Badge(label, render.ConfidenceColor(msg.Confidence)))
	}
	return b.String()
}

func renderToast(e types.Event) string {
	color := render.Blue
	switch e.Level {
	case types.LevelSuccess:
		color = render.Green
	case types.LevelWarning:
		color = render.Yellow
	case types.LevelError:
		color = render.Red
	}
	return render.Badge(e.Title, color) + " " + e.Description
}
