package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/hrassist/internal/chat"
	"github.com/user/hrassist/internal/notify"
	"github.com/user/hrassist/internal/render"
	"github.com/user/hrassist/internal/shell"
	"github.com/user/hrassist/internal/types"
	"github.com/user/hrassist/internal/upload"
)

const maxTelegramMessage = 4096

// ShellFactory builds the shell for one Telegram chat. Notifications raised
// by the shell's sessions should be delivered to notifier.
type ShellFactory func(notifier types.Notifier) *shell.Shell

// bot is the subset of the Bot API the adapter uses.
type bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Adapter bridges Telegram chats to per-chat shells: documents are
// uploaded, text is asked.
type Adapter struct {
	bot        bot
	newShell   ShellFactory
	httpClient *http.Client

	mu     sync.Mutex
	shells map[int64]*shell.Shell
	wg     sync.WaitGroup
}

// New creates a Telegram adapter.
func New(token string, factory ShellFactory) (*Adapter, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	slog.Info("telegram bot authorized", "username", api.Self.UserName)
	return newAdapter(api, factory), nil
}

func newAdapter(b bot, factory ShellFactory) *Adapter {
	return &Adapter{
		bot:        b,
		newShell:   factory,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		shells:     make(map[int64]*shell.Shell),
	}
}

// Start long-polls for updates until ctx is cancelled. Each update is
// handled on its own goroutine so a slow upload does not hold up other
// chats.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			a.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer a.wg.Done()
				a.handleMessage(ctx, msg)
			}(update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			a.wg.Wait()
			return
		}
	}
}

// shellFor returns the chat's shell, mounting a new one on first contact.
func (a *Adapter) shellFor(ctx context.Context, chatID int64) *shell.Shell {
	a.mu.Lock()
	s, ok := a.shells[chatID]
	if !ok {
		s = a.newShell(a.notifier(chatID))
		a.shells[chatID] = s
	}
	a.mu.Unlock()

	s.Mount(ctx)
	return s
}

// notifier forwards upload notifications to the chat. Chat failures are
// already answered in the conversation itself.
func (a *Adapter) notifier(chatID int64) types.Notifier {
	registry := notify.NewRegistry()
	registry.Register("upload.", func(event types.Event) error {
		a.sendResponse(chatID, event.Title+" "+event.Description)
		return nil
	})
	return registry
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	s := a.shellFor(ctx, chatID)

	switch {
	case msg.IsCommand():
		a.handleCommand(ctx, s, msg)
	case msg.Document != nil:
		a.handleDocument(ctx, s, msg)
	case strings.TrimSpace(msg.Text) != "":
		a.ask(ctx, s, chatID, msg.Text)
	}
}

func (a *Adapter) handleDocument(ctx context.Context, s *shell.Shell, msg *tgbotapi.Message) {
	doc := msg.Document
	file := &types.File{
		Name:     doc.FileName,
		MIMEType: doc.MimeType,
		Size:     int64(doc.FileSize),
	}

	// Rejections are decided from metadata alone; the session reports them.
	if upload.Validate(file) == nil {
		body, err := a.download(ctx, doc.FileID)
		if err != nil {
			slog.Error("telegram download failed", "file", doc.FileName, "error", err)
			a.sendResponse(msg.Chat.ID, "Could not download "+doc.FileName+" from Telegram.")
			return
		}
		defer body.Close()
		file.Content = body
	}

	_, err := s.Upload(ctx, file)
	if errors.Is(err, upload.ErrBusy) {
		a.sendResponse(msg.Chat.ID, "Another upload is still in progress.")
	}
}

func (a *Adapter) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := a.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (a *Adapter) ask(ctx context.Context, s *shell.Shell, chatID int64, text string) {
	if !s.ChatAvailable() {
		a.sendResponse(chatID, "Send me a PDF document first, then ask your questions about it.")
		return
	}

	answer, err := s.Chat().Submit(ctx, text)
	switch {
	case errors.Is(err, chat.ErrOffline):
		a.sendResponse(chatID, chat.OfflinePlaceholder)
		return
	case errors.Is(err, chat.ErrBusy):
		a.sendResponse(chatID, "Still working on your previous question.")
		return
	case err != nil:
		return
	}
	a.sendResponse(chatID, formatAnswer(answer))
}

func formatAnswer(msg *types.ChatMessage) string {
	var b strings.Builder
	b.WriteString(render.ReplyText(msg.Text))
	if src := render.Sources(msg.Sources); src != "" {
		b.WriteString("\n\n")
		b.WriteString(src)
	}
	if label := render.ConfidenceLabel(msg.Confidence); label != "" {
		b.WriteString("\n(" + label + ")")
	}
	return b.String()
}

func (a *Adapter) handleCommand(ctx context.Context, s *shell.Shell, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch cmd := msg.Command(); cmd {
	case "start":
		a.sendResponse(chatID, chat.WelcomeText+"\n\nSend me a PDF document to get started.")

	case "status":
		health := s.Health()
		lines := []string{render.StatusLabel(health.Status)}
		if render.LLMDisconnected(health) {
			lines = append(lines, "LLM Disconnected")
		}
		lines = append(lines,
			render.DocumentsBadge(len(s.Files())),
			fmt.Sprintf("Messages: %d", s.Chat().Len()),
		)
		a.sendResponse(chatID, strings.Join(lines, "\n"))

	case "health":
		health := s.RefreshHealth(ctx)
		a.sendResponse(chatID, render.StatusLabel(health.Status))

	case "files":
		files := s.Files()
		if len(files) == 0 {
			a.sendResponse(chatID, "No documents uploaded yet.")
			return
		}
		now := time.Now()
		lines := make([]string, len(files))
		for i, f := range files {
			lines[i] = render.File(f, now)
		}
		a.sendResponse(chatID, strings.Join(lines, "\n"))

	case "suggestions":
		offered := s.Chat().Suggestions()
		if offered == nil {
			a.sendResponse(chatID, "Just ask your question.")
			return
		}
		lines := make([]string, len(offered))
		for i, q := range offered {
			lines[i] = fmt.Sprintf("/%d %s", i+1, q)
		}
		a.sendResponse(chatID, strings.Join(lines, "\n"))

	default:
		if n, err := strconv.Atoi(cmd); err == nil {
			a.askSuggestion(ctx, s, chatID, n-1)
			return
		}
		a.sendResponse(chatID, "Unknown command. Available: /start, /status, /health, /files, /suggestions")
	}
}

func (a *Adapter) askSuggestion(ctx context.Context, s *shell.Shell, chatID int64, i int) {
	offered := s.Chat().Suggestions()
	if offered == nil || i < 0 || i >= len(offered) {
		a.sendResponse(chatID, "No such suggestion.")
		return
	}
	a.ask(ctx, s, chatID, offered[i])
}

func (a *Adapter) sendResponse(chatID int64, text string) {
	parts := splitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := a.bot.Send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.bot.Send(msg); err != nil {
				slog.Error("telegram send failed", "chat_id", chatID, "error", err)
			}
		}
	}
}

// splitMessage cuts text into parts Telegram accepts. The limit counts
// UTF-16 code units; cuts fall on rune boundaries, at the last line break
// of a part when it has one.
func splitMessage(text string) []string {
	var parts []string
	for text != "" {
		cut, units := 0, 0
		for cut < len(text) {
			r, size := utf8.DecodeRuneInString(text[cut:])
			if units+utf16.RuneLen(r) > maxTelegramMessage {
				break
			}
			units += utf16.RuneLen(r)
			cut += size
		}
		if cut < len(text) {
			if nl := strings.LastIndexByte(text[:cut], '\n'); nl > 0 {
				cut = nl + 1
			}
		}
		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	return parts
}
