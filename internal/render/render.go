// Package render turns session state into display text for the terminal
// front ends.
package render

import (
	"fmt"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/user/hrassist/internal/types"
)

// Badge colours.
const (
	Green  = lipgloss.Color("42")
	Yellow = lipgloss.Color("220")
	Orange = lipgloss.Color("208")
	Red    = lipgloss.Color("196")
	Blue   = lipgloss.Color("39")
	Gray   = lipgloss.Color("245")
)

// FormatSize renders a byte count with binary units.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatUploadTime renders when a file was uploaded relative to now.
func FormatUploadTime(at, now time.Time) string {
	return humanize.RelTime(at, now, "ago", "from now")
}

// FormatTimestamp renders a message time as hours and minutes.
func FormatTimestamp(at time.Time) string {
	return at.Local().Format("15:04")
}

// RelevancePercent renders a [0,1] relevance score as a whole percentage.
func RelevancePercent(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}

func ConfidenceColor(c types.Confidence) lipgloss.Color {
	switch c {
	case types.ConfidenceHigh:
		return Green
	case types.ConfidenceMedium:
		return Yellow
	case types.ConfidenceLow:
		return Orange
	default:
		return Gray
	}
}

// ConfidenceLabel is the badge text for a reply, empty when the backend
// reported no confidence.
func ConfidenceLabel(c types.Confidence) string {
	if c == "" {
		return ""
	}
	return string(c) + " confidence"
}

func StatusColor(state types.HealthState) lipgloss.Color {
	switch state {
	case types.HealthHealthy:
		return Green
	case types.HealthUnhealthy:
		return Red
	default:
		return Yellow
	}
}

// StatusLabel is the system badge text, e.g. "System healthy".
func StatusLabel(state types.HealthState) string {
	return "System " + string(state)
}

// LLMDisconnected reports whether the health report names the inference
// service as down. A missing entry is not a disconnect.
func LLMDisconnected(h types.HealthStatus) bool {
	available, known := h.ServiceAvailable(types.LLMService)
	return known && !available
}

// DocumentsBadge is the documents-loaded badge text.
func DocumentsBadge(n int) string {
	if n == 1 {
		return "1 Document Loaded"
	}
	return fmt.Sprintf("%d Documents Loaded", n)
}

// Badge renders text as a coloured tag.
func Badge(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(color).
		Padding(0, 1).
		Render(text)
}

// HealthBadges renders the system status badge and, when applicable, the
// disconnected-inference badge.
func HealthBadges(h types.HealthStatus) string {
	badges := []string{Badge(StatusLabel(h.Status), StatusColor(h.Status))}
	if LLMDisconnected(h) {
		badges = append(badges, Badge("LLM Disconnected", Orange))
	}
	return strings.Join(badges, " ")
}

// ReplyText normalises a reply for terminal display. Replies containing HTML
// markup are converted to markdown; anything else is returned trimmed.
func ReplyText(text string) string {
	text = strings.TrimSpace(text)
	if !looksLikeHTML(text) {
		return text
	}
	md, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(md)
}

func looksLikeHTML(text string) bool {
	i := strings.IndexByte(text, '<')
	if i < 0 || i+1 >= len(text) {
		return false
	}
	next := text[i+1]
	if !(next == '/' || (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z')) {
		return false
	}
	return strings.Contains(text[i:], ">")
}

// Sources renders the source list of a reply, one document per line.
func Sources(sources []types.Source) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Sources:")
	for _, src := range sources {
		fmt.Fprintf(&b, "\n  %s (Relevance: %s)", src.DocumentName, RelevancePercent(src.RelevanceScore))
	}
	return b.String()
}

// Message renders one transcript entry as plain text with its time,
// sources and confidence.
func Message(msg types.ChatMessage) string {
	speaker := "Assistant"
	if msg.Sender == types.SenderUser {
		speaker = "You"
	}
	text := msg.Text
	if msg.Sender == types.SenderAssistant {
		text = ReplyText(text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", FormatTimestamp(msg.Timestamp), speaker, text)
	if src := Sources(msg.Sources); src != "" {
		b.WriteString("\n")
		b.WriteString(src)
	}
	if label := ConfidenceLabel(msg.Confidence); label != "" {
		fmt.Fprintf(&b, "\n  (%s)", label)
	}
	return b.String()
}

// File renders one registry entry.
func File(file types.UploadedFile, now time.Time) string {
	return fmt.Sprintf("%s  %s  uploaded %s", file.Name, FormatSize(file.SizeBytes), FormatUploadTime(file.UploadedAt, now))
}
