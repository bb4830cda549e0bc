package chat

import (
	"context"

	"github.com/user/hrassist/internal/types"
)

// visibleSuggestions is how many presets are offered at once.
const visibleSuggestions = 6

var presetQuestions = []string{
	"How many vacation days do I get as a new employee?",
	"What's the process for requesting sick leave?",
	"Can I work remotely and what are the guidelines?",
	"How do I enroll in health insurance?",
	"What are the company holidays?",
	"How do I request time off?",
	"What's the dress code policy?",
	"How does the 401k plan work?",
}

// Suggestions returns the offered shortcut questions. They are only
// offered before the first exchange.
func (s *Session) Suggestions() []string {
	if s.Len() > 1 {
		return nil
	}
	out := make([]string, visibleSuggestions)
	copy(out, presetQuestions[:visibleSuggestions])
	return out
}

// AskSuggestion submits the i-th offered suggestion (zero-based).
func (s *Session) AskSuggestion(ctx context.Context, i int) (*types.ChatMessage, error) {
	offered := s.Suggestions()
	if offered == nil {
		return nil, ErrSuggestionsClosed
	}
	if i < 0 || i >= len(offered) {
		return nil, ErrNoSuchSuggestion
	}
	return s.Submit(ctx, offered[i])
}
