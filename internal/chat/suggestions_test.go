package chat

import (
	"context"
	"errors"
	"testing"
)

func TestSuggestionsOfferedBeforeFirstExchange(t *testing.T) {
	q := &mockQuerier{}
	s := NewSession(q, WithHealth(healthy))

	offered := s.Suggestions()
	if len(offered) != 6 {
		t.Fatalf("expected 6 suggestions, got %d", len(offered))
	}
	if offered[0] != presetQuestions[0] {
		t.Errorf("unexpected first suggestion %q", offered[0])
	}

	if _, err := s.AskSuggestion(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if got := q.Queries(); len(got) != 1 || got[0] != presetQuestions[3] {
		t.Errorf("expected preset 3 submitted, got %v", got)
	}

	if s.Suggestions() != nil {
		t.Error("expected suggestions withdrawn after first exchange")
	}
	if _, err := s.AskSuggestion(context.Background(), 0); !errors.Is(err, ErrSuggestionsClosed) {
		t.Errorf("expected ErrSuggestionsClosed, got %v", err)
	}
}

func TestAskSuggestionOutOfRange(t *testing.T) {
	s := NewSession(&mockQuerier{}, WithHealth(healthy))

	for _, i := range []int{-1, 6, 7} {
		if _, err := s.AskSuggestion(context.Background(), i); !errors.Is(err, ErrNoSuchSuggestion) {
			t.Errorf("index %d: expected ErrNoSuchSuggestion, got %v", i, err)
		}
	}
	if s.Len() != 1 {
		t.Errorf("expected transcript unchanged, got %d", s.Len())
	}
}
