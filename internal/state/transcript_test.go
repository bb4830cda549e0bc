// internal/state/transcript_test.go
package state

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/user/hrassist/internal/types"
)

func TestTranscriptStore(t *testing.T) {
	dir := t.TempDir()
	store := NewTranscriptStore(dir)
	ctx := context.Background()

	sessionID := types.NewSessionID()
	at := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	question := &types.ChatMessage{
		ID:        types.NewMessageID(),
		Text:      "What is the PTO policy?",
		Sender:    types.SenderUser,
		Timestamp: at,
		Sources:   []types.Source{},
	}
	answer := &types.ChatMessage{
		ID:         types.NewMessageID(),
		Text:       "You get 15 days.",
		Sender:     types.SenderAssistant,
		Timestamp:  at.Add(time.Second),
		Sources:    []types.Source{{DocumentName: "handbook.pdf", RelevanceScore: 0.92}},
		Confidence: types.ConfidenceHigh,
	}

	for _, msg := range []*types.ChatMessage{question, answer} {
		if err := store.Append(ctx, sessionID, msg); err != nil {
			t.Fatal(err)
		}
	}

	messages, err := store.Load(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].ID != question.ID || messages[1].ID != answer.ID {
		t.Error("expected messages in append order")
	}
	if !messages[1].Timestamp.Equal(answer.Timestamp) {
		t.Errorf("expected timestamp %v, got %v", answer.Timestamp, messages[1].Timestamp)
	}
	if len(messages[1].Sources) != 1 || messages[1].Sources[0].DocumentName != "handbook.pdf" {
		t.Errorf("unexpected sources %+v", messages[1].Sources)
	}
	if messages[1].Confidence != types.ConfidenceHigh {
		t.Errorf("expected high confidence, got %q", messages[1].Confidence)
	}

	count, err := store.Count(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	if _, err := os.Stat(filepath.Join(dir, "transcripts", string(sessionID)+".jsonl")); err != nil {
		t.Errorf("expected transcript file on disk: %v", err)
	}
}

func TestTranscriptStoreMissingSession(t *testing.T) {
	store := NewTranscriptStore(t.TempDir())
	ctx := context.Background()
	sessionID := types.NewSessionID()

	messages, err := store.Load(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 0 {
		t.Errorf("expected no messages, got %d", len(messages))
	}

	count, err := store.Count(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
}

func TestTranscriptStoreConcurrentAppend(t *testing.T) {
	store := NewTranscriptStore(t.TempDir())
	ctx := context.Background()
	sessionID := types.NewSessionID()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := &types.ChatMessage{ID: types.NewMessageID(), Text: "hi", Sender: types.SenderUser}
			if err := store.Append(ctx, sessionID, msg); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	count, err := store.Count(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 20 {
		t.Errorf("expected 20 messages, got %d", count)
	}
}

func TestTranscriptStoreSessions(t *testing.T) {
	dir := t.TempDir()
	store := NewTranscriptStore(dir)
	ctx := context.Background()

	ids, err := store.Sessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no sessions before any append, got %v", ids)
	}

	older, newer := types.NewSessionID(), types.NewSessionID()
	for _, id := range []types.SessionID{older, newer} {
		msg := &types.ChatMessage{ID: types.NewMessageID(), Text: "hi", Sender: types.SenderUser}
		if err := store.Append(ctx, id, msg); err != nil {
			t.Fatal(err)
		}
	}
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := os.Chtimes(store.path(older), base, base); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(store.path(newer), base.Add(time.Hour), base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "transcripts", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ids, err = store.Sessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != newer || ids[1] != older {
		t.Errorf("expected [%s %s], got %v", newer, older, ids)
	}
}
