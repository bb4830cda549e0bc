// internal/state/transcript.go
package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/hrassist/internal/types"
)

// TranscriptStore is a JSONL-backed append-only chat log.
// Messages are stored per-session in transcripts/<sessionID>.jsonl.
type TranscriptStore struct {
	root  string
	mu    sync.Mutex
	locks map[types.SessionID]*sync.Mutex
}

// NewTranscriptStore creates a new file-backed TranscriptStore rooted at the given directory.
func NewTranscriptStore(root string) *TranscriptStore {
	return &TranscriptStore{
		root:  root,
		locks: make(map[types.SessionID]*sync.Mutex),
	}
}

// getLock returns the per-session mutex, creating one if it doesn't exist.
func (t *TranscriptStore) getLock(sessionID types.SessionID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	if lock, ok := t.locks[sessionID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	t.locks[sessionID] = lock
	return lock
}

func (t *TranscriptStore) path(sessionID types.SessionID) string {
	return filepath.Join(t.root, "transcripts", string(sessionID)+".jsonl")
}

// Append writes one message to the end of the session's log.
func (t *TranscriptStore) Append(_ context.Context, sessionID types.SessionID, msg *types.ChatMessage) error {
	lock := t.getLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.path(sessionID)), 0o755); err != nil {
		return fmt.Errorf("create transcripts dir: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	f, err := os.OpenFile(t.path(sessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Load returns every message of the session in append order. A session
// with no log yields an empty result.
func (t *TranscriptStore) Load(_ context.Context, sessionID types.SessionID) ([]*types.ChatMessage, error) {
	lock := t.getLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(t.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	var messages []*types.ChatMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var msg types.ChatMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript file: %w", err)
	}
	return messages, nil
}

// Count returns the number of messages logged for the session.
func (t *TranscriptStore) Count(_ context.Context, sessionID types.SessionID) (int64, error) {
	lock := t.getLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(t.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	var count int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan transcript file: %w", err)
	}
	return count, nil
}

// Sessions lists the sessions with a log, most recently written first.
func (t *TranscriptStore) Sessions(_ context.Context) ([]types.SessionID, error) {
	entries, err := os.ReadDir(filepath.Join(t.root, "transcripts"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read transcripts dir: %w", err)
	}

	type logFile struct {
		id  types.SessionID
		mod time.Time
	}
	var logs []logFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		logs = append(logs, logFile{id: types.SessionID(strings.TrimSuffix(name, ".jsonl")), mod: info.ModTime()})
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].mod.After(logs[j].mod) })

	ids := make([]types.SessionID, len(logs))
	for i, l := range logs {
		ids[i] = l.id
	}
	return ids, nil
}
