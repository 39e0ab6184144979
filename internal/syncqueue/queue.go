// Package syncqueue holds note mutations made while the backing store was
// unreachable. The queue is one JSON array in a single file; every mutation
// is a read-modify-write under the queue mutex with an atomic temp-file
// rename, so a concurrent enqueue and drain never lose updates.
package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pending action types, one per note mutation.
const (
	ActionNoteCreate = "note_create"
	ActionNoteUpdate = "note_update"
	ActionNoteDelete = "note_delete"
)

// PendingAction is a deferred note mutation awaiting delivery.
type PendingAction struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Deliver attempts to apply one action. A nil return confirms delivery; the
// action is then removed from the queue.
type Deliver func(ctx context.Context, action PendingAction) error

type Queue struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Queue {
	return &Queue{path: path}
}

// Enqueue appends an action to the queue, assigning it an id and timestamp.
func (q *Queue) Enqueue(actionType string, payload json.RawMessage) (PendingAction, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch actionType {
	case ActionNoteCreate, ActionNoteUpdate, ActionNoteDelete:
	default:
		return PendingAction{}, fmt.Errorf("unknown action type %q", actionType)
	}

	action := PendingAction{
		ID:        fmt.Sprintf("%s_%s", actionType, uuid.New()),
		Type:      actionType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	pending, err := q.load()
	if err != nil {
		return PendingAction{}, err
	}
	pending = append(pending, action)
	if err := q.save(pending); err != nil {
		return PendingAction{}, err
	}
	return action, nil
}

// Pending returns the queued actions in insertion order.
func (q *Queue) Pending() ([]PendingAction, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

// Len returns the number of queued actions.
func (q *Queue) Len() (int, error) {
	pending, err := q.Pending()
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// Drain attempts delivery of every queued action in order. Actions are
// removed only on confirmed success; failures stay queued for the next
// trigger. The queue lock is not held across deliveries, so actions enqueued
// mid-drain are preserved.
func (q *Queue) Drain(ctx context.Context, deliver Deliver) (synced, failed int, err error) {
	pending, err := q.Pending()
	if err != nil {
		return 0, 0, err
	}

	delivered := make(map[string]bool, len(pending))
	for _, action := range pending {
		if ctx.Err() != nil {
			break
		}
		if err := deliver(ctx, action); err != nil {
			failed++
			continue
		}
		delivered[action.ID] = true
		synced++
	}

	if len(delivered) > 0 {
		if err := q.remove(delivered); err != nil {
			return synced, failed, err
		}
	}
	return synced, failed, nil
}

// remove drops delivered actions in a single read-modify-write, keeping any
// actions enqueued since the drain snapshot.
func (q *Queue) remove(delivered map[string]bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending, err := q.load()
	if err != nil {
		return err
	}
	remaining := pending[:0]
	for _, action := range pending {
		if !delivered[action.ID] {
			remaining = append(remaining, action)
		}
	}
	return q.save(remaining)
}

func (q *Queue) load() ([]PendingAction, error) {
	data, err := os.ReadFile(q.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var pending []PendingAction
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("parse queue: %w", err)
	}
	return pending, nil
}

// save writes the full queue through a synced temp file and atomic rename,
// so a crash leaves either the old or the new complete queue.
func (q *Queue) save(pending []PendingAction) error {
	if pending == nil {
		pending = []PendingAction{}
	}
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal queue: %w", err)
	}

	dir := filepath.Dir(q.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create queue dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".queue-")
	if err != nil {
		return fmt.Errorf("create temp queue: %w", err)
	}
	tempPath := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("write queue: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("sync queue: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("close queue: %w", err)
	}
	if err := os.Rename(tempPath, q.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename queue: %w", err)
	}
	return nil
}
