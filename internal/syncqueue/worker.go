package syncqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kancelariai/stefan/internal/bus"
)

// Worker drains the queue into the assistant API whenever a sync trigger
// arrives on the bus.
type Worker struct {
	queue    *Queue
	bus      *bus.Client
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewWorker(queue *Queue, b *bus.Client, endpoint string, logger *slog.Logger) *Worker {
	return &Worker{
		queue:    queue,
		bus:      b,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// Start subscribes the worker to sync triggers.
func (w *Worker) Start() error {
	return w.bus.Subscribe(bus.SubjectSyncNotes, func(subject string, data []byte) {
		w.Sync(context.Background())
	})
}

// Sync drains the queue once and reports the result on the bus. Delivery
// failures are kept queued; they are not errors at this level.
func (w *Worker) Sync(ctx context.Context) {
	synced, failed, err := w.queue.Drain(ctx, w.deliver)
	if err != nil {
		w.logger.Error("sync drain failed", "error", err)
		return
	}
	w.logger.Info("sync completed", "synced", synced, "failed", failed)

	if w.bus != nil {
		result := bus.SyncResult{Synced: synced, Failed: failed, Timestamp: time.Now().UTC()}
		if err := w.bus.Publish(bus.SubjectSyncCompleted, result); err != nil {
			w.logger.Warn("failed to publish sync result", "error", err)
		}
	}
}

type syncResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// deliver posts one action to the notes sync endpoint. Only an explicit
// success envelope confirms delivery.
func (w *Worker) deliver(ctx context.Context, action PendingAction) error {
	body, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver action: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read sync response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result syncResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("parse sync response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("sync rejected: %s", result.Error)
	}
	return nil
}
