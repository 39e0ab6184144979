package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kancelariai/stefan/internal/bus"
)

// Default notification content when a push payload leaves fields empty.
const (
	defaultPushTitle = "Stefan - Asystent Prawny"
	defaultPushBody  = "Masz nową wiadomość"
	defaultPushIcon  = "/stefan-icon.svg"
	defaultPushURL   = "/"
)

// maxNotifications bounds the retained history.
const maxNotifications = 50

// Notification is a delivered push payload, newest first in listings.
type Notification struct {
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Icon       string    `json:"icon"`
	URL        string    `json:"url"`
	ReceivedAt time.Time `json:"received_at"`
}

// Notifier retains recent push payloads for clients to poll.
type Notifier struct {
	mu     sync.Mutex
	items  []Notification
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// HandlePush is the bus handler for push payloads. Malformed payloads still
// produce a notification with the default content.
func (n *Notifier) HandlePush(subject string, data []byte) {
	var payload bus.PushPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		n.logger.Warn("malformed push payload", "error", err)
	}
	notification := Notification{
		Title:      payload.Title,
		Body:       payload.Body,
		Icon:       payload.Icon,
		URL:        payload.URL,
		ReceivedAt: time.Now().UTC(),
	}
	if notification.Title == "" {
		notification.Title = defaultPushTitle
	}
	if notification.Body == "" {
		notification.Body = defaultPushBody
	}
	if notification.Icon == "" {
		notification.Icon = defaultPushIcon
	}
	if notification.URL == "" {
		notification.URL = defaultPushURL
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, notification)
	if len(n.items) > maxNotifications {
		n.items = n.items[len(n.items)-maxNotifications:]
	}
	n.logger.Info("push notification received", "title", notification.Title)
}

// List returns retained notifications, newest first.
func (n *Notifier) List() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.items))
	for i, item := range n.items {
		out[len(n.items)-1-i] = item
	}
	return out
}

// ServeList is the polling endpoint handler.
func (n *Notifier) ServeList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"notifications": n.List()})
}
