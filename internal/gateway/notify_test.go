package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kancelariai/stefan/internal/bus"
)

func testNotifier() *Notifier {
	return NewNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandlePush_AppliesDefaults(t *testing.T) {
	n := testNotifier()
	n.HandlePush(bus.SubjectPush, []byte(`{}`))

	got := n.List()
	if len(got) != 1 {
		t.Fatalf("expected one notification, got %d", len(got))
	}
	if got[0].Title != "Stefan - Asystent Prawny" {
		t.Errorf("title = %q", got[0].Title)
	}
	if got[0].Body != "Masz nową wiadomość" {
		t.Errorf("body = %q", got[0].Body)
	}
	if got[0].Icon != "/stefan-icon.svg" || got[0].URL != "/" {
		t.Errorf("icon/url defaults missing: %+v", got[0])
	}
}

func TestHandlePush_MalformedPayloadStillNotifies(t *testing.T) {
	n := testNotifier()
	n.HandlePush(bus.SubjectPush, []byte(`not json`))

	got := n.List()
	if len(got) != 1 {
		t.Fatalf("malformed payload must still produce a notification, got %d", len(got))
	}
	if got[0].Title != "Stefan - Asystent Prawny" {
		t.Errorf("expected default title, got %q", got[0].Title)
	}
}

func TestHandlePush_KeepsPayloadFields(t *testing.T) {
	n := testNotifier()
	n.HandlePush(bus.SubjectPush, []byte(`{"title":"Termin","body":"Rozprawa jutro","url":"/sprawy/7"}`))

	got := n.List()
	if got[0].Title != "Termin" || got[0].Body != "Rozprawa jutro" || got[0].URL != "/sprawy/7" {
		t.Errorf("payload fields lost: %+v", got[0])
	}
	if got[0].Icon != "/stefan-icon.svg" {
		t.Errorf("empty icon should get the default, got %q", got[0].Icon)
	}
}

func TestList_NewestFirstAndBounded(t *testing.T) {
	n := testNotifier()
	for i := 0; i < maxNotifications+10; i++ {
		n.HandlePush(bus.SubjectPush, []byte(fmt.Sprintf(`{"title":"n%d"}`, i)))
	}

	got := n.List()
	if len(got) != maxNotifications {
		t.Fatalf("expected history bounded at %d, got %d", maxNotifications, len(got))
	}
	if got[0].Title != fmt.Sprintf("n%d", maxNotifications+9) {
		t.Errorf("expected newest first, got %q", got[0].Title)
	}
	if got[len(got)-1].Title != "n10" {
		t.Errorf("expected oldest retained to be n10, got %q", got[len(got)-1].Title)
	}
}

func TestServeList(t *testing.T) {
	n := testNotifier()
	n.HandlePush(bus.SubjectPush, []byte(`{"title":"Termin"}`))

	rec := httptest.NewRecorder()
	n.ServeList(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))

	var body struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response must be JSON: %v", err)
	}
	if len(body.Notifications) != 1 || body.Notifications[0].Title != "Termin" {
		t.Errorf("unexpected listing: %+v", body.Notifications)
	}
}
