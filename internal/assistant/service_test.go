package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/kancelariai/stefan/internal/gemini"
	"github.com/kancelariai/stefan/internal/router"
	"github.com/kancelariai/stefan/internal/sources"
)

type stubLLM struct {
	reply   string
	err     error
	model   string
	system  string
	history []gemini.Message
	message string
	calls   int
}

func (s *stubLLM) Complete(ctx context.Context, model, system string, history []gemini.Message, message string) (string, error) {
	s.calls++
	s.model = model
	s.system = system
	s.history = history
	s.message = message
	return s.reply, s.err
}

type noSearch struct{}

func (noSearch) Search(ctx context.Context, query string) ([]sources.LegalSource, error) {
	return nil, errors.New("search unavailable")
}

func newService(llm *stubLLM) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(llm, sources.NewEnricher(noSearch{}, logger), 200000, logger)
	svc.now = func() time.Time { return time.Date(2026, time.March, 17, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestChat_Success(t *testing.T) {
	llm := &stubLLM{reply: "Okres wypowiedzenia określa art. 36 Kodeksu pracy."}
	svc := newService(llm)

	history := []ChatMessage{
		{Role: RoleUser, Content: "cześć"},
		{Role: RoleBot, Content: "dzień dobry"},
	}
	reply, err := svc.Chat(context.Background(), "Jaki okres wypowiedzenia przewiduje umowa o pracę?", history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reply.Success {
		t.Fatal("expected success")
	}
	if reply.Model != router.ModelPro {
		t.Errorf("legal query should route to pro tier, got %q", reply.Model)
	}
	if !strings.Contains(llm.system, "17 marca 2026") {
		t.Error("system instruction missing the literal current date")
	}
	if !strings.Contains(llm.system, "To nie jest porada prawna") {
		t.Error("system instruction missing disclaimer rule")
	}
	if len(llm.history) != 2 || llm.history[1].Role != RoleBot {
		t.Errorf("history not passed through in order: %+v", llm.history)
	}
	if len(reply.Sources) == 0 {
		t.Error("art. 36 reference should yield a non-empty source list")
	}
	if reply.Confidence != ConfidenceHigh {
		t.Errorf("inline citation should give high confidence, got %q", reply.Confidence)
	}
	if !strings.Contains(reply.Message, "Źródła prawne") {
		t.Error("reply should carry the enrichment section")
	}
}

func TestChat_UpstreamFailureFallsBack(t *testing.T) {
	llm := &stubLLM{err: gemini.ErrUpstream}
	svc := newService(llm)

	reply, err := svc.Chat(context.Background(), "pytanie", nil)
	if err != nil {
		t.Fatalf("upstream failure must not escape the service, got %v", err)
	}
	if reply.Success {
		t.Fatal("expected success=false envelope")
	}
	if !strings.Contains(reply.Message, "Przepraszam, wystąpił problem z połączeniem") {
		t.Errorf("expected Polish fallback text, got %q", reply.Message)
	}
	if reply.Model != "fallback" {
		t.Errorf("expected fallback model marker, got %q", reply.Model)
	}
}

func TestChat_EmptyResponseFallsBack(t *testing.T) {
	llm := &stubLLM{err: gemini.ErrEmptyResponse}
	svc := newService(llm)

	reply, err := svc.Chat(context.Background(), "pytanie", nil)
	if err != nil {
		t.Fatalf("empty response must not escape the service, got %v", err)
	}
	if reply.Success {
		t.Fatal("expected success=false envelope")
	}
}

func TestChat_CancelledPassesThrough(t *testing.T) {
	llm := &stubLLM{err: gemini.ErrCancelled}
	svc := newService(llm)

	_, err := svc.Chat(context.Background(), "pytanie", nil)
	if !errors.Is(err, gemini.ErrCancelled) {
		t.Fatalf("cancellation must pass through, got %v", err)
	}
}

func TestChat_Validation(t *testing.T) {
	llm := &stubLLM{reply: "ok"}
	svc := newService(llm)

	if _, err := svc.Chat(context.Background(), "", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}

	bad := []ChatMessage{{Role: "system", Content: "x"}}
	if _, err := svc.Chat(context.Background(), "pytanie", bad); err == nil {
		t.Error("expected error for unrecognized role")
	}
	if llm.calls != 0 {
		t.Error("validation failures must not reach the upstream")
	}
}

func TestAnalyzeDocument_Success(t *testing.T) {
	llm := &stubLLM{reply: "Typ dokumentu: umowa. ⚠️ Brak daty. Zob. art. 78"}
	svc := newService(llm)

	reply, err := svc.AnalyzeDocument(context.Background(), "Umowa najmu lokalu...", "umowa.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reply.Success {
		t.Fatal("expected success")
	}
	if !strings.Contains(llm.system, "audytor prawny") {
		t.Error("analysis must use the auditor persona")
	}
	if !strings.HasPrefix(llm.message, "DOKUMENT DO ANALIZY:\n") {
		t.Errorf("document must be wrapped for analysis, got %q", llm.message)
	}
	if len(llm.history) != 0 {
		t.Error("analysis sends no conversation history")
	}
	if reply.Model != router.ModelPro {
		t.Errorf("analysis should use the pro tier, got %q", reply.Model)
	}
	if len(reply.Sources) != 1 || reply.Sources[0] != "art. 78" {
		t.Errorf("expected extracted citation, got %v", reply.Sources)
	}
}

func TestAnalyzeDocument_TooLarge(t *testing.T) {
	llm := &stubLLM{reply: "ok"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(llm, sources.NewEnricher(noSearch{}, logger), 10, logger)

	_, err := svc.AnalyzeDocument(context.Background(), strings.Repeat("a", 11), "")
	if !errors.Is(err, ErrDocumentTooLarge) {
		t.Fatalf("expected ErrDocumentTooLarge, got %v", err)
	}
	if llm.calls != 0 {
		t.Error("oversized documents must be rejected before any upstream call")
	}
}

func TestAnalyzeDocument_FailureFallsBack(t *testing.T) {
	llm := &stubLLM{err: gemini.ErrUpstream}
	svc := newService(llm)

	reply, err := svc.AnalyzeDocument(context.Background(), "tekst", "")
	if err != nil {
		t.Fatalf("upstream failure must not escape, got %v", err)
	}
	if reply.Success || !strings.Contains(reply.Message, "Nie udało się przeanalizować dokumentu") {
		t.Errorf("expected analysis fallback, got %+v", reply)
	}
}
