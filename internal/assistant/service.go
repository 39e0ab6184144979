// Package assistant orchestrates the request pipeline: prompt construction,
// model selection, the Gemini call and source enrichment. It owns the
// fallback policy — upstream failures become Success=false envelopes with
// user-safe Polish text, cancellation passes through untouched.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kancelariai/stefan/internal/gemini"
	"github.com/kancelariai/stefan/internal/prompt"
	"github.com/kancelariai/stefan/internal/router"
	"github.com/kancelariai/stefan/internal/sources"
)

const chatFallback = "Przepraszam, wystąpił problem z połączeniem. Spróbuj ponownie za chwilę.\n\n⚠️ W pilnych sprawach skontaktuj się bezpośrednio z kancelarią."

const analysisFallback = "Nie udało się przeanalizować dokumentu. Spróbuj ponownie lub skontaktuj się z kancelarią."

// Completer is the LLM capability the service consumes.
type Completer interface {
	Complete(ctx context.Context, model, systemInstruction string, history []gemini.Message, message string) (string, error)
}

type Service struct {
	llm              Completer
	enricher         *sources.Enricher
	logger           *slog.Logger
	maxDocumentBytes int
	now              func() time.Time
}

func New(llm Completer, enricher *sources.Enricher, maxDocumentBytes int, logger *slog.Logger) *Service {
	return &Service{
		llm:              llm,
		enricher:         enricher,
		logger:           logger,
		maxDocumentBytes: maxDocumentBytes,
		now:              time.Now,
	}
}

// Chat answers a user message in the context of the given history.
//
// Validation failures and cancellation return an error; every other failure
// is absorbed into a Success=false reply.
func (s *Service) Chat(ctx context.Context, message string, history []ChatMessage) (Reply, error) {
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	if err := ValidateHistory(history); err != nil {
		return Reply{}, err
	}

	model := router.Select(message, len(history))
	system := prompt.Build(prompt.ModeChat, s.now())

	raw, err := s.llm.Complete(ctx, model, system, translateHistory(history), message)
	if err != nil {
		if errors.Is(err, gemini.ErrCancelled) {
			// Caller aborted; no reply, no fallback message.
			return Reply{}, err
		}
		s.logger.Error("chat completion failed", "model", model, "error", err)
		return fallbackReply(chatFallback), nil
	}

	citations := sources.ExtractCitations(raw)
	enriched, legal := s.enricher.Enrich(ctx, message, raw)

	s.logger.Info("chat reply ready",
		"model", model,
		"citations", len(citations),
		"sources", len(legal),
	)

	return Reply{
		Success:    true,
		Message:    enriched,
		Model:      model,
		Sources:    combineSources(citations, legal),
		Confidence: confidence(citations),
	}, nil
}

// AnalyzeDocument audits a legal document with the analysis persona. The
// document is never persisted; content over the byte budget is rejected
// before any upstream call.
func (s *Service) AnalyzeDocument(ctx context.Context, content, filename string) (Reply, error) {
	if content == "" {
		return Reply{}, ErrEmptyDocument
	}
	if len(content) > s.maxDocumentBytes {
		return Reply{}, fmt.Errorf("%w: %d bytes (max %d)", ErrDocumentTooLarge, len(content), s.maxDocumentBytes)
	}

	system := prompt.Build(prompt.ModeAnalysis, s.now())
	message := "DOKUMENT DO ANALIZY:\n" + content

	raw, err := s.llm.Complete(ctx, router.ModelPro, system, nil, message)
	if err != nil {
		if errors.Is(err, gemini.ErrCancelled) {
			return Reply{}, err
		}
		s.logger.Error("document analysis failed", "filename", filename, "error", err)
		return fallbackReply(analysisFallback), nil
	}

	citations := sources.ExtractCitations(raw)

	s.logger.Info("document analysis ready",
		"filename", filename,
		"content_len", len(content),
		"citations", len(citations),
	)

	return Reply{
		Success:    true,
		Message:    raw,
		Model:      router.ModelPro,
		Sources:    citations,
		Confidence: confidence(citations),
	}, nil
}

func translateHistory(history []ChatMessage) []gemini.Message {
	out := make([]gemini.Message, len(history))
	for i, msg := range history {
		out[i] = gemini.Message{Role: msg.Role, Content: msg.Content}
	}
	return out
}

func combineSources(citations []string, legal []sources.LegalSource) []string {
	out := make([]string, 0, len(citations)+len(legal))
	out = append(out, citations...)
	for _, s := range legal {
		out = append(out, s.Title)
	}
	return out
}

func confidence(citations []string) string {
	if len(citations) > 0 {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

func fallbackReply(message string) Reply {
	return Reply{
		Success:    false,
		Message:    message,
		Model:      "fallback",
		Confidence: ConfidenceLow,
	}
}
