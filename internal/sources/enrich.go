package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// maxAppended caps how many sources the appended section lists.
const maxAppended = 3

// Enricher appends legal-source metadata to generated answers.
type Enricher struct {
	searcher Searcher
	logger   *slog.Logger
}

func NewEnricher(searcher Searcher, logger *slog.Logger) *Enricher {
	return &Enricher{searcher: searcher, logger: logger}
}

// Enrich appends a "Źródła prawne" section to raw when the search (or the
// static fallback) yields sources. Search failures are absorbed and logged;
// they never fail the request.
func (e *Enricher) Enrich(ctx context.Context, query, raw string) (string, []LegalSource) {
	var found []LegalSource
	if e.searcher != nil {
		result, err := e.searcher.Search(ctx, query)
		if err != nil {
			e.logger.Warn("legal search failed, using fallback sources", "error", err)
		} else {
			found = result
		}
	}
	if len(found) == 0 {
		found = FallbackSources(query)
	}
	if len(found) == 0 {
		return raw, nil
	}
	return raw + FormatSection(found), found
}

// FormatSection renders the numbered markdown source list appended to
// answers, capped at the top entries.
func FormatSection(sources []LegalSource) string {
	var b strings.Builder
	b.WriteString("\n\n---\n\n**Źródła prawne:**\n")
	for i, s := range sources {
		if i >= maxAppended {
			break
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. [%s](%s)", i+1, s.Title, s.URL)
	}
	return b.String()
}
