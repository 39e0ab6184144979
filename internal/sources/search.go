package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Searcher finds legal documents for a query. Implementations may fail or
// return nothing; the enricher treats both the same.
type Searcher interface {
	Search(ctx context.Context, query string) ([]LegalSource, error)
}

// searchLimit caps the number of documents requested per search.
const searchLimit = 5

// SearchClient queries an external legal-document search endpoint, scoping
// every query to Polish law.
type SearchClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewSearchClient(baseURL string, logger *slog.Logger) *SearchClient {
	return &SearchClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type searchResult struct {
	Results []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"results"`
}

func (c *SearchClient) Search(ctx context.Context, query string) ([]LegalSource, error) {
	q := url.Values{}
	q.Set("q", "polish law "+query)
	q.Set("limit", fmt.Sprint(searchLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search error %d: %s", resp.StatusCode, string(body))
	}

	var result searchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	out := make([]LegalSource, 0, len(result.Results))
	for i, item := range result.Results {
		title := item.Title
		if title == "" {
			title = item.ID
		}
		if title == "" {
			title = "Unknown Document"
		}
		out = append(out, LegalSource{
			Title:     title,
			URL:       item.URL,
			Relevance: 1 - float64(i)*0.1,
		})
	}
	return out, nil
}
