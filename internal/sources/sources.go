// Package sources post-processes generated answers with legal-source
// metadata: inline citation extraction, an external document search with a
// static-statute fallback, and the appended "Źródła prawne" section.
package sources

import (
	"regexp"
	"strings"
)

// LegalSource points at a legal document with a relevance score in [0,1].
type LegalSource struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Relevance float64 `json:"relevance"`
}

// Citation patterns: article references ("art. 36", "art. 415 § 2"),
// statute-name mentions ("Kodeks cywilny") and act titles ("Ustawa ...").
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)art\.\s*\d+[a-z]?(\s*§\s*\d+)?`),
	regexp.MustCompile(`(?i)Kodeks\s+\p{L}+`),
	regexp.MustCompile(`(?i)Ustawa\s+[^.]+`),
}

// ExtractCitations returns the inline legal references found in text,
// deduplicated case-insensitively with first-seen casing and order kept.
func ExtractCitations(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, pattern := range citationPatterns {
		for _, m := range pattern.FindAllString(text, -1) {
			key := strings.ToLower(strings.TrimSpace(m))
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, strings.TrimSpace(m))
		}
	}
	return out
}
