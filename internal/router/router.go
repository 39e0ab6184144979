// Package router selects the Gemini model for a request based on query
// complexity. Complex legal queries go to the pro tier, quick questions to
// the flash tier.
package router

import (
	"regexp"
	"strings"
)

const (
	// ModelPro handles complex legal queries.
	ModelPro = "gemini-1.5-pro"
	// ModelFlash handles quick questions.
	ModelFlash = "gemini-2.0-flash-exp"
)

// complexWordCount is the word-count threshold above which a message is
// treated as complex.
const complexWordCount = 50

// complexHistoryLen is the history length above which the conversation has
// accumulated enough context to warrant the pro tier.
const complexHistoryLen = 10

var legalTerms = regexp.MustCompile(`(?i)umowa|kodeks|ustawa|przepis|sąd|prawo|art\.|paragraf`)

// wordCount returns the number of whitespace-separated words in s.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

// IsComplex reports whether a message warrants the pro tier: long messages,
// messages containing legal terminology, or long-running conversations.
func IsComplex(message string, historyLen int) bool {
	return wordCount(message) > complexWordCount ||
		legalTerms.MatchString(message) ||
		historyLen > complexHistoryLen
}

// Select returns the model for the given message and history length.
func Select(message string, historyLen int) string {
	if IsComplex(message, historyLen) {
		return ModelPro
	}
	return ModelFlash
}
