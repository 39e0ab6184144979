package sources

import (
	"sort"
	"strings"
)

// Base relevance for the core statutes when nothing in the query points at
// a specific one.
const (
	baseCivil     = 0.9
	baseLabor     = 0.85
	baseProcedure = 0.8
	boosted       = 1.0
)

// FallbackSources returns the static core-statute table, with the statute
// matching the query's keywords boosted to full relevance, sorted by
// relevance descending.
func FallbackSources(query string) []LegalSource {
	out := []LegalSource{
		{
			Title:     "Kodeks cywilny - ISAP",
			URL:       "https://isap.sejm.gov.pl/isap.nsf/DocDetails.xsp?id=WDU19640160093",
			Relevance: baseCivil,
		},
		{
			Title:     "Kodeks pracy - ISAP",
			URL:       "https://isap.sejm.gov.pl/isap.nsf/DocDetails.xsp?id=WDU19740240141",
			Relevance: baseLabor,
		},
		{
			Title:     "Kodeks postępowania cywilnego - ISAP",
			URL:       "https://isap.sejm.gov.pl/isap.nsf/DocDetails.xsp?id=WDU19640430296",
			Relevance: baseProcedure,
		},
	}

	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "umowa") || strings.Contains(q, "cywil"):
		out[0].Relevance = boosted
	case strings.Contains(q, "praca") || strings.Contains(q, "pracownik"):
		out[1].Relevance = boosted
	case strings.Contains(q, "sąd") || strings.Contains(q, "postępowanie"):
		out[2].Relevance = boosted
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})
	return out
}
