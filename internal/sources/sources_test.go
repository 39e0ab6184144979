package sources

import (
	"reflect"
	"testing"
)

func TestExtractCitations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "article and statute reference",
			text: "Okres wypowiedzenia reguluje Kodeks pracy, zob. art. 36",
			want: []string{"art. 36", "Kodeks pracy"},
		},
		{
			name: "article with paragraph",
			text: "Stosuje się art. 415 § 2 w związku z art. 415.",
			want: []string{"art. 415 § 2", "art. 415"},
		},
		{
			name: "case-insensitive dedupe keeps first casing",
			text: "Art. 10 oraz art. 10 ponownie",
			want: []string{"Art. 10"},
		},
		{
			name: "act title runs to sentence end",
			text: "Ustawa o prawach konsumenta reguluje tę kwestię. Koniec",
			want: []string{"Ustawa o prawach konsumenta reguluje tę kwestię"},
		},
		{
			name: "no citations",
			text: "Dzień dobry, w czym mogę pomóc?",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCitations(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractCitations(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFallbackSources_Boosts(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantFirst string
	}{
		{"contract query boosts civil code", "wypowiedzenie umowy najmu", "Kodeks cywilny - ISAP"},
		{"labor query boosts labor code", "urlop pracownika", "Kodeks pracy - ISAP"},
		{"court query boosts procedure code", "pozew do sądu", "Kodeks postępowania cywilnego - ISAP"},
		{"neutral query keeps civil code first", "spadek po rodzicach", "Kodeks cywilny - ISAP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackSources(tt.query)
			if len(got) != 3 {
				t.Fatalf("expected 3 fallback sources, got %d", len(got))
			}
			if got[0].Title != tt.wantFirst {
				t.Errorf("query %q: first source %q, want %q", tt.query, got[0].Title, tt.wantFirst)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Relevance > got[i-1].Relevance {
					t.Errorf("sources not sorted by relevance: %v", got)
				}
			}
		})
	}
}

func TestFallbackSources_FirstKeywordMatchWins(t *testing.T) {
	got := FallbackSources("umowa o pracę")
	// "umowa" matches first, so the civil code takes the boost.
	if got[0].Title != "Kodeks cywilny - ISAP" || got[0].Relevance != 1.0 {
		t.Errorf("expected boosted civil code first, got %+v", got[0])
	}
}
