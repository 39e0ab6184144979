package router

import (
	"strings"
	"testing"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		historyLen int
		want       string
	}{
		{
			name:       "short plain message",
			message:    "Dzień dobry, mam pytanie",
			historyLen: 0,
			want:       ModelFlash,
		},
		{
			name:       "legal term contract",
			message:    "Jaki okres wypowiedzenia przewiduje umowa o pracę?",
			historyLen: 0,
			want:       ModelPro,
		},
		{
			name:       "inflected term does not match",
			message:    "Jaki jest okres wypowiedzenia umowy?",
			historyLen: 0,
			want:       ModelFlash,
		},
		{
			name:       "legal term article reference",
			message:    "Co mówi art. 415?",
			historyLen: 0,
			want:       ModelPro,
		},
		{
			name:       "legal term case-insensitive",
			message:    "KODEKS cywilny a odszkodowanie",
			historyLen: 0,
			want:       ModelPro,
		},
		{
			name:       "long message without legal terms",
			message:    strings.Repeat("witam ", 51),
			historyLen: 0,
			want:       ModelPro,
		},
		{
			name:       "exactly fifty words stays flash",
			message:    strings.Repeat("witam ", 50),
			historyLen: 0,
			want:       ModelFlash,
		},
		{
			name:       "long history",
			message:    "ok",
			historyLen: 11,
			want:       ModelPro,
		},
		{
			name:       "history at threshold stays flash",
			message:    "ok",
			historyLen: 10,
			want:       ModelFlash,
		},
		{
			name:       "empty message",
			message:    "",
			historyLen: 0,
			want:       ModelFlash,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Select(tt.message, tt.historyLen); got != tt.want {
				t.Errorf("Select(%q, %d) = %q, want %q", tt.message, tt.historyLen, got, tt.want)
			}
		})
	}
}

func TestIsComplex_DistinctTiers(t *testing.T) {
	// The two tiers must actually differ, otherwise the heuristic is dead code.
	if ModelPro == ModelFlash {
		t.Fatal("pro and flash tiers must be distinct models")
	}
}
