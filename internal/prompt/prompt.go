// Package prompt builds the system instructions sent with every Gemini
// request. The instructions pin the assistant persona, the literal current
// date, and the anti-hallucination rules; everything here is deterministic
// string construction.
package prompt

import (
	"fmt"
	"time"
)

// Mode selects which persona the system instruction carries.
type Mode string

const (
	// ModeChat is the conversational senior-partner persona.
	ModeChat Mode = "chat"
	// ModeAnalysis is the document-audit persona.
	ModeAnalysis Mode = "analysis"
)

const chatInstruction = `Jesteś Stefan, Starszy Partner w kancelarii. Data: %s.
CEL: Udzielanie precyzyjnych informacji o polskim prawie.
ZASADY KRYTYCZNE:
1. Temperatura 0.0 - Zakaz wymyślania przepisów.
2. Jeśli nie znasz treści artykułu, napisz "Należy zweryfikować w ustawie". Nie cytuj z pamięci.
3. Odpowiedzi muszą być zgodne ze stanem prawnym na rok %d.
4. Zawsze dodaj: "⚠️ To nie jest porada prawna."`

const analysisInstruction = `Jesteś Stefan, audytor prawny. Data: %s.
CEL: Bezwzględna weryfikacja dokumentu pod kątem ryzyk.
ZASADY:
- Zero inwencji twórczej. Opieraj się TYLKO na dostarczonym tekście.
- Jeśli dokument nie ma daty/podpisu -> zgłoś to jako błąd.
- Ryzyka oznaczaj ikoną ⚠️.`

// Build returns the system instruction for the given mode, embedding the
// Polish-localized date. Unknown modes fall back to chat.
func Build(mode Mode, now time.Time) string {
	date := FormatDate(now)
	if mode == ModeAnalysis {
		return fmt.Sprintf(analysisInstruction, date)
	}
	return fmt.Sprintf(chatInstruction, date, now.Year())
}

// polishMonths holds genitive month names, the form Polish dates use.
var polishMonths = [12]string{
	"stycznia", "lutego", "marca", "kwietnia", "maja", "czerwca",
	"lipca", "sierpnia", "września", "października", "listopada", "grudnia",
}

// FormatDate renders t as a long Polish date, e.g. "17 marca 2026".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), polishMonths[t.Month()-1], t.Year())
}
