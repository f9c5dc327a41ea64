package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"bip-digest/internal/domain/entity"
)

// Prompt text is Polish on purpose: the sources, the models (Bielik) and the
// published article are all Polish.
const (
	systemFilter = `Jesteś ekspertem od informacji publicznych (BIP). Twoim zadaniem jest wybór wpisów istotnych dla mieszkańców powiatu (gminy, miasta).
Opieraj się WYŁĄCZNIE na dostarczonym tekście. Nie wymyślaj faktów, dat ani kwot.
Zwracaj uwagę na: uchwały i zarządzenia wpływające na codzienne życie, przetargi i zamówienia publiczne, konsultacje społeczne, obwieszczenia, zmiany w prawie miejscowym.
Pomijaj wewnętrzne procedury, czysto techniczne zmiany i powtórzenia.`

	systemAnalysis = `Jesteś ekspertem od informacji publicznych (BIP). Twoim zadaniem jest wybór informacji istotnych dla mieszkańców powiatu (gminy, miasta).
Opieraj się WYŁĄCZNIE na dostarczonym tekście. Nie wymyślaj faktów, dat ani kwot. Jeśli czegoś nie ma w tekście, nie pisz o tym.
Zwracaj uwagę na: uchwały i zarządzenia wpływające na codzienne życie, przetargi i zamówienia publiczne, konsultacje społeczne, obwieszczenia, zmiany w prawie miejscowym.
Pomijaj wewnętrzne procedury, czysto techniczne zmiany i powtórzenia.`

	systemExtraction = `Jesteś analitykiem danych. Twoim zadaniem jest wyciągnięcie suchych faktów z tekstu w formacie JSON.
Nie interpretuj przedwcześnie, nie pisz esejów. Interesują nas:
- Daty (terminy składania ofert, spotkań, wydarzeń)
- Kwoty (budżet, cena, wadium)
- Numery (działek, uchwał, dróg)
- Cel/Temat (np. sprzedaż działki, remont drogi, sesja rady)
Jeśli tekst to błąd OCR lub bełkot -> POMIŃ CAŁKOWICIE.`

	systemArticle = `Jesteś rzetelnym dziennikarzem lokalnym. Piszesz artykuł na podstawie dostarczonej analizy.
Twoim priorytetem jest prawda i konkret. Nie dodawaj "upiększaczy" ani zmyślonych opinii mieszkańców.
Opieraj się na faktach z analizy (daty, nazwy, kwoty). Styl: informacyjny, prosty, zrozumiały.`
)

const (
	maxTitleLen   = 120
	maxSummaryLen = 200
)

// buildFilterPrompt asks the model which of the numbered entries matter to
// residents, answered as a bare JSON array of their numbers.
func buildFilterPrompt(entries []entity.Entry, instruction string) string {
	var b strings.Builder
	b.WriteString("Poniżej ponumerowana lista wpisów z rejestrów zmian kilku BIP-ów.\n\n")
	b.WriteString("Wybierz wpisy ważne dla mieszkańców (np. inwestycje, podatki, utrudnienia, ważne terminy). ")
	b.WriteString("Techniczne zmiany w BIP bez znaczenia dla ogółu POMIŃ.\n")
	if instruction != "" {
		b.WriteString("\nDodatkowa instrukcja: ")
		b.WriteString(instruction)
		b.WriteString("\n")
	}
	b.WriteString("\n---\n")
	b.WriteString(entriesToText(entries))
	b.WriteString("---\n")
	b.WriteString("Odpowiedz TYLKO tablicą JSON z numerami wybranych wpisów, bez markdowna i bez komentarza, np. [1, 3].\n")
	b.WriteString("Jeśli żaden wpis nie jest istotny, odpowiedz [].")
	return b.String()
}

// buildAnalysisPrompt asks for a bullet-point analysis of one batch.
func buildAnalysisPrompt(entries []entity.Entry, instruction string) string {
	var b strings.Builder
	b.WriteString("Poniżej lista wpisów z rejestrów zmian kilku BIP-ów.\n\n")
	b.WriteString("Przeanalizuj dokładnie tytuły oraz treść wpisów. Wybierz te, które są ważne dla mieszkańców (np. inwestycje, podatki, utrudnienia, ważne terminy).\n\n")
	b.WriteString("Dla każdego wybranego wpisu podaj:\n")
	b.WriteString("1. Konkretny tytuł/temat (np. \"Przetarg na remont ulicy X\", \"Konsultacje w sprawie Y\").\n")
	b.WriteString("2. Kluczowe szczegóły (np. termin składania ofert, kwota, data spotkania, numer działki).\n")
	b.WriteString("3. Dlaczego to ważne dla mieszkańca.\n\n")
	b.WriteString("Jeśli wpis jest techniczną zmianą w BIP bez znaczenia dla ogółu -> POMIŃ GO.\n")
	if instruction != "" {
		b.WriteString("\nDodatkowa instrukcja: ")
		b.WriteString(instruction)
		b.WriteString("\n")
	}
	b.WriteString("\n---\n")
	b.WriteString(entriesToText(entries))
	b.WriteString("---\n")
	b.WriteString("Odpowiedz w formie listy punktowanej. Pisz zwięźle i konkretnie. Nie halucynuj.")
	return b.String()
}

// buildExtractionPrompt asks a lighter model for dry facts as JSON objects.
func buildExtractionPrompt(entries []entity.Entry) string {
	var b strings.Builder
	b.WriteString("Przeanalizuj poniższe wpisy BIP.\n")
	b.WriteString("Dla każdego wpisu, który zawiera konkretne informacje (inwestycje, prawo, finanse), wygeneruj obiekt JSON w liście.\n\n")
	b.WriteString("Format wyjściowy (tylko JSON, bez markdowna):\n")
	b.WriteString(`[
  {
    "tytul": "Skrócony tytuł",
    "fakt": "Krótki opis co się dzieje (np. Przetarg na X)",
    "szczegoly": "Kluczowe dane: 200 tys. zł, działka 123/4, termin do 15.05",
    "zrodlo": "Nazwa źródła",
    "url": "Pełny link do wpisu (przepisany z wejścia)"
  }
]`)
	b.WriteString("\n\nJeśli wpis jest nieistotny lub błędem OCR -> nie dodawaj go do listy.\n\nWPISY:\n")
	b.WriteString(entriesToText(entries))
	return b.String()
}

// buildArticlePrompt asks the writer model for the final article HTML.
func buildArticlePrompt(analysis, instruction string) string {
	var b strings.Builder
	b.WriteString("Na podstawie poniższej analizy wpisów z BIP przygotuj artykuł do publikacji.\n\n")
	b.WriteString("Struktura:\n")
	b.WriteString("1. Chwytliwy, ale prawdziwy tytuł.\n")
	b.WriteString("2. Lead (wstęp) streszczający najważniejsze newsy (maks 3-4 zdania).\n")
	b.WriteString("3. Rozwinięcie:\n")
	b.WriteString("   - Opisz kolejne tematy, grupując je logicznie (np. \"Inwestycje i przetargi\", \"Sprawy urzędowe\").\n")
	b.WriteString("   - Używaj konkretów (daty, numery działek, nazwy ulic) jeśli były w analizie.\n")
	b.WriteString("   - Przy każdym temacie dodaj link \"Zobacz w BIP\" kierujący do źródła (jeśli URL jest dostępny w analizie).\n")
	b.WriteString("4. Zakończenie: Link do źródeł (ogólne odesłanie do BIP).\n\n")
	b.WriteString("Format HTML (używaj <h3> dla nagłówków sekcji, <p> dla treści, <ul>/<li> dla wyliczeń, <a href=\"...\"> dla linków).\n")
	if instruction != "" {
		b.WriteString("\nDodatkowa instrukcja: ")
		b.WriteString(instruction)
		b.WriteString("\n")
	}
	b.WriteString("\n---\nANALIZA WPISÓW:\n")
	b.WriteString(analysis)
	b.WriteString("\n---\nGeneruj artykuł.")
	return b.String()
}

// entriesToText renders entries as a numbered, human-readable list for the
// model. Numbering starts at 1 within the given slice.
func entriesToText(entries []entity.Entry) string {
	var b strings.Builder
	for i, e := range entries {
		title := truncateText(e.Title, maxTitleLen)
		fmt.Fprintf(&b, "%d. [%s]\n   Źródło: %s\n   URL: %s\n", i+1, title, e.SourceName, e.URL)
		if e.Published != nil {
			fmt.Fprintf(&b, "   Data: %s\n", e.Published.Format("2006-01-02 15:04"))
		}
		if e.Summary != "" {
			fmt.Fprintf(&b, "   Skrót: %s\n", truncateText(e.Summary, maxSummaryLen))
		}
		if e.Content != "" && e.Content != e.Summary {
			fmt.Fprintf(&b, "   Treść: %s\n", truncateText(collapseWhitespace(e.Content), 800))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// parseKeptNumbers extracts the JSON number array from a filter response.
// Models wrap answers in fences or prose more often than not, so everything
// between the first '[' and the last ']' is taken. The second return value
// is false when no parseable array was found.
func parseKeptNumbers(response string) ([]int, bool) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end < start {
		return nil, false
	}

	var numbers []int
	if err := json.Unmarshal([]byte(response[start:end+1]), &numbers); err != nil {
		// Some models emit floats; retry via json.Number.
		var raw []json.Number
		if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
			return nil, false
		}
		for _, n := range raw {
			f, err := n.Float64()
			if err != nil {
				return nil, false
			}
			numbers = append(numbers, int(f))
		}
	}
	return numbers, true
}

// chunkEntries splits entries into batches of at most size.
func chunkEntries(entries []entity.Entry, size int) [][]entity.Entry {
	if size <= 0 {
		return [][]entity.Entry{entries}
	}
	var batches [][]entity.Entry
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		batches = append(batches, entries[start:end])
	}
	return batches
}

func truncateText(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
