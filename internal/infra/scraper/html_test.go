package scraper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bip-digest/internal/domain/entity"
	"bip-digest/internal/infra/scraper"
)

func newHTMLServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(html)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
}

func TestHTMLFetcher_RegistryTable(t *testing.T) {
	html := `<!DOCTYPE html>
<html><body>
<table>
  <tr><th>Zmieniono</th><th>Tytuł</th><th>Użytkownik</th></tr>
  <tr>
    <td>śr., 11/02/2026 - 14:42</td>
    <td><a href="/ogloszenia/123">Przetarg na remont ulicy Słowackiego</a></td>
    <td>admin</td>
  </tr>
  <tr>
    <td>10 lut 2026, 12:34</td>
    <td><a href="/ogloszenia/124">Obwieszczenie o konsultacjach społecznych</a></td>
    <td>redaktor</td>
  </tr>
  <tr>
    <td></td>
    <td><a href="javascript:void(0)">Pokaż więcej wpisów rejestru</a></td>
    <td></td>
  </tr>
</table>
</body></html>`
	server := newHTMLServer(t, html)
	defer server.Close()

	fetcher := scraper.NewHTMLFetcher(&http.Client{Timeout: 10 * time.Second}, "")
	src := entity.Source{Name: "Powiat", ListURL: server.URL + "/rejestr-zmian", ChangeRegistry: true, MaxEntries: 25}

	entries, err := fetcher.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	if entries[0].Title != "Przetarg na remont ulicy Słowackiego" {
		t.Errorf("entries[0].Title = %q", entries[0].Title)
	}
	wantURL := server.URL + "/ogloszenia/123"
	if entries[0].URL != wantURL {
		t.Errorf("entries[0].URL = %q, want %q", entries[0].URL, wantURL)
	}
	if entries[0].Published == nil {
		t.Fatal("entries[0].Published = nil, want parsed date")
	}
	want := time.Date(2026, 2, 11, 14, 42, 0, 0, time.Local)
	if !entries[0].Published.Equal(want) {
		t.Errorf("entries[0].Published = %v, want %v", *entries[0].Published, want)
	}

	if entries[1].Published == nil {
		t.Error("entries[1].Published = nil, want parsed date")
	}
}

func TestHTMLFetcher_RegistryTableNumericColumn(t *testing.T) {
	// An "Informacja" ID column before the date column: the bare number
	// must not be mistaken for a date.
	html := `<!DOCTYPE html>
<html><body>
<table>
  <tr><th>Lp.</th><th>Tytuł</th><th>Zmieniono</th></tr>
  <tr>
    <td>2751</td>
    <td><a href="/ogloszenia/2751">Zarządzenie w sprawie konsultacji budżetowych</a></td>
    <td>11/02/2026 14:42</td>
  </tr>
  <tr>
    <td>2752</td>
    <td><a href="/ogloszenia/2752">Obwieszczenie o wszczęciu postępowania</a></td>
    <td></td>
  </tr>
</table>
</body></html>`
	server := newHTMLServer(t, html)
	defer server.Close()

	fetcher := scraper.NewHTMLFetcher(&http.Client{Timeout: 10 * time.Second}, "")
	src := entity.Source{Name: "Gmina", ListURL: server.URL + "/rejestr-zmian", ChangeRegistry: true, MaxEntries: 25}

	entries, err := fetcher.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	if entries[0].Published == nil {
		t.Fatal("entries[0].Published = nil, want the date column parsed")
	}
	want := time.Date(2026, 2, 11, 14, 42, 0, 0, time.Local)
	if !entries[0].Published.Equal(want) {
		t.Errorf("entries[0].Published = %v, want %v (not derived from the ID cell)", *entries[0].Published, want)
	}
	if entries[1].Published != nil {
		t.Errorf("entries[1].Published = %v, want nil for a row with only an ID", *entries[1].Published)
	}
}

func TestHTMLFetcher_RecentBlocks(t *testing.T) {
	html := `<!DOCTYPE html>
<html><body>
<div class="view-content">
  <div class="views-row">
    <h3><a href="/aktualnosci/77">Nabór wniosków o dotacje dla klubów sportowych</a></h3>
    <span class="date">10 lut 2026, 12:34</span>
  </div>
  <div class="views-row">
    <h3><a href="/aktualnosci/78">Sesja rady powiatu w sprawie budżetu</a></h3>
  </div>
</div>
</body></html>`
	server := newHTMLServer(t, html)
	defer server.Close()

	fetcher := scraper.NewHTMLFetcher(&http.Client{Timeout: 10 * time.Second}, "")
	src := entity.Source{Name: "Dziwnów", ListURL: server.URL, ChangeRegistry: true, MaxEntries: 25}

	entries, err := fetcher.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Published == nil {
		t.Error("entries[0].Published = nil, want date from block text")
	}
	if entries[1].Published != nil {
		t.Errorf("entries[1].Published = %v, want nil for undated block", *entries[1].Published)
	}
}

func TestHTMLFetcher_PlainListing(t *testing.T) {
	html := `<!DOCTYPE html>
<html><body>
<ul class="lista-ogloszen">
  <li><a href="/ogloszenia/1">Komunikat o przerwie w dostawie wody</a></li>
  <li><a href="/ogloszenia/2">Zarządzenie Burmistrza nr 15/2026</a></li>
  <li><a href="#top">↑</a></li>
  <li><a href="/strona/2">2</a></li>
</ul>
</body></html>`
	server := newHTMLServer(t, html)
	defer server.Close()

	fetcher := scraper.NewHTMLFetcher(&http.Client{Timeout: 10 * time.Second}, "")
	src := entity.Source{Name: "Wolin", ListURL: server.URL, MaxEntries: 10}

	entries, err := fetcher.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (boilerplate links skipped)", len(entries))
	}
	for _, e := range entries {
		if e.Published != nil {
			t.Errorf("entry %q Published = %v, want nil on plain listing", e.Title, *e.Published)
		}
	}
}

func TestHTMLFetcher_MainContentFallback(t *testing.T) {
	html := `<!DOCTYPE html>
<html><body>
<nav><a href="/rejestr-zmian">Rejestr zmian biuletynu</a></nav>
<main>
  <p><a href="/uchwaly/2026/9">Uchwała w sprawie podatku od nieruchomości</a></p>
  <p><a href="/mapa">Mapa</a></p>
</main>
</body></html>`
	server := newHTMLServer(t, html)
	defer server.Close()

	fetcher := scraper.NewHTMLFetcher(&http.Client{Timeout: 10 * time.Second}, "")
	src := entity.Source{Name: "Kamień", ListURL: server.URL, ChangeRegistry: true, MaxEntries: 25}

	entries, err := fetcher.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Title != "Uchwała w sprawie podatku od nieruchomości" {
		t.Errorf("entries[0].Title = %q", entries[0].Title)
	}
}

func TestHTMLFetcher_MaxEntriesCap(t *testing.T) {
	html := `<!DOCTYPE html>
<html><body><ul>
  <li><a href="/o/1">Ogłoszenie pierwsze w wykazie</a></li>
  <li><a href="/o/2">Ogłoszenie drugie w wykazie</a></li>
  <li><a href="/o/3">Ogłoszenie trzecie w wykazie</a></li>
</ul></body></html>`
	server := newHTMLServer(t, html)
	defer server.Close()

	fetcher := scraper.NewHTMLFetcher(&http.Client{Timeout: 10 * time.Second}, "")
	src := entity.Source{Name: "Wolin", ListURL: server.URL, MaxEntries: 2}

	entries, err := fetcher.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2 (max_entries cap)", len(entries))
	}
}

func TestHTMLFetcher_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := scraper.NewHTMLFetcher(&http.Client{Timeout: 10 * time.Second}, "")
	src := entity.Source{Name: "Powiat", ListURL: server.URL, ChangeRegistry: true, MaxEntries: 10}

	if _, err := fetcher.Fetch(context.Background(), src); err == nil {
		t.Fatal("Fetch() error = nil, want error on HTTP 500")
	}
}

func TestHTMLFetcher_EmptyRegistry(t *testing.T) {
	server := newHTMLServer(t, `<!DOCTYPE html><html><body><main><p>Brak wpisów.</p></main></body></html>`)
	defer server.Close()

	fetcher := scraper.NewHTMLFetcher(&http.Client{Timeout: 10 * time.Second}, "")
	src := entity.Source{Name: "Powiat", ListURL: server.URL, ChangeRegistry: true, MaxEntries: 10}

	entries, err := fetcher.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch() error = %v, want nil for an empty registry", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}
