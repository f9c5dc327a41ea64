package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"bip-digest/internal/domain/entity"
)

// stubFetcher returns canned entries (or an error) per source name.
type stubFetcher struct {
	entries map[string][]entity.Entry
	errs    map[string]error
	calls   []string
}

func (f *stubFetcher) Fetch(_ context.Context, src entity.Source) ([]entity.Entry, error) {
	f.calls = append(f.calls, src.Name)
	if err := f.errs[src.Name]; err != nil {
		return nil, err
	}
	return f.entries[src.Name], nil
}

type stubContentFetcher struct {
	content map[string]string
	err     error
	calls   int
}

func (f *stubContentFetcher) FetchContent(_ context.Context, url string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.content[url], nil
}

func datePtr(t time.Time) *time.Time { return &t }

func TestCollect_OrderingAndDedupe(t *testing.T) {
	older := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC)

	fetcher := &stubFetcher{entries: map[string][]entity.Entry{
		"A": {
			{Title: "Starsze ogłoszenie", URL: "https://a.example.pl/1", Published: datePtr(older)},
			{Title: "Bez daty z A", URL: "https://a.example.pl/2"},
		},
		"B": {
			{Title: "Nowsze ogłoszenie", URL: "https://b.example.pl/1", Published: datePtr(newer)},
			// Same URL as an entry from A: first occurrence wins.
			{Title: "Duplikat", URL: "https://a.example.pl/1", Published: datePtr(newer)},
			{Title: "Bez daty z B", URL: "https://b.example.pl/2"},
		},
	}}

	svc := NewService(nil, fetcher, nil, []entity.Source{
		{Name: "A", ListURL: "https://a.example.pl", MaxEntries: 10},
		{Name: "B", ListURL: "https://b.example.pl", MaxEntries: 10},
	}, time.Second, ContentFetchConfig{})

	entries, stats, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	wantOrder := []string{
		"Nowsze ogłoszenie", // 2025-02-03
		"Starsze ogłoszenie", // 2025-02-01
		"Bez daty z A",       // undated, source order preserved
		"Bez daty z B",
	}
	gotOrder := make([]string, len(entries))
	for i := range entries {
		gotOrder[i] = entries[i].Title
	}
	if diff := cmp.Diff(wantOrder, gotOrder); diff != "" {
		t.Errorf("Collect() entry order mismatch (-want +got):\n%s", diff)
	}

	// The deduplicated entry keeps the first source's attribution.
	if entries[1].SourceName != "A" {
		t.Errorf("entries[1].SourceName = %q, want %q", entries[1].SourceName, "A")
	}
	if stats.Duplicated != 1 {
		t.Errorf("stats.Duplicated = %d, want 1", stats.Duplicated)
	}
	if stats.Undated != 2 {
		t.Errorf("stats.Undated = %d, want 2", stats.Undated)
	}
}

func TestCollect_SourceFailureIsolation(t *testing.T) {
	fetcher := &stubFetcher{
		entries: map[string][]entity.Entry{
			"B": {{Title: "Ogłoszenie", URL: "https://b.example.pl/1"}},
		},
		errs: map[string]error{"A": errors.New("connection refused")},
	}

	svc := NewService(nil, fetcher, nil, []entity.Source{
		{Name: "A", ListURL: "https://a.example.pl", MaxEntries: 10},
		{Name: "B", ListURL: "https://b.example.pl", MaxEntries: 10},
	}, time.Second, ContentFetchConfig{})

	entries, stats, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v, want nil when one source survives", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if stats.Failed != 1 {
		t.Errorf("stats.Failed = %d, want 1", stats.Failed)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("fetcher calls = %v, want both sources attempted", fetcher.calls)
	}
}

func TestCollect_TotalFailure(t *testing.T) {
	fetcher := &stubFetcher{errs: map[string]error{
		"A": errors.New("boom"),
		"B": errors.New("boom"),
	}}

	svc := NewService(nil, fetcher, nil, []entity.Source{
		{Name: "A", ListURL: "https://a.example.pl", MaxEntries: 10},
		{Name: "B", ListURL: "https://b.example.pl", MaxEntries: 10},
	}, time.Second, ContentFetchConfig{})

	_, stats, err := svc.Collect(context.Background())
	if !errors.Is(err, ErrNoEntries) {
		t.Fatalf("Collect() error = %v, want ErrNoEntries", err)
	}
	if stats.Duration <= 0 {
		t.Errorf("stats.Duration = %v, want elapsed time on the error path", stats.Duration)
	}
}

func TestCollect_AllSourcesEmpty(t *testing.T) {
	fetcher := &stubFetcher{}

	svc := NewService(nil, fetcher, nil, []entity.Source{
		{Name: "A", ListURL: "https://a.example.pl", MaxEntries: 10},
	}, time.Second, ContentFetchConfig{})

	_, _, err := svc.Collect(context.Background())
	if !errors.Is(err, ErrNoEntries) {
		t.Fatalf("Collect() error = %v, want ErrNoEntries", err)
	}
}

func TestCollect_NoSources(t *testing.T) {
	svc := NewService(nil, &stubFetcher{}, nil, nil, time.Second, ContentFetchConfig{})

	_, stats, err := svc.Collect(context.Background())
	if !errors.Is(err, entity.ErrNoSources) {
		t.Fatalf("Collect() error = %v, want ErrNoSources", err)
	}
	if stats.Duration <= 0 {
		t.Errorf("stats.Duration = %v, want elapsed time on the error path", stats.Duration)
	}
}

func TestSelectFetcher_FeedExclusive(t *testing.T) {
	rss := &stubFetcher{entries: map[string][]entity.Entry{
		"Feed": {{Title: "Z kanału RSS", URL: "https://f.example.pl/1"}},
	}}
	html := &stubFetcher{entries: map[string][]entity.Entry{
		"Lista": {{Title: "Z listy HTML", URL: "https://l.example.pl/1"}},
	}}

	svc := NewService(rss, html, nil, []entity.Source{
		// Both URLs set: the feed wins and the listing is never touched.
		{Name: "Feed", RSSURL: "https://f.example.pl/rss.xml", ListURL: "https://f.example.pl", MaxEntries: 10},
		{Name: "Lista", ListURL: "https://l.example.pl", MaxEntries: 10},
	}, time.Second, ContentFetchConfig{})

	entries, _, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if got := rss.calls; len(got) != 1 || got[0] != "Feed" {
		t.Errorf("rss fetcher calls = %v, want [Feed]", got)
	}
	if got := html.calls; len(got) != 1 || got[0] != "Lista" {
		t.Errorf("html fetcher calls = %v, want [Lista]", got)
	}
}

func TestCollect_ContentEnhancement(t *testing.T) {
	fetcher := &stubFetcher{entries: map[string][]entity.Entry{
		"A": {
			{Title: "Krótka treść", URL: "https://a.example.pl/1", Content: "za krótkie"},
			{Title: "Długa treść", URL: "https://a.example.pl/2", Content: "to jest wystarczająco długa treść wpisu"},
		},
	}}
	content := &stubContentFetcher{content: map[string]string{
		"https://a.example.pl/1": "pełna treść ogłoszenia pobrana ze strony wpisu",
	}}

	svc := NewService(nil, fetcher, content, []entity.Source{
		{Name: "A", ListURL: "https://a.example.pl", MaxEntries: 10},
	}, time.Second, ContentFetchConfig{Threshold: 20})

	entries, _, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if content.calls != 1 {
		t.Errorf("content fetcher calls = %d, want 1 (long entry skipped)", content.calls)
	}
	if entries[0].Content != "pełna treść ogłoszenia pobrana ze strony wpisu" {
		t.Errorf("entries[0].Content = %q, want fetched content", entries[0].Content)
	}
}

func TestCollect_ContentFetchFailureKeepsScraped(t *testing.T) {
	fetcher := &stubFetcher{entries: map[string][]entity.Entry{
		"A": {{Title: "Wpis", URL: "https://a.example.pl/1", Content: "krótko"}},
	}}
	content := &stubContentFetcher{err: errors.New("HTTP 503")}

	svc := NewService(nil, fetcher, content, []entity.Source{
		{Name: "A", ListURL: "https://a.example.pl", MaxEntries: 10},
	}, time.Second, ContentFetchConfig{Threshold: 100})

	entries, _, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v, want nil when content fetch fails", err)
	}
	if entries[0].Content != "krótko" {
		t.Errorf("entries[0].Content = %q, want the scraped content kept", entries[0].Content)
	}
}

func TestOrderEntries_Stable(t *testing.T) {
	newer := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	entries := []entity.Entry{
		{Title: "u1"},
		{Title: "d-old", Published: datePtr(older)},
		{Title: "u2"},
		{Title: "d-new", Published: datePtr(newer)},
		{Title: "u3"},
	}
	orderEntries(entries)

	want := []string{"d-new", "d-old", "u1", "u2", "u3"}
	got := make([]string, len(entries))
	for i := range entries {
		got[i] = entries[i].Title
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("orderEntries() mismatch (-want +got):\n%s", diff)
	}
}
