package compose

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bip-digest/internal/domain/entity"
)

type stubAgent struct {
	kept        []entity.Entry
	filterErr   error
	article     string
	draftErr    error
	draftedWith []entity.Entry
}

func (a *stubAgent) Filter(_ context.Context, entries []entity.Entry, _ string) ([]entity.Entry, error) {
	if a.filterErr != nil {
		return nil, a.filterErr
	}
	if a.kept == nil {
		return entries, nil
	}
	return a.kept, nil
}

func (a *stubAgent) Draft(_ context.Context, entries []entity.Entry, _ string) (string, error) {
	a.draftedWith = entries
	if a.draftErr != nil {
		return "", a.draftErr
	}
	return a.article, nil
}

type stubRemote struct {
	article string
	err     error
	payload Payload
}

func (r *stubRemote) Process(_ context.Context, payload Payload) (string, error) {
	r.payload = payload
	return r.article, r.err
}

func sampleEntries() []entity.Entry {
	published := time.Date(2026, 2, 11, 14, 42, 0, 0, time.UTC)
	return []entity.Entry{
		{Title: "Przetarg na remont drogi", URL: "https://bip.example.pl/1", Published: &published, SourceName: "Gmina"},
		{Title: "Zmiana regulaminu organizacyjnego", URL: "https://bip.example.pl/2", SourceName: "Gmina"},
	}
}

func TestArticle_FilterThenDraft(t *testing.T) {
	entries := sampleEntries()
	agent := &stubAgent{kept: entries[:1], article: "<h3>Remont drogi</h3>"}
	svc := NewService(agent, nil, "")

	article, err := svc.Article(context.Background(), entries)
	if err != nil {
		t.Fatalf("Article() error = %v", err)
	}
	if article != "<h3>Remont drogi</h3>" {
		t.Errorf("article = %q", article)
	}
	if len(agent.draftedWith) != 1 || agent.draftedWith[0].URL != "https://bip.example.pl/1" {
		t.Errorf("Draft received %+v, want only the filtered entry", agent.draftedWith)
	}
}

func TestArticle_NothingRelevant(t *testing.T) {
	agent := &stubAgent{kept: []entity.Entry{}}
	svc := NewService(agent, nil, "")

	_, err := svc.Article(context.Background(), sampleEntries())
	if !errors.Is(err, ErrNothingRelevant) {
		t.Fatalf("Article() error = %v, want ErrNothingRelevant", err)
	}
}

func TestArticle_FilterFailure(t *testing.T) {
	agent := &stubAgent{filterErr: errors.New("connection refused")}
	svc := NewService(agent, nil, "")

	_, err := svc.Article(context.Background(), sampleEntries())
	if err == nil || !strings.Contains(err.Error(), "filter entries") {
		t.Fatalf("Article() error = %v, want wrapped filter error", err)
	}
}

func TestArticle_RemoteTakesPrecedence(t *testing.T) {
	agent := &stubAgent{article: "local"}
	remote := &stubRemote{article: "remote article"}
	svc := NewService(agent, remote, "własna instrukcja")

	article, err := svc.Article(context.Background(), sampleEntries())
	if err != nil {
		t.Fatalf("Article() error = %v", err)
	}
	if article != "remote article" {
		t.Errorf("article = %q, want the remote result", article)
	}
	if remote.payload.Instruction != "własna instrukcja" {
		t.Errorf("payload.Instruction = %q", remote.payload.Instruction)
	}
	if len(remote.payload.Entries) != 2 {
		t.Errorf("payload.Entries = %d, want 2", len(remote.payload.Entries))
	}
}

func TestArticle_NoAgent(t *testing.T) {
	svc := NewService(nil, nil, "")
	_, err := svc.Article(context.Background(), sampleEntries())
	if !errors.Is(err, ErrNoAgent) {
		t.Fatalf("Article() error = %v, want ErrNoAgent", err)
	}
}

func TestBuildPayload_DefaultInstruction(t *testing.T) {
	p := BuildPayload(sampleEntries(), "")
	if p.Instruction != DefaultInstruction {
		t.Errorf("Instruction = %q, want default", p.Instruction)
	}
}

func TestPayloadEncode(t *testing.T) {
	p := BuildPayload(sampleEntries(), "instrukcja")
	data, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got := string(data)

	if !strings.Contains(got, `"published": "2026-02-11T14:42:00Z"`) {
		t.Errorf("encoded payload missing RFC3339 published:\n%s", got)
	}
	if !strings.Contains(got, `"published": null`) {
		t.Errorf("encoded payload missing null published for undated entry:\n%s", got)
	}
	// HTML escaping is off: URLs and Polish text stay literal.
	if strings.Contains(got, `<`) || strings.Contains(got, `&`) {
		t.Errorf("encoded payload is HTML-escaped:\n%s", got)
	}
}
