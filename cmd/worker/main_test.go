package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bip-digest/internal/domain/entity"
	"bip-digest/internal/usecase/compose"
)

func TestWritePayloadFallback(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "articles")
	published := time.Date(2026, 2, 11, 14, 42, 0, 0, time.UTC)
	payload := compose.BuildPayload([]entity.Entry{
		{
			Title:      "Przetarg na remont ulicy",
			URL:        "https://bip.example.pl/ogloszenia/123",
			Published:  &published,
			SourceName: "Gmina",
		},
	}, "")

	path, err := writePayloadFallback(dir, payload)
	if err != nil {
		t.Fatalf("writePayloadFallback() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("fallback path = %q, want inside %q", path, dir)
	}
	if !strings.HasSuffix(path, ".entries.json") {
		t.Errorf("fallback path = %q, want .entries.json suffix", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fallback file: %v", err)
	}
	var got compose.Payload
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("fallback file is not valid payload JSON: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].URL != "https://bip.example.pl/ogloszenia/123" {
		t.Errorf("fallback entries = %+v, want the aggregated entry preserved", got.Entries)
	}
}

func TestWriteArticle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "articles")

	path, err := writeArticle(dir, "<h1>Nowe ogłoszenia</h1>")
	if err != nil {
		t.Fatalf("writeArticle() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read article file: %v", err)
	}
	if string(data) != "<h1>Nowe ogłoszenia</h1>" {
		t.Errorf("article content = %q", string(data))
	}
	if !strings.HasPrefix(filepath.Base(path), "artykul_") {
		t.Errorf("article file = %q, want artykul_ prefix", filepath.Base(path))
	}
}
