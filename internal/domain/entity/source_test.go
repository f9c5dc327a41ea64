package entity

import (
	"errors"
	"testing"
)

func TestSourceValidate(t *testing.T) {
	tests := []struct {
		name    string
		source  Source
		wantErr bool
	}{
		{
			name:    "valid rss source",
			source:  Source{Name: "Powiat", RSSURL: "https://bip.example.pl/rss.xml"},
			wantErr: false,
		},
		{
			name:    "valid html source",
			source:  Source{Name: "Gmina", ListURL: "https://bip.example.pl/rejestr-zmian", ChangeRegistry: true},
			wantErr: false,
		},
		{
			name:    "missing name",
			source:  Source{ListURL: "https://bip.example.pl/"},
			wantErr: true,
		},
		{
			name:    "no urls at all",
			source:  Source{Name: "Gmina"},
			wantErr: true,
		},
		{
			name:    "bad scheme",
			source:  Source{Name: "Gmina", ListURL: "ftp://bip.example.pl/"},
			wantErr: true,
		},
		{
			name:    "negative max entries",
			source:  Source{Name: "Gmina", ListURL: "https://bip.example.pl/", MaxEntries: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSourceValidate_DefaultsMaxEntries(t *testing.T) {
	src := Source{Name: "Gmina", ListURL: "https://bip.example.pl/"}
	if err := src.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if src.MaxEntries != DefaultMaxEntries {
		t.Errorf("MaxEntries = %d, want %d", src.MaxEntries, DefaultMaxEntries)
	}
}

func TestSourceValidate_FieldError(t *testing.T) {
	src := Source{ListURL: "https://bip.example.pl/"}
	err := src.Validate()

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error type = %T, want *ValidationError", err)
	}
	if verr.Field != "name" {
		t.Errorf("ValidationError.Field = %q, want %q", verr.Field, "name")
	}
}

func TestSourceUsesFeed(t *testing.T) {
	// A feed URL wins even when a list URL is also configured.
	src := Source{
		Name:    "Powiat",
		RSSURL:  "https://bip.example.pl/rss.xml",
		ListURL: "https://bip.example.pl/rejestr-zmian",
	}
	if !src.UsesFeed() {
		t.Error("UsesFeed() = false, want true when rss_url is set")
	}

	src.RSSURL = ""
	if src.UsesFeed() {
		t.Error("UsesFeed() = true, want false without rss_url")
	}
}
