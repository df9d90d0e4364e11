package shared

import (
	"errors"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeQuery(t *testing.T) {
	tc := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "basic normalization",
			query: "Daft Punk",
			want:  "daft punk",
		},
		{
			name:  "extra whitespace",
			query: "  Daft   Punk  ",
			want:  "daft punk",
		},
		{
			name:  "mixed case",
			query: "DaFt PuNk",
			want:  "daft punk",
		},
		{
			name:  "tabs and newlines",
			query: "daft\tpunk\n",
			want:  "daft punk",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeQuery(tt.query)
			if got != tt.want {
				t.Errorf("NormalizeQuery() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey("search", "  Lo-Fi  Beats ", 20); got != "search:lo-fi beats:20" {
		t.Errorf("CacheKey() = %s", got)
	}

	if CacheKey("search", "Jazz", 20) != CacheKey("search", "jazz ", 20) {
		t.Error("equivalent queries should share a cache key")
	}

	if CacheKey("search", "jazz", 10) == CacheKey("search", "jazz", 20) {
		t.Error("different limits should not share a cache key")
	}

	if CacheKey("trending", "", 20) != "trending::20" {
		t.Errorf("unexpected trending key %s", CacheKey("trending", "", 20))
	}
}

func TestParseLevel(t *testing.T) {
	tc := []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{in: "", want: log.InfoLevel},
		{in: "debug", want: log.DebugLevel},
		{in: "WARN", want: log.WarnLevel},
		{in: "loud", want: log.InfoLevel, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}
