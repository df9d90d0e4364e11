package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/mimo/internal/shared"
)

const deezerSearchBody = `{
  "data": [
    {
      "id": 3135556,
      "title": "Harder, Better, Faster, Stronger",
      "duration": 224,
      "preview": "https://cdns-preview.dzcdn.net/stream/3135556.mp3",
      "link": "https://www.deezer.com/track/3135556",
      "artist": {"id": 27, "name": "Daft Punk"},
      "album": {"id": 302127, "title": "Discovery", "cover": "https://api.deezer.com/album/302127/image", "cover_medium": "https://e-cdns-images.dzcdn.net/medium.jpg"}
    },
    {
      "id": 99,
      "title": "No Preview",
      "duration": 10,
      "preview": ""
    }
  ],
  "total": 2
}`

func newDeezerTest(t *testing.T, handler http.HandlerFunc) (*DeezerService, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	svc := NewDeezerService(shared.LicensedConfig{APIKey: "test-key", APIHost: "test-host", BaseURL: server.URL}, nil)
	return svc, &calls
}

func TestDeezerService(t *testing.T) {
	t.Run("NewDeezerService", func(t *testing.T) {
		t.Run("uses defaults", func(t *testing.T) {
			svc := NewDeezerService(shared.LicensedConfig{}, nil)
			if svc.baseURL != defaultDeezerBaseURL {
				t.Errorf("expected baseURL %s, got %s", defaultDeezerBaseURL, svc.baseURL)
			}
			if svc.apiHost != defaultDeezerHost {
				t.Errorf("expected host %s, got %s", defaultDeezerHost, svc.apiHost)
			}
		})

		t.Run("trims trailing slash", func(t *testing.T) {
			svc := NewDeezerService(shared.LicensedConfig{BaseURL: "http://localhost:9000/"}, nil)
			if svc.baseURL != "http://localhost:9000" {
				t.Errorf("unexpected baseURL %s", svc.baseURL)
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		if svc := NewDeezerService(shared.LicensedConfig{}, nil); svc.Name() != "Deezer" {
			t.Errorf("expected name Deezer, got %s", svc.Name())
		}
	})

	t.Run("Search", func(t *testing.T) {
		svc, calls := newDeezerTest(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("expected path /search, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("q") != "daft punk" {
				t.Errorf("expected q=daft punk, got %s", r.URL.Query().Get("q"))
			}
			if r.URL.Query().Get("limit") != "20" {
				t.Errorf("expected limit=20, got %s", r.URL.Query().Get("limit"))
			}
			if r.Header.Get("X-RapidAPI-Key") != "test-key" || r.Header.Get("X-RapidAPI-Host") != "test-host" {
				t.Error("expected RapidAPI headers")
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(deezerSearchBody))
		})

		tracks, err := svc.Search(context.Background(), "  daft punk ", 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 playable track, got %d", len(tracks))
		}
		if tracks[0].ID != "licensed_3135556" || tracks[0].Artist != "Daft Punk" {
			t.Errorf("unexpected track %+v", tracks[0])
		}
		if atomic.LoadInt32(calls) != 1 {
			t.Errorf("expected exactly one call, got %d", *calls)
		}
	})

	t.Run("Search skips malformed records", func(t *testing.T) {
		svc, _ := newDeezerTest(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": [
				{"id": 1, "title": "Bad", "duration": "n/a", "preview": "https://x.test/1.mp3"},
				{"id": 2, "title": "Good", "duration": 90, "preview": "https://x.test/2.mp3", "artist": {"id": 5, "name": "Someone"}},
				"not an object",
				{"id": 3, "title": "Also Good", "duration": 120, "preview": "https://x.test/3.mp3"}
			]}`))
		})

		tracks, err := svc.Search(context.Background(), "mixed", 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].ID != "licensed_2" || tracks[1].ID != "licensed_3" {
			t.Errorf("unexpected order %s, %s", tracks[0].ID, tracks[1].ID)
		}
	})

	t.Run("Search empty query", func(t *testing.T) {
		svc, calls := newDeezerTest(t, func(w http.ResponseWriter, r *http.Request) {})

		_, err := svc.Search(context.Background(), "   ", 10)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if atomic.LoadInt32(calls) != 0 {
			t.Error("expected no network call")
		}
	})

	t.Run("Trending", func(t *testing.T) {
		svc, _ := newDeezerTest(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chart/0/tracks" {
				t.Errorf("expected path /chart/0/tracks, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("limit") != "50" {
				t.Errorf("expected capped limit=50, got %s", r.URL.Query().Get("limit"))
			}
			w.Write([]byte(deezerSearchBody))
		})

		tracks, err := svc.Trending(context.Background(), 100)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 {
			t.Errorf("expected 1 track, got %d", len(tracks))
		}
	})

	t.Run("Failures", func(t *testing.T) {
		tc := []struct {
			name       string
			handler    http.HandlerFunc
			wantStatus int
			wantErr    error
			retryable  bool
		}{
			{
				name:       "server error",
				handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
				wantStatus: 500,
				wantErr:    shared.ErrAPIRequest,
				retryable:  true,
			},
			{
				name:       "forbidden",
				handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
				wantStatus: 403,
				wantErr:    shared.ErrAPIRequest,
			},
			{
				name:       "malformed body",
				handler:    func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"data": [`)) },
				wantStatus: 200,
				wantErr:    shared.ErrDecode,
			},
			{
				name: "in-body error",
				handler: func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte(`{"error": {"type": "Exception", "message": "Quota limit exceeded", "code": 4}}`))
				},
				wantStatus: 200,
				wantErr:    shared.ErrAPIRequest,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				svc, _ := newDeezerTest(t, tt.handler)

				_, err := svc.Search(context.Background(), "daft punk", 5)
				var pe *ProviderError
				if !errors.As(err, &pe) {
					t.Fatalf("expected ProviderError, got %v", err)
				}
				if pe.UpstreamStatus != tt.wantStatus {
					t.Errorf("expected status %d, got %d", tt.wantStatus, pe.UpstreamStatus)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if pe.Retryable() != tt.retryable {
					t.Errorf("expected retryable %v", tt.retryable)
				}
			})
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer server.Close()

		svc := NewDeezerService(shared.LicensedConfig{BaseURL: server.URL}, &http.Client{Timeout: 50 * time.Millisecond})

		_, err := svc.Trending(context.Background(), 5)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
		var pe *ProviderError
		if !errors.As(err, &pe) || !pe.Retryable() {
			t.Error("expected retryable ProviderError")
		}
	})
}
