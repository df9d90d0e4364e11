package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mimo/internal/app"
	"github.com/desertthunder/mimo/internal/models"
	"github.com/desertthunder/mimo/internal/services"
	"github.com/desertthunder/mimo/internal/shared"
	mt "github.com/desertthunder/mimo/internal/testing"
)

func quietLogger() *log.Logger {
	l := shared.NewLogger(nil)
	l.SetLevel(log.FatalLevel)
	return l
}

func newTestCore(t *testing.T, providers ...services.Provider) *app.App {
	t.Helper()
	cfg := shared.DefaultConfig()
	cfg.Cache.Driver = shared.CacheDriverMemory
	cfg.Database.Path = filepath.Join(t.TempDir(), "unused.db")

	if len(providers) == 0 {
		providers = []services.Provider{
			mt.NewMockProvider(models.SourceLicensed, mt.MockTracks(models.SourceLicensed, 3)),
			mt.NewMockProvider(models.SourceCommunity, mt.MockTracks(models.SourceCommunity, 2)),
		}
	}

	a, err := app.New(context.Background(), cfg, app.WithLogger(quietLogger()), app.WithProviders(providers...))
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func newTestServer(t *testing.T, core Core) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer("", core, quietLogger()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func trackJSON(t *testing.T, track models.Track) string {
	t.Helper()
	b, err := json.Marshal(track)
	if err != nil {
		t.Fatalf("failed to marshal track: %v", err)
	}
	return string(b)
}

func TestAPIHandler(t *testing.T) {
	srv := newTestServer(t, newTestCore(t))

	t.Run("health", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, srv.URL+"/health", "")
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
			t.Errorf("unexpected health response %d %s", resp.StatusCode, body)
		}
		if resp.Header.Get(RequestIDHeader) == "" {
			t.Error("expected request id header")
		}
	})

	t.Run("search", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, srv.URL+"/api/search?q=lofi", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
		}

		var result models.SearchResult
		if err := json.Unmarshal(body, &result); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(result.Licensed) != 3 || len(result.Community) != 2 {
			t.Errorf("expected 3/2, got %d/%d", len(result.Licensed), len(result.Community))
		}
		if !bytes.Contains(body, []byte(`"artworkUrl":null`)) {
			t.Error("expected null artwork to be rendered")
		}
	})

	t.Run("search without query", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, srv.URL+"/api/search", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}

		var e ErrorBody
		if err := json.Unmarshal(body, &e); err != nil || e.Error.Message == "" {
			t.Errorf("expected error envelope, got %s", body)
		}
	})

	t.Run("trending", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, srv.URL+"/api/trending?limit=4", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var tr TrendingResponse
		json.Unmarshal(body, &tr)
		if len(tr.Results) != 4 {
			t.Errorf("expected 4 results, got %d", len(tr.Results))
		}
	})

	t.Run("trending bad limit", func(t *testing.T) {
		if resp, _ := do(t, http.MethodGet, srv.URL+"/api/trending?limit=abc", ""); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, _ := do(t, http.MethodPost, srv.URL+"/api/search?q=x", "")
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
		if resp.Header.Get("Allow") != http.MethodGet {
			t.Errorf("expected Allow: GET, got %q", resp.Header.Get("Allow"))
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		if resp, _ := do(t, http.MethodGet, srv.URL+"/api/nope", ""); resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestPlayerRoutes(t *testing.T) {
	srv := newTestServer(t, newTestCore(t))
	tracks := mt.MockTracks(models.SourceLicensed, 3)

	state := func(resp *http.Response, body []byte) models.QueueState {
		t.Helper()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
		}
		var s models.QueueState
		if err := json.Unmarshal(body, &s); err != nil {
			t.Fatalf("failed to decode state: %v", err)
		}
		return s
	}

	s := state(do(t, http.MethodGet, srv.URL+"/api/player", ""))
	if s.Status != models.StatusIdle {
		t.Fatalf("expected idle, got %s", s.Status)
	}

	s = state(do(t, http.MethodPost, srv.URL+"/api/player/play", trackJSON(t, tracks[0])))
	if !s.IsPlaying || s.CurrentTrack.ID != tracks[0].ID {
		t.Errorf("expected playing %s, got %+v", tracks[0].ID, s)
	}

	queue, _ := json.Marshal(QueueRequest{Tracks: tracks[1:]})
	s = state(do(t, http.MethodPost, srv.URL+"/api/player/queue", string(queue)))
	if len(s.Upcoming) != 2 {
		t.Errorf("expected 2 upcoming, got %d", len(s.Upcoming))
	}

	s = state(do(t, http.MethodPost, srv.URL+"/api/player/toggle", ""))
	if s.Status != models.StatusPaused {
		t.Errorf("expected paused, got %s", s.Status)
	}
	s = state(do(t, http.MethodPost, srv.URL+"/api/player/resume", ""))
	if s.Status != models.StatusPlaying {
		t.Errorf("expected playing, got %s", s.Status)
	}
	s = state(do(t, http.MethodPost, srv.URL+"/api/player/pause", ""))
	if s.Status != models.StatusPaused {
		t.Errorf("expected paused, got %s", s.Status)
	}

	s = state(do(t, http.MethodPost, srv.URL+"/api/player/next", ""))
	if s.CurrentTrack.ID != tracks[1].ID {
		t.Errorf("expected %s, got %s", tracks[1].ID, s.CurrentTrack.ID)
	}
	s = state(do(t, http.MethodPost, srv.URL+"/api/player/previous", ""))
	if s.CurrentTrack.ID != tracks[2].ID {
		t.Errorf("expected %s, got %s", tracks[2].ID, s.CurrentTrack.ID)
	}

	s = state(do(t, http.MethodPost, srv.URL+"/api/player/enqueue", trackJSON(t, tracks[0])))
	if len(s.Upcoming) != 1 {
		t.Errorf("expected 1 upcoming, got %d", len(s.Upcoming))
	}

	s = state(do(t, http.MethodPost, srv.URL+"/api/player/progress", `{"value": 1.7}`))
	if s.Progress != 1 {
		t.Errorf("expected clamped progress, got %f", s.Progress)
	}
	s = state(do(t, http.MethodPost, srv.URL+"/api/player/volume", `{"value": 0.25}`))
	if s.Volume != 0.25 {
		t.Errorf("expected volume 0.25, got %f", s.Volume)
	}

	t.Run("invalid bodies", func(t *testing.T) {
		tc := []struct {
			name, path, body string
		}{
			{name: "malformed json", path: "/api/player/play", body: `{`},
			{name: "invalid track", path: "/api/player/play", body: `{"id": "x", "source": "licensed"}`},
			{name: "invalid queue track", path: "/api/player/queue", body: `{"tracks": [{"id": "radio_1"}]}`},
			{name: "missing value", path: "/api/player/volume", body: `{}`},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if resp, body := do(t, http.MethodPost, srv.URL+tt.path, tt.body); resp.StatusCode != http.StatusBadRequest {
					t.Errorf("expected 400, got %d: %s", resp.StatusCode, body)
				}
			})
		}
	})

	t.Run("history", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, srv.URL+"/api/history", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var entries []models.HistoryEntry
		json.Unmarshal(body, &entries)
		if len(entries) != 3 || entries[0].Track.ID != tracks[2].ID {
			t.Errorf("unexpected history %v", entries)
		}

		resp, body = do(t, http.MethodGet, srv.URL+"/api/history/stats", "")
		var stats models.HistoryStats
		json.Unmarshal(body, &stats)
		if resp.StatusCode != http.StatusOK || stats.TotalPlays != 3 {
			t.Errorf("unexpected stats %d %+v", resp.StatusCode, stats)
		}
	})
}

func TestErrorMapping(t *testing.T) {
	failing := func(source models.Source) *mt.MockProvider {
		p := mt.NewMockProvider(source, nil)
		p.Err = services.NewProviderError(source, "search", http.StatusForbidden, shared.ErrAPIRequest)
		return p
	}

	srv := newTestServer(t, newTestCore(t, failing(models.SourceLicensed), failing(models.SourceCommunity)))

	resp, body := do(t, http.MethodGet, srv.URL+"/api/search?q=lofi", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	var e ErrorBody
	if err := json.Unmarshal(body, &e); err != nil || e.Error.Message != "all providers failed" {
		t.Errorf("unexpected error body %s", body)
	}
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct{ *httptest.ResponseRecorder }

func (brokenWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriteJSON(t *testing.T) {
	t.Run("unencodable value", func(t *testing.T) {
		var buf bytes.Buffer
		rec := httptest.NewRecorder()
		writeJSON(shared.NewLogger(&buf), rec, http.StatusOK, map[string]any{"c": make(chan int)})

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		var body ErrorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error.Message != "internal server error" {
			t.Errorf("unexpected body %q (%v)", rec.Body.String(), err)
		}
		if !strings.Contains(buf.String(), "failed to encode response") {
			t.Errorf("expected encode failure logged, got %q", buf.String())
		}
	})

	t.Run("write failure is logged", func(t *testing.T) {
		var buf bytes.Buffer
		writeJSON(shared.NewLogger(&buf), brokenWriter{httptest.NewRecorder()}, http.StatusOK, map[string]string{"status": "ok"})

		if !strings.Contains(buf.String(), "failed to write response") {
			t.Errorf("expected write failure logged, got %q", buf.String())
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("RequestID", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
			t.Errorf("expected generated id in context and header, got %q / %q", seen, rec.Header().Get(RequestIDHeader))
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen != "abc-123" {
			t.Errorf("expected incoming id reused, got %q", seen)
		}
	})

	t.Run("Recovery", func(t *testing.T) {
		h := Recovery(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("Logging", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		h := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))
		out := buf.String()
		if !strings.Contains(out, "/brew") || !strings.Contains(out, "418") {
			t.Errorf("expected path and status in log, got %q", out)
		}
	})

	t.Run("order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.HandleFunc(http.MethodGet, "/x", func(w http.ResponseWriter, r *http.Request) {})
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second got %v", order)
		}
	})
}

func TestServerLifecycle(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := NewServer(ln.Addr().String(), newTestCore(t), quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
