package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mimo/internal/models"
	"github.com/desertthunder/mimo/internal/shared"
)

const maxBodyBytes = 1 << 20

// Core is the application surface served over HTTP.
type Core interface {
	Search(ctx context.Context, query string) (models.SearchResult, error)
	Trending(ctx context.Context, limit int) ([]models.Track, error)

	State() models.QueueState
	Play(track models.Track) models.QueueState
	Pause() models.QueueState
	Resume() models.QueueState
	TogglePlay() models.QueueState
	Next() models.QueueState
	Previous() models.QueueState
	Enqueue(track models.Track) models.QueueState
	ReplaceQueue(tracks []models.Track) models.QueueState
	SetProgress(f float64) models.QueueState
	SetVolume(f float64) models.QueueState

	History() []models.HistoryEntry
	HistoryStats() models.HistoryStats
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Message string `json:"message"`
}

// TrendingResponse wraps trending tracks.
type TrendingResponse struct {
	Results []models.Track `json:"results"`
}

// QueueRequest is the body of POST /api/player/queue.
type QueueRequest struct {
	Tracks []models.Track `json:"tracks"`
}

// ValueRequest is the body of POST /api/player/progress and /api/player/volume.
type ValueRequest struct {
	Value *float64 `json:"value"`
}

// APIHandler serves the JSON API. It implements [Handler].
type APIHandler struct {
	core   Core
	logger *log.Logger
	router *BasicRouter
}

// NewAPIHandler creates an APIHandler over core.
func NewAPIHandler(core Core, logger *log.Logger) *APIHandler {
	if logger == nil {
		logger = log.Default()
	}

	h := &APIHandler{core: core, logger: logger, router: NewBasicRouter()}

	h.router.HandleFunc(http.MethodGet, "/health", h.health)
	h.router.HandleFunc(http.MethodGet, "/api/search", h.search)
	h.router.HandleFunc(http.MethodGet, "/api/trending", h.trending)

	h.router.HandleFunc(http.MethodGet, "/api/player", h.state)
	h.router.HandleFunc(http.MethodPost, "/api/player/play", h.play)
	h.router.HandleFunc(http.MethodPost, "/api/player/enqueue", h.enqueue)
	h.router.HandleFunc(http.MethodPost, "/api/player/queue", h.replaceQueue)
	h.router.HandleFunc(http.MethodPost, "/api/player/progress", h.setValue(core.SetProgress))
	h.router.HandleFunc(http.MethodPost, "/api/player/volume", h.setValue(core.SetVolume))
	h.router.HandleFunc(http.MethodPost, "/api/player/pause", h.transition(core.Pause))
	h.router.HandleFunc(http.MethodPost, "/api/player/resume", h.transition(core.Resume))
	h.router.HandleFunc(http.MethodPost, "/api/player/toggle", h.transition(core.TogglePlay))
	h.router.HandleFunc(http.MethodPost, "/api/player/next", h.transition(core.Next))
	h.router.HandleFunc(http.MethodPost, "/api/player/previous", h.transition(core.Previous))

	h.router.HandleFunc(http.MethodGet, "/api/history", h.history)
	h.router.HandleFunc(http.MethodGet, "/api/history/stats", h.historyStats)

	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{"/health", "/api/"}
}

// ServeHTTP dispatches to the registered API routes.
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) search(w http.ResponseWriter, r *http.Request) {
	result, err := h.core.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, result)
}

func (h *APIHandler) trending(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.fail(w, r, fmt.Errorf("%w: limit must be a non-negative integer", shared.ErrInvalidArgument))
			return
		}
		limit = n
	}

	tracks, err := h.core.Trending(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, TrendingResponse{Results: tracks})
}

func (h *APIHandler) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, h.core.State())
}

func (h *APIHandler) play(w http.ResponseWriter, r *http.Request) {
	track, ok := h.decodeTrack(w, r)
	if !ok {
		return
	}
	writeJSON(h.logger, w, http.StatusOK, h.core.Play(track))
}

func (h *APIHandler) enqueue(w http.ResponseWriter, r *http.Request) {
	track, ok := h.decodeTrack(w, r)
	if !ok {
		return
	}
	writeJSON(h.logger, w, http.StatusOK, h.core.Enqueue(track))
}

func (h *APIHandler) replaceQueue(w http.ResponseWriter, r *http.Request) {
	var req QueueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	for i, t := range req.Tracks {
		if err := t.Validate(); err != nil {
			h.fail(w, r, fmt.Errorf("%w: tracks[%d]: %v", shared.ErrInvalidInput, i, err))
			return
		}
	}
	writeJSON(h.logger, w, http.StatusOK, h.core.ReplaceQueue(req.Tracks))
}

func (h *APIHandler) setValue(set func(float64) models.QueueState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValueRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		if req.Value == nil {
			h.fail(w, r, fmt.Errorf("%w: value is required", shared.ErrInvalidInput))
			return
		}
		writeJSON(h.logger, w, http.StatusOK, set(*req.Value))
	}
}

func (h *APIHandler) transition(fn func() models.QueueState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(h.logger, w, http.StatusOK, fn())
	}
}

func (h *APIHandler) history(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, h.core.History())
}

func (h *APIHandler) historyStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, h.core.HistoryStats())
}

func (h *APIHandler) decodeTrack(w http.ResponseWriter, r *http.Request) (models.Track, bool) {
	var track models.Track
	if err := decodeJSON(w, r, &track); err != nil {
		h.fail(w, r, err)
		return track, false
	}
	if err := track.Validate(); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return track, false
	}
	return track, true
}

func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "id", RequestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
		message = "internal server error"
	} else {
		h.logger.Warn("request rejected", "id", RequestIDFromContext(r.Context()), "path", r.URL.Path, "status", status, "error", err)
	}
	if status == http.StatusBadGateway {
		message = "all providers failed"
	}
	writeError(h.logger, w, status, message)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrAllProvidersFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// writeJSON encodes v before writing the header, so an unencodable value becomes a 500.
// A nil logger falls back to [log.Default].
func writeJSON(logger *log.Logger, w http.ResponseWriter, status int, v any) {
	if logger == nil {
		logger = log.Default()
	}

	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode response", "type", fmt.Sprintf("%T", v), "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":{"message":"internal server error"}}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Warn("failed to write response", "status", status, "error", err)
	}
}

func writeError(logger *log.Logger, w http.ResponseWriter, status int, message string) {
	writeJSON(logger, w, status, ErrorBody{Error: ErrorDetail{Message: message}})
}
