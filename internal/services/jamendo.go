// Jamendo [Provider] implementation
//
// Calls the public Jamendo v3 API, authenticated by client_id.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/mimo/internal/models"
	"github.com/desertthunder/mimo/internal/shared"
)

const defaultJamendoBaseURL = "https://api.jamendo.com/v3.0"

type jamendoHeaders struct {
	Status       string `json:"status"`
	Code         int    `json:"code"`
	ErrorMessage string `json:"error_message"`
	ResultsCount int    `json:"results_count"`
}

type jamendoResponse struct {
	Headers *jamendoHeaders   `json:"headers"`
	Results []json.RawMessage `json:"results"`
}

// JamendoService implements [Provider] for the community Jamendo catalog.
type JamendoService struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// NewJamendoService creates a Jamendo provider.
//
// A nil client gets a client with [DefaultTimeout].
func NewJamendoService(cfg shared.CommunityConfig, client *http.Client) *JamendoService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultJamendoBaseURL
	}

	return &JamendoService{
		baseURL:    baseURL,
		clientID:   cfg.ClientID,
		httpClient: newHTTPClient(client, DefaultTimeout),
	}
}

// Name returns the service name.
func (j *JamendoService) Name() string {
	return "Jamendo"
}

// Source returns [models.SourceCommunity].
func (j *JamendoService) Source() models.Source {
	return models.SourceCommunity
}

// Search calls GET /tracks/ with a search term.
func (j *JamendoService) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewProviderError(j.Source(), "search", 0, shared.ErrInvalidInput)
	}

	limit = NormalizeLimit(limit)
	params := j.params(limit)
	params.Set("search", query)

	return j.fetch(ctx, "search", params, limit)
}

// Trending calls GET /tracks/ ordered by total popularity.
func (j *JamendoService) Trending(ctx context.Context, limit int) ([]models.Track, error) {
	limit = NormalizeLimit(limit)
	params := j.params(limit)
	params.Set("boost", "popularity_total")

	return j.fetch(ctx, "trending", params, limit)
}

func (j *JamendoService) params(limit int) url.Values {
	params := url.Values{}
	params.Set("client_id", j.clientID)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("include", "musicinfo")
	return params
}

func (j *JamendoService) fetch(ctx context.Context, op string, params url.Values, limit int) ([]models.Track, error) {
	apiURL := j.baseURL + "/tracks/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, NewProviderError(j.Source(), op, 0, fmt.Errorf("%w: failed to create request: %w", shared.ErrAPIRequest, err))
	}
	req.Header.Set("Accept", "application/json")

	var result jamendoResponse
	if err := doRequest(j.httpClient, req, j.Source(), op, &result); err != nil {
		return nil, err
	}

	if h := result.Headers; h != nil && h.Status != "" && h.Status != "success" {
		msg := h.ErrorMessage
		if msg == "" {
			msg = "status " + strconv.Quote(h.Status)
		}
		return nil, NewProviderError(j.Source(), op, http.StatusOK,
			fmt.Errorf("%w: jamendo error %d: %s", shared.ErrAPIRequest, h.Code, msg))
	}

	return NormalizeAll(decodeRecords[JamendoTrack](result.Results), limit), nil
}
