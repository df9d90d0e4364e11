// Deezer [Provider] implementation
//
// Reached through the RapidAPI gateway at deezerdevs-deezer.p.rapidapi.com.
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

const (
	defaultDeezerBaseURL = "https://deezerdevs-deezer.p.rapidapi.com"
	defaultDeezerHost    = "deezerdevs-deezer.p.rapidapi.com"
)

// deezerError is the in-body failure Deezer returns with HTTP 200.
type deezerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type deezerResponse struct {
	Data  []json.RawMessage `json:"data"`
	Error *deezerError      `json:"error"`
}

// DeezerService implements [Provider] for the licensed Deezer catalog.
type DeezerService struct {
	baseURL    string
	apiKey     string
	apiHost    string
	httpClient *http.Client
}

// NewDeezerService creates a Deezer provider from RapidAPI credentials.
//
// A nil client gets a client with [DefaultTimeout].
func NewDeezerService(cfg shared.LicensedConfig, client *http.Client) *DeezerService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultDeezerBaseURL
	}
	host := cfg.APIHost
	if host == "" {
		host = defaultDeezerHost
	}

	return &DeezerService{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		apiHost:    host,
		httpClient: newHTTPClient(client, DefaultTimeout),
	}
}

// Name returns the service name.
func (d *DeezerService) Name() string {
	return "Deezer"
}

// Source returns [models.SourceLicensed].
func (d *DeezerService) Source() models.Source {
	return models.SourceLicensed
}

// Search calls GET /search?q=&limit=.
func (d *DeezerService) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewProviderError(d.Source(), "search", 0, shared.ErrInvalidInput)
	}

	limit = NormalizeLimit(limit)
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	return d.fetch(ctx, "search", "/search", params, limit)
}

// Trending calls GET /chart/0/tracks?limit=.
func (d *DeezerService) Trending(ctx context.Context, limit int) ([]models.Track, error) {
	limit = NormalizeLimit(limit)
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	return d.fetch(ctx, "trending", "/chart/0/tracks", params, limit)
}

func (d *DeezerService) fetch(ctx context.Context, op, endpoint string, params url.Values, limit int) ([]models.Track, error) {
	apiURL := d.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, NewProviderError(d.Source(), op, 0, fmt.Errorf("%w: failed to create request: %w", shared.ErrAPIRequest, err))
	}
	req.Header.Set("X-RapidAPI-Key", d.apiKey)
	req.Header.Set("X-RapidAPI-Host", d.apiHost)
	req.Header.Set("Accept", "application/json")

	var result deezerResponse
	if err := doRequest(d.httpClient, req, d.Source(), op, &result); err != nil {
		return nil, err
	}

	if result.Error != nil {
		return nil, NewProviderError(d.Source(), op, http.StatusOK,
			fmt.Errorf("%w: %s (code %d): %s", shared.ErrAPIRequest, result.Error.Type, result.Error.Code, result.Error.Message))
	}

	return NormalizeAll(decodeRecords[DeezerTrack](result.Data), limit), nil
}
