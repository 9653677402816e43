package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/svergara/concierge/agent/contract"
)

const ToolGeocodeLookup = "geocode.lookup"

const maxGeocodeResponseBytes = 1 << 20

// GeocoderConfig configures the address-resolution backend. The default
// points at the public Nominatim instance; tests and deployments with a
// private geocoder override the base URL.
type GeocoderConfig struct {
	BaseURL   string        `envconfig:"BASE_URL" split_words:"true" default:"https://nominatim.openstreetmap.org"`
	UserAgent string        `envconfig:"USER_AGENT" split_words:"true" default:"concierge/1.0"`
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Geocoder resolves free-form addresses through a Nominatim-style
// search endpoint.
type Geocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewGeocoder(cfg GeocoderConfig) (*Geocoder, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("geocoder base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid geocoder base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Geocoder{
		baseURL:   baseURL,
		userAgent: strings.TrimSpace(cfg.UserAgent),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// GeocodeOutput is the tool result payload on a successful lookup.
type GeocodeOutput struct {
	Query       string `json:"query"`
	DisplayName string `json:"display_name"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *Geocoder) execute(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
	query, problem := stringArg(args, "query")
	if problem == "" && strings.TrimSpace(query) == "" {
		problem = "query is empty"
	}
	if problem != "" {
		return contractx.ToolResult{Tool: tool, Error: problem}, nil
	}

	out, err := g.Lookup(ctx, query)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: out}, nil
}

// Lookup resolves the query against the search endpoint and returns the
// best match.
func (g *Geocoder) Lookup(ctx context.Context, query string) (GeocodeOutput, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", g.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return GeocodeOutput{}, fmt.Errorf("build geocode request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return GeocodeOutput{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GeocodeOutput{}, fmt.Errorf("geocode service returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	decoder := json.NewDecoder(http.MaxBytesReader(nil, resp.Body, maxGeocodeResponseBytes))
	if err := decoder.Decode(&places); err != nil {
		return GeocodeOutput{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(places) == 0 {
		return GeocodeOutput{}, fmt.Errorf("no match found for %q", query)
	}

	return GeocodeOutput{
		Query:       query,
		DisplayName: places[0].DisplayName,
		Latitude:    places[0].Lat,
		Longitude:   places[0].Lon,
	}, nil
}
