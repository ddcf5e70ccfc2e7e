package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/shared"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// SearchLimit is the fixed number of results requested per search.
const SearchLimit = 10

// SearchProvider queries an external catalog and returns its native track records.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// SearchGateway issues one best-effort search per call. Nothing is cached or retried.
type SearchGateway struct {
	provider SearchProvider
	limiter  *rate.Limiter
	logger   *log.Logger
}

// SearchOption configures a [SearchGateway].
type SearchOption func(*SearchGateway)

// WithRateLimit paces searches to perSecond requests. Zero or less disables pacing.
func WithRateLimit(perSecond float64) SearchOption {
	return func(g *SearchGateway) {
		if perSecond > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithSearchLogger sets the logger for search tracing.
func WithSearchLogger(l *log.Logger) SearchOption {
	return func(g *SearchGateway) { g.logger = l }
}

// NewSearchGateway creates a [SearchGateway] backed by provider.
func NewSearchGateway(provider SearchProvider, opts ...SearchOption) *SearchGateway {
	g := &SearchGateway{provider: provider, logger: shared.NewLogger(io.Discard)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Provider returns the name of the backing provider.
func (g *SearchGateway) Provider() string {
	return g.provider.Name()
}

// Search returns up to [SearchLimit] provider records for query.
//
// Every failure wraps [shared.ErrSearch].
func (g *SearchGateway) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, &shared.RemoteError{Kind: shared.ErrSearch, Err: err}
		}
	}

	results, err := g.provider.Search(ctx, query, SearchLimit)
	if err != nil {
		g.logger.Debug("search failed", "provider", g.provider.Name(), "query", query, "error", err)
		return nil, searchError(err)
	}

	g.logger.Debug("search", "provider", g.provider.Name(), "query", query, "results", len(results))
	if len(results) > SearchLimit {
		results = results[:SearchLimit]
	}
	return results, nil
}

func searchError(err error) error {
	var re *shared.RemoteError
	if errors.As(err, &re) && re.Kind == shared.ErrSearch {
		return err
	}
	return &shared.RemoteError{Kind: shared.ErrSearch, Err: err}
}

// NewSearchProvider builds the provider named by cfg.Provider.
func NewSearchProvider(ctx context.Context, cfg shared.SearchConfig, client *http.Client) (SearchProvider, error) {
	switch cfg.Provider {
	case shared.ProviderRapidAPI, "":
		return NewRapidAPIProvider(cfg.RapidAPI, client), nil
	case shared.ProviderSpotify:
		return NewSpotifyProvider(ctx, cfg.Spotify, client)
	default:
		return nil, fmt.Errorf("%w: unknown search provider %q", shared.ErrInvalidConfig, cfg.Provider)
	}
}

// RapidAPIProvider searches through the spotify23 RapidAPI proxy.
type RapidAPIProvider struct {
	baseURL    string
	host       string
	apiKey     string
	httpClient *http.Client
}

// NewRapidAPIProvider creates a [RapidAPIProvider]. A nil client uses [http.DefaultClient].
func NewRapidAPIProvider(cfg shared.RapidAPIConfig, client *http.Client) *RapidAPIProvider {
	if client == nil {
		client = http.DefaultClient
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://spotify23.p.rapidapi.com"
	}
	return &RapidAPIProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		host:       cfg.Host,
		apiKey:     cfg.APIKey,
		httpClient: client,
	}
}

func (p *RapidAPIProvider) Name() string { return shared.ProviderRapidAPI }

func (p *RapidAPIProvider) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "tracks")
	params.Set("limit", strconv.Itoa(limit))

	headers := http.Header{}
	headers.Set("X-RapidAPI-Key", p.apiKey)
	headers.Set("X-RapidAPI-Host", p.host)

	body, err := getJSON(ctx, p.httpClient, p.baseURL+"/search/?"+params.Encode(), headers)
	if err != nil {
		return nil, err
	}
	return extractItems(body, p.Name())
}

// SpotifyProvider searches the Spotify Web API with an app-only client-credentials token.
type SpotifyProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyProvider creates a [SpotifyProvider]. The returned client fetches and refreshes its
// token through [clientcredentials.Config]; base, when non-nil, is the transport it uses.
func NewSpotifyProvider(ctx context.Context, cfg shared.SpotifyAPIConfig, base *http.Client) (*SpotifyProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingConfig)
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = "https://accounts.spotify.com/api/token"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.spotify.com/v1"
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
	}
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	return &SpotifyProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: cc.Client(ctx),
	}, nil
}

func (p *SpotifyProvider) Name() string { return shared.ProviderSpotify }

func (p *SpotifyProvider) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	body, err := getJSON(ctx, p.httpClient, p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return extractItems(body, p.Name())
}

// getJSON performs a GET and returns the body of a 2xx JSON response.
func getJSON(ctx context.Context, client *http.Client, rawURL string, headers http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &shared.RemoteError{Kind: shared.ErrSearch, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &shared.RemoteError{Kind: shared.ErrSearch, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shared.RemoteError{Kind: shared.ErrSearch, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = gjson.GetBytes(body, "error.message").String()
		}
		return nil, &shared.RemoteError{Kind: shared.ErrSearch, Status: resp.StatusCode, Message: msg}
	}

	if !gjson.ValidBytes(body) {
		return nil, &shared.RemoteError{Kind: shared.ErrSearch, Status: resp.StatusCode, Err: fmt.Errorf("invalid JSON response")}
	}
	return body, nil
}

// extractItems returns tracks.items as provider records. A response without that array is a provider error.
func extractItems(body []byte, provider string) ([]models.SearchResult, error) {
	items := gjson.GetBytes(body, "tracks.items")
	if !items.IsArray() {
		return nil, &shared.RemoteError{Kind: shared.ErrSearch, Err: fmt.Errorf("%s response has no tracks.items", provider)}
	}

	var results []models.SearchResult
	items.ForEach(func(_, item gjson.Result) bool {
		results = append(results, models.SearchResult{Provider: provider, Raw: []byte(item.Raw)})
		return true
	})
	if results == nil {
		results = []models.SearchResult{}
	}
	return results, nil
}
