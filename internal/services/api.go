// API service for the remote playlist REST API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklist/internal/shared"
)

const requestIDHeader = "X-Request-ID"

// TokenSource yields the bearer token to attach to a request. An empty token means none is sent.
type TokenSource interface {
	Token() string
}

// StaticToken is a [TokenSource] that always returns the same token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// APIService talks to the playlist API. Responses are wrapped in a {"data": ...} envelope and
// errors carry {"message": "..."}.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *log.Logger
}

// APIOption configures an [APIService].
type APIOption func(*APIService)

// WithTokenSource attaches a bearer token from ts to every request.
func WithTokenSource(ts TokenSource) APIOption {
	return func(a *APIService) { a.tokens = ts }
}

// WithAPILogger sets the logger used for request tracing.
func WithAPILogger(l *log.Logger) APIOption {
	return func(a *APIService) { a.logger = l }
}

// NewAPIService creates a new API service instance for the playlist API at baseURL.
func NewAPIService(baseURL string, client *http.Client, opts ...APIOption) *APIService {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:5000/api"
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		tokens:     StaticToken(""),
		logger:     shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the API root requests are sent to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Raw sends body as-is and returns the undecoded response. Non-2xx statuses are not errors here.
//
// Only transport failures return an error (kind [shared.ErrNetwork]).
func (a *APIService) Raw(ctx context.Context, method, path string, body []byte) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	resp, err := a.send(ctx, method, path, reader)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{
		StatusCode: resp.status,
		Headers:    resp.headers,
		Body:       resp.body,
	}

	var jsonData any
	if err := json.Unmarshal(resp.body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Do sends in as a JSON body (when non-nil) and decodes the envelope's data into out (when non-nil).
//
// Remote failures are a *[shared.RemoteError]:
//   - transport failure: [shared.ErrNetwork]
//   - 401: [shared.ErrAuthorization]
//   - any other non-2xx, or an undecodable success body: [shared.ErrRemoteRejection]
func (a *APIService) Do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: failed to encode request: %v", shared.ErrInvalidInput, err)
		}
		reader = bytes.NewReader(data)
	}

	resp, err := a.send(ctx, method, path, reader)
	if err != nil {
		return err
	}

	if resp.status < 200 || resp.status >= 300 {
		return classify(resp.status, resp.body)
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return &shared.RemoteError{Kind: shared.ErrRemoteRejection, Status: resp.status, Err: fmt.Errorf("invalid response: %w", err)}
	}
	if data := bytes.TrimSpace(env.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return &shared.RemoteError{Kind: shared.ErrRemoteRejection, Status: resp.status, Err: errors.New("response has no data")}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &shared.RemoteError{Kind: shared.ErrRemoteRejection, Status: resp.status, Err: fmt.Errorf("invalid response data: %w", err)}
	}
	return nil
}

type rawResponse struct {
	status  int
	headers http.Header
	body    []byte
}

func (a *APIService) send(ctx context.Context, method, path string, body io.Reader) (*rawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := a.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, &shared.RemoteError{Kind: shared.ErrNetwork, Err: transportError(ctx, a.baseURL, err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shared.RemoteError{Kind: shared.ErrNetwork, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	a.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	return &rawResponse{status: resp.StatusCode, headers: resp.Header, body: data}, nil
}

// classify maps a non-2xx response onto the remote error taxonomy.
func classify(status int, body []byte) error {
	kind := shared.ErrRemoteRejection
	if status == http.StatusUnauthorized {
		kind = shared.ErrAuthorization
	}
	return &shared.RemoteError{Kind: kind, Status: status, Message: serverMessage(body)}
}

// serverMessage extracts the user-displayable message from an error body, if there is one.
func serverMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}

func transportError(ctx context.Context, baseURL string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("request canceled: %w", err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("request timed out: %w", err)
	default:
		return fmt.Errorf("cannot connect to %s: %w", baseURL, err)
	}
}
