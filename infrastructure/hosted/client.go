// Package hosted talks to the hosted backend: PostgREST for rows,
// GoTrue for authentication and the Phoenix realtime socket for inserts.
package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"ticket-chat/errors"
	"ticket-chat/internal"
	"time"

	"github.com/gorilla/websocket"
)

const (
	restPath     = "/rest/v1/"
	authPath     = "/auth/v1/"
	realtimePath = "/realtime/v1/websocket"

	singleObject     = "application/vnd.pgrst.object+json"
	returnRepresent  = "return=representation"
	defaultHeartbeat = 25 * time.Second
	maxErrorBody     = 64 << 10
)

// Client implements contract.Backend and contract.Authenticator.
type Client struct {
	baseURL     *url.URL
	anonKey     string
	http        *http.Client
	dialer      *websocket.Dialer
	heartbeat   time.Duration
	accessToken func() string
	log         *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.http = httpClient }
}

func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = dialer }
}

// WithHeartbeat sets the interval of the realtime heartbeat.
func WithHeartbeat(heartbeat time.Duration) Option {
	return func(c *Client) {
		if heartbeat > 0 {
			c.heartbeat = heartbeat
		}
	}
}

// WithAccessToken makes requests on behalf of the signed-in user.
// Without token the anon key is used as bearer.
func WithAccessToken(accessToken func() string) Option {
	return func(c *Client) { c.accessToken = accessToken }
}

func New(cfg internal.BackendConfig, log *slog.Logger, opts ...Option) (*Client, error) {
	if !cfg.Configured() {
		return nil, errors.NotConfigured()
	}
	baseURL, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.URL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", cfg.URL)
	}
	c := &Client{
		baseURL:     baseURL,
		anonKey:     strings.TrimSpace(cfg.AnonKey),
		http:        &http.Client{},
		dialer:      websocket.DefaultDialer,
		heartbeat:   defaultHeartbeat,
		accessToken: func() string { return "" },
		log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) bearer() string {
	if token := c.accessToken(); token != "" {
		return token
	}
	return c.anonKey
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	single bool
	prefer string
	token  string
}

// do sends a request and decodes the JSON answer into out.
// Every failure is returned as a *errors.BackendError.
func (c *Client) do(ctx context.Context, r request, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + r.path
	endpoint.RawQuery = r.query.Encode()

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return &errors.BackendError{Code: errors.CodeDecode, Message: "cannot encode request", Details: err.Error()}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, endpoint.String(), body)
	if err != nil {
		return errors.Transport(err)
	}
	token := r.token
	if token == "" {
		token = c.bearer()
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if r.single {
		httpReq.Header.Set("Accept", singleObject)
	}
	if r.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if r.prefer != "" {
		httpReq.Header.Set("Prefer", r.prefer)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Transport(ctxErr)
		}
		return errors.Transport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Transport(ctxErr)
		}
		return &errors.BackendError{Code: errors.CodeDecode, Message: "invalid response from backend", Details: err.Error(), Status: resp.StatusCode}
	}
	return nil
}

// errorBody covers PostgREST ({code,message,details,hint}) and GoTrue ({error,error_description} or {code,msg}).
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	Message          string          `json:"message"`
	Details          string          `json:"details"`
	Hint             string          `json:"hint"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Msg              string          `json:"msg"`
}

func decodeError(resp *http.Response) error {
	backendErr := &errors.BackendError{Status: resp.StatusCode}
	var body errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(data, &body); err == nil {
		backendErr.Code = rawCode(body.Code)
		backendErr.Message = firstNonEmpty(body.Message, body.ErrorDescription, body.Msg)
		backendErr.Details = body.Details
		backendErr.Hint = body.Hint
		if body.Error != "" {
			backendErr.Code = body.Error
		}
	}
	if backendErr.Code == "" {
		backendErr.Code = strconv.Itoa(resp.StatusCode)
	}
	if backendErr.Message == "" {
		backendErr.Message = http.StatusText(resp.StatusCode)
	}
	return backendErr
}

// rawCode accepts string and numeric codes.
func rawCode(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var code string
	if err := json.Unmarshal(raw, &code); err == nil {
		return code
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func eq(value string) string {
	return "eq." + value
}
