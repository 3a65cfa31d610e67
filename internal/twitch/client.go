// Package twitch contains the Helix helpers needed to watch live streams,
// authenticated with an app access (client credentials) token.
package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	defaultAPIBase  = "https://api.twitch.tv/helix"
	defaultTokenURL = "https://id.twitch.tv/oauth2/token"

	// MaxBatch is the Helix limit of user_login values per request
	MaxBatch = 100

	// refreshBuffer is how close to expiry the app token is renewed
	refreshBuffer = 5 * time.Minute
)

var (
	// ErrNotConfigured is returned when no client credentials are set
	ErrNotConfigured = errors.New("twitch credentials not configured")

	// ErrAuthInvalid is returned when Helix or the token endpoint rejects the credentials
	ErrAuthInvalid = errors.New("twitch credentials rejected")
)

// Stream is a live stream as reported by Helix
type Stream struct {
	UserLogin    string    `json:"user_login"`
	UserName     string    `json:"user_name"`
	Title        string    `json:"title"`
	ViewerCount  int       `json:"viewer_count"`
	GameName     string    `json:"game_name"`
	ThumbnailURL string    `json:"thumbnail_url"`
	StartedAt    time.Time `json:"started_at"`
}

// Thumbnail returns the thumbnail template filled with a size
func (s *Stream) Thumbnail(width, height int) string {
	if s.ThumbnailURL == "" {
		return ""
	}
	r := strings.NewReplacer("{width}", fmt.Sprint(width), "{height}", fmt.Sprint(height))
	return r.Replace(s.ThumbnailURL)
}

// StreamsResult aggregates a batched lookup. Logins whose batch failed are
// listed in Failed and must be treated as unknown by the caller.
type StreamsResult struct {
	Streams []Stream
	Failed  map[string]bool
	Err     error
}

// Live indexes the streams by login
func (r *StreamsResult) Live() map[string]Stream {
	out := make(map[string]Stream, len(r.Streams))
	for _, s := range r.Streams {
		out[strings.ToLower(s.UserLogin)] = s
	}
	return out
}

// Client talks to the Helix streams endpoint
type Client struct {
	clientID   string
	apiBase    string
	httpClient *http.Client
	creds      *clientcredentials.Config

	mu  sync.Mutex
	tok *oauth2.Token
}

// Option customizes a Client
type Option func(*Client)

// WithAPIBase overrides the Helix base URL
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = strings.TrimRight(base, "/") }
}

// WithTokenURL overrides the OAuth token endpoint
func WithTokenURL(u string) Option {
	return func(c *Client) { c.creds.TokenURL = u }
}

// WithHTTPClient replaces the HTTP client used for Helix and token calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Helix client. Without credentials every lookup
// reports ErrNotConfigured.
func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		clientID:   clientID,
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		creds: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     defaultTokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether credentials are present
func (c *Client) Configured() bool {
	return c.creds.ClientID != "" && c.creds.ClientSecret != ""
}

// appToken is a fresh client-credentials grant for every call; caching is
// left to the reuse source wrapped around it
type appToken struct {
	ctx   context.Context
	creds *clientcredentials.Config
}

func (a appToken) Token() (*oauth2.Token, error) {
	return a.creds.Token(a.ctx)
}

// token returns a valid app token, renewing it when it is within
// refreshBuffer of expiry. A renewal is bound to ctx.
func (c *Client) token(ctx context.Context) (*oauth2.Token, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	grant := appToken{ctx: context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), creds: c.creds}
	tok, err := oauth2.ReuseTokenSourceWithExpiry(c.tok, grant, refreshBuffer).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil &&
			(re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized || re.Response.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %v", ErrAuthInvalid, err)
		}
		return nil, fmt.Errorf("twitch token request failed: %w", err)
	}
	c.tok = tok
	return tok, nil
}

// invalidate drops the cached token so the next call requests a new one
func (c *Client) invalidate() {
	c.mu.Lock()
	c.tok = nil
	c.mu.Unlock()
}

// Warmup requests the initial token so credential problems surface at startup
func (c *Client) Warmup(ctx context.Context) error {
	_, err := c.token(ctx)
	return err
}

// FetchLiveStreams looks up the given logins in batches of MaxBatch. A
// failing batch does not abort the others; its logins are reported in
// Failed.
func (c *Client) FetchLiveStreams(ctx context.Context, logins []string) *StreamsResult {
	res := &StreamsResult{Failed: make(map[string]bool)}
	if len(logins) == 0 {
		return res
	}

	var (
		mu sync.Mutex
		p  = pool.New().WithContext(ctx)
	)

	for i := 0; i < len(logins); i += MaxBatch {
		end := min(i+MaxBatch, len(logins))
		batch := logins[i:end]

		p.Go(func(ctx context.Context) error {
			streams, err := c.fetchBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("Failed to fetch Twitch streams", "batchStart", i, "size", len(batch), "error", err)
				for _, login := range batch {
					res.Failed[strings.ToLower(login)] = true
				}
				if res.Err == nil {
					res.Err = err
				}
				return nil // Don't fail the whole lookup for one batch
			}
			res.Streams = append(res.Streams, streams...)
			return nil
		})
	}

	_ = p.Wait()
	return res
}

func (c *Client) fetchBatch(ctx context.Context, logins []string) ([]Stream, error) {
	// Checked before each batch so a long-lived token is renewed on demand
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	for _, login := range logins {
		q.Add("user_login", strings.ToLower(login))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/streams?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidate()
		return nil, ErrAuthInvalid
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("helix streams failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var body struct {
		Data []Stream `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Data, nil
}
