package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	dataDragonURL   = "https://ddragon.leagueoflegends.com"
	fallbackVersion = "14.24.1"
)

// Champion is the display data for a champion
type Champion struct {
	Name    string
	Key     string
	IconURL string
}

// staticChampions patches champions that may be missing from a stale Data
// Dragon snapshot. It is consulted only after the primary source misses.
var staticChampions = map[int]struct{ Name, Key string }{
	887: {"Briar", "Briar"},
	895: {"Naafiri", "Naafiri"},
	950: {"Smolder", "Smolder"},
	901: {"Aurora", "Aurora"},
}

// Champions resolves champion ids through Data Dragon, caching the
// version and champion table after the first successful load.
type Champions struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	version string
	byKey   map[int]struct{ Name, Key string }
}

// NewChampions creates a resolver. An empty baseURL uses the public CDN.
func NewChampions(baseURL string) *Champions {
	if baseURL == "" {
		baseURL = dataDragonURL
	}
	return &Champions{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Version returns the current Data Dragon version, or the fallback
func (c *Champions) Version(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versionLocked(ctx)
}

func (c *Champions) versionLocked(ctx context.Context) string {
	if c.version != "" {
		return c.version
	}

	var versions []string
	if err := c.fetch(ctx, c.baseURL+"/api/versions.json", &versions); err != nil || len(versions) == 0 {
		slog.Warn("Failed to get Data Dragon version", "error", err)
		return fallbackVersion
	}
	c.version = versions[0]
	slog.Info("Data Dragon version detected", "version", c.version)
	return c.version
}

func (c *Champions) load(ctx context.Context) (string, map[int]struct{ Name, Key string }) {
	c.mu.Lock()
	defer c.mu.Unlock()

	version := c.versionLocked(ctx)
	if c.byKey != nil {
		return version, c.byKey
	}

	var body struct {
		Data map[string]struct {
			ID   string `json:"id"`
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"data"`
	}
	endpoint := fmt.Sprintf("%s/cdn/%s/data/en_US/champion.json", c.baseURL, version)
	if err := c.fetch(ctx, endpoint, &body); err != nil {
		slog.Warn("Failed to get champion data", "error", err)
		return version, nil
	}

	byKey := make(map[int]struct{ Name, Key string }, len(body.Data))
	for _, ch := range body.Data {
		key, err := strconv.Atoi(ch.Key)
		if err != nil {
			continue
		}
		byKey[key] = struct{ Name, Key string }{ch.Name, ch.ID}
	}
	c.byKey = byKey
	slog.Info("Champions cached", "count", len(byKey))
	return version, byKey
}

// Lookup resolves a champion id. It never fails: unknown ids produce a
// placeholder entry.
func (c *Champions) Lookup(ctx context.Context, championID int) Champion {
	if championID == 0 {
		return Champion{
			Name:    "Unknown",
			Key:     "Unknown",
			IconURL: fmt.Sprintf("%s/cdn/%s/img/profileicon/29.png", dataDragonURL, fallbackVersion),
		}
	}

	version, byKey := c.load(ctx)

	if ch, ok := byKey[championID]; ok {
		return c.champion(version, ch.Name, ch.Key)
	}
	if ch, ok := staticChampions[championID]; ok {
		return c.champion(version, ch.Name, ch.Key)
	}

	return Champion{
		Name:    fmt.Sprintf("Champion #%d", championID),
		Key:     "Unknown",
		IconURL: fmt.Sprintf("%s/cdn/%s/img/profileicon/29.png", dataDragonURL, version),
	}
}

// ProfileIconURL returns the CDN URL of a profile icon
func (c *Champions) ProfileIconURL(ctx context.Context, iconID int) string {
	return fmt.Sprintf("%s/cdn/%s/img/profileicon/%d.png", dataDragonURL, c.Version(ctx), iconID)
}

func (c *Champions) champion(version, name, key string) Champion {
	return Champion{
		Name:    name,
		Key:     key,
		IconURL: fmt.Sprintf("%s/cdn/%s/img/champion/%s.png", dataDragonURL, version, key),
	}
}

func (c *Champions) fetch(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("data dragon: HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
