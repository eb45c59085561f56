// Package webpage provides the PageSource: an authenticated HTTP session
// against the PBX admin interface, with per-URL caching of parsed pages.
package webpage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pbxtools/pbxdoc/ports"
)

const configPath = "admin/config.php"

// Client fetches and caches admin pages. Safe for concurrent use.
type Client struct {
	base   string // "http://host/"
	http   *http.Client
	logger zerolog.Logger

	mu     sync.Mutex
	authed bool
	cache  map[string]*Document
}

// New creates a client for the PBX at host (hostname or IP, no scheme).
func New(host string, logger zerolog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:   "http://" + host + "/",
		http:   &http.Client{Jar: jar},
		logger: logger,
		cache:  make(map[string]*Document),
	}, nil
}

// Login authenticates the web session against the admin login form.
func (c *Client) Login(ctx context.Context, username, password string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+configPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cannot connect to PBX: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("configuration page not found")
	}

	form := url.Values{"username": {username}, "password": {password}}
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.base+configPath, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(username, password)
	resp, err = c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || bytes.Contains(body, []byte("Invalid Username or Password")) {
		return fmt.Errorf("invalid username or password")
	}

	c.mu.Lock()
	c.authed = true
	c.mu.Unlock()
	return nil
}

// URL returns the browsable admin-page URL for the given params.
func (c *Client) URL(params map[string]string) string {
	return c.base + configPath + "?" + encodeParams(params)
}

// encodeParams builds a deterministic query string so equal param sets hit
// the same cache entry.
func encodeParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// Fetch retrieves one admin page, parsing and caching it by URL.
func (c *Client) Fetch(ctx context.Context, params map[string]string) (ports.Page, error) {
	c.mu.Lock()
	authed := c.authed
	c.mu.Unlock()
	if !authed {
		return nil, fmt.Errorf("web session not authenticated")
	}

	pageURL := c.URL(params)

	c.mu.Lock()
	if doc, ok := c.cache[pageURL]; ok {
		c.mu.Unlock()
		return doc, nil
	}
	c.mu.Unlock()

	c.logger.Debug().Str("url", pageURL).Msg("scraping admin page")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", c.base+configPath)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("config scrape: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("config scrape: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("config scrape error: status %d", resp.StatusCode)
	}

	doc, err := Parse(bytes.NewReader(normalizeMarkup(body)))
	if err != nil {
		return nil, fmt.Errorf("parse admin page: %w", err)
	}

	c.mu.Lock()
	c.cache[pageURL] = doc
	c.mu.Unlock()
	return doc, nil
}

// normalizeMarkup repairs the admin interface's bare CHECKED/SELECTED
// attribute spellings, which otherwise glue onto neighboring attributes.
func normalizeMarkup(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte(`"CHECKED `), []byte(`" CHECKED `))
	b = bytes.ReplaceAll(b, []byte(` CHECKED `), []byte(` checked="checked" `))
	b = bytes.ReplaceAll(b, []byte(`"SELECTED`), []byte(`" SELECTED`))
	b = bytes.ReplaceAll(b, []byte(` SELECTED `), []byte(` selected="selected" `))
	return b
}

var _ ports.PageSource = (*Client)(nil)
