package plex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Catalog defines the calls the stores and search flow make against the
// remote API. It is implemented by *Client and can be faked in tests.
type Catalog interface {
	FetchServer(ctx context.Context) (*Server, error)
	FetchUser(ctx context.Context) (*User, error)
	FetchWatchList(ctx context.Context) (map[string]WatchItem, error)
	FetchSettings(ctx context.Context) (map[string]string, error)
	SaveSetting(ctx context.Context, name, value string) error
	Search(ctx context.Context, query string) ([]SearchResult, error)
	FetchLibraries(ctx context.Context) ([]Directory, error)
}

// Ensure Client implements Catalog at compile time.
var _ Catalog = (*Client)(nil)

// Client talks to a Plex media server and to the plex.tv account service.
type Client struct {
	serverURL  *url.URL
	accountURL *url.URL
	http       *http.Client
	clientID   string
	version    string
	token      func() string
}

const (
	defaultServerURL  = "127.0.0.1:32400"
	defaultAccountURL = "https://plex.tv"
	productName       = "Nevu"
	defaultVersion    = "0.1"
	requestTimeout    = 10 * time.Second
	searchLimit       = 100
)

// Options configure a Client.
type Options struct {
	ServerURL  string
	AccountURL string
	ClientID   string // X-Plex-Client-Identifier
	Version    string
	// Token is consulted on every request so a session change applies
	// to the next call.
	Token      func() string
	HTTPClient *http.Client
}

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	server, err := parseBaseURL(opts.ServerURL, defaultServerURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	account, err := parseBaseURL(opts.AccountURL, defaultAccountURL)
	if err != nil {
		return nil, fmt.Errorf("parse account url: %w", err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = defaultVersion
	}
	token := opts.Token
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		serverURL:  server,
		accountURL: account,
		http:       httpClient,
		clientID:   strings.TrimSpace(opts.ClientID),
		version:    version,
		token:      token,
	}, nil
}

// ServerURL returns the normalized media server base URL.
func (c *Client) ServerURL() string {
	return c.serverURL.String()
}

// FetchServer retrieves the media server identity.
func (c *Client) FetchServer(ctx context.Context) (*Server, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload mediaContainer
	if err := c.do(ctx, http.MethodGet, c.serverURL, &url.URL{Path: "/"}, nil, &payload); err != nil {
		return nil, err
	}
	mc := payload.MediaContainer
	return &Server{
		FriendlyName:      mc.FriendlyName,
		MachineIdentifier: mc.MachineIdentifier,
		Version:           mc.Version,
		Platform:          mc.Platform,
		URL:               c.serverURL.String(),
	}, nil
}

// FetchUser retrieves the signed-in account.
func (c *Client) FetchUser(ctx context.Context) (*User, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var user User
	if err := c.do(ctx, http.MethodGet, c.accountURL, &url.URL{Path: "/api/v2/user"}, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FetchWatchList retrieves the continue-watching hub keyed by rating key.
func (c *Client) FetchWatchList(ctx context.Context) (map[string]WatchItem, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload mediaContainer
	rel := &url.URL{Path: "/hubs/continueWatching/items"}
	if err := c.do(ctx, http.MethodGet, c.serverURL, rel, nil, &payload); err != nil {
		return nil, err
	}
	items := make(map[string]WatchItem, len(payload.MediaContainer.Metadata))
	for _, item := range payload.MediaContainer.Metadata {
		if item.RatingKey == "" {
			return nil, &Error{Kind: KindMalformed, Op: "GET " + rel.Path, Err: fmt.Errorf("item %q has no ratingKey", item.Title)}
		}
		items[item.RatingKey] = item
	}
	return items, nil
}

// FetchSettings retrieves the account settings as a flat name/value map.
func (c *Client) FetchSettings(ctx context.Context) (map[string]string, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Setting
	if err := c.do(ctx, http.MethodGet, c.accountURL, &url.URL{Path: "/api/v2/user/settings"}, nil, &payload); err != nil {
		return nil, err
	}
	settings := make(map[string]string, len(payload))
	for _, s := range payload {
		if s.ID == "" {
			continue
		}
		settings[s.ID] = s.Value
	}
	return settings, nil
}

// SaveSetting writes a single account setting.
func (c *Client) SaveSetting(ctx context.Context, name, value string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("setting name required")
	}
	body, err := json.Marshal([]Setting{{ID: name, Value: value}})
	if err != nil {
		return fmt.Errorf("encode setting: %w", err)
	}
	return c.do(ctx, http.MethodPut, c.accountURL, &url.URL{Path: "/api/v2/user/settings"}, body, nil)
}

// Search queries the server catalog for movies and shows.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("query", query)
	values.Set("limit", strconv.Itoa(searchLimit))
	values.Set("searchTypes", "movies,tv")
	values.Set("includeCollections", "1")
	rel := &url.URL{Path: "/library/search", RawQuery: values.Encode()}
	var payload mediaContainer
	if err := c.do(ctx, http.MethodGet, c.serverURL, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload.MediaContainer.SearchResult, nil
}

// FetchLibraries lists the server's library sections.
func (c *Client) FetchLibraries(ctx context.Context) ([]Directory, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload mediaContainer
	if err := c.do(ctx, http.MethodGet, c.serverURL, &url.URL{Path: "/library/sections"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.MediaContainer.Directory, nil
}

// Browse lists the items under a server path such as Directory.BrowseKey or
// Directory.SectionKey.
func (c *Client) Browse(ctx context.Context, path string) ([]Metadata, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("browse path %q is not absolute", path)
	}
	var payload mediaContainer
	if err := c.do(ctx, http.MethodGet, c.serverURL, &url.URL{Path: path}, nil, &payload); err != nil {
		return nil, err
	}
	items := payload.MediaContainer.Metadata
	if items == nil {
		items = []Metadata{}
	}
	return items, nil
}

// CreatePin starts the plex.tv linking flow. No token is needed.
func (c *Client) CreatePin(ctx context.Context) (*Pin, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: "/api/v2/pins", RawQuery: "strong=true"}
	var pin Pin
	if err := c.doURL(ctx, http.MethodPost, c.accountURL, rel, nil, &pin, false); err != nil {
		return nil, err
	}
	return &pin, nil
}

// CheckPin polls a PIN created by CreatePin.
func (c *Client) CheckPin(ctx context.Context, id int64) (*Pin, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if id <= 0 {
		return nil, fmt.Errorf("pin id required")
	}
	rel := &url.URL{Path: "/api/v2/pins/" + strconv.FormatInt(id, 10)}
	var pin Pin
	if err := c.doURL(ctx, http.MethodGet, c.accountURL, rel, nil, &pin, false); err != nil {
		return nil, err
	}
	return &pin, nil
}

// AuthURL is the page where the user approves pin.
func (c *Client) AuthURL(pin *Pin) string {
	values := url.Values{}
	values.Set("clientID", c.clientID)
	values.Set("code", pin.Code)
	values.Set("context[device][product]", productName)
	return "https://app.plex.tv/auth#?" + values.Encode()
}

func (c *Client) do(ctx context.Context, method string, base, rel *url.URL, body []byte, dest any) error {
	return c.doURL(ctx, method, base, rel, body, dest, true)
}

func (c *Client) doURL(ctx context.Context, method string, base, rel *url.URL, body []byte, dest any, needsToken bool) error {
	op := method + " " + rel.Path
	token := c.token()
	if needsToken && token == "" {
		return &Error{Kind: KindAuth, Op: op, Err: errNoToken}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	reqURL := base.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "nevu/"+c.version)
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", c.version)
	if c.clientID != "" {
		req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	}
	if token != "" {
		req.Header.Set("X-Plex-Token", token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &Error{
			Kind:       kindForStatus(resp.StatusCode),
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode),
		}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return &Error{Kind: KindMalformed, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func parseBaseURL(raw, fallback string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = fallback
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
