// Package safebrowsing provides a client for the Google Safe Browsing
// Lookup API (v4), used to screen posting URLs before any analysis spend.
package safebrowsing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the URL reputation lookup.
type Client interface {
	// CheckURL looks up a URL against Google's threat lists.
	CheckURL(ctx context.Context, targetURL string) (*Result, error)
}

// Result is the outcome of a reputation lookup.
type Result struct {
	Safe    bool
	Threats []string
}

// lookupRequest is the threatMatches:find payload.
type lookupRequest struct {
	Client     clientInfo `json:"client"`
	ThreatInfo threatInfo `json:"threatInfo"`
}

type clientInfo struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

type lookupResponse struct {
	Matches []threatMatch `json:"matches"`
}

type threatMatch struct {
	ThreatType string `json:"threatType"`
}

// threatTypes are the lists a posting URL is checked against.
var threatTypes = []string{
	"MALWARE",
	"SOCIAL_ENGINEERING",
	"UNWANTED_SOFTWARE",
	"POTENTIALLY_HARMFUL_APPLICATION",
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Safe Browsing Lookup client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://safebrowsing.googleapis.com",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) CheckURL(ctx context.Context, targetURL string) (*Result, error) {
	payload := lookupRequest{
		Client: clientInfo{ClientID: "ruvia", ClientVersion: "1.0.0"},
		ThreatInfo: threatInfo{
			ThreatTypes:      threatTypes,
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []threatEntry{{URL: targetURL}},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "safebrowsing: marshal request")
	}

	reqURL := c.baseURL + "/v4/threatMatches:find?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "safebrowsing: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "safebrowsing: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "safebrowsing: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("safebrowsing: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result lookupResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "safebrowsing: unmarshal response")
	}

	// An empty object means no list matched the URL.
	if len(result.Matches) == 0 {
		return &Result{Safe: true}, nil
	}

	threats := make([]string, 0, len(result.Matches))
	seen := make(map[string]bool, len(result.Matches))
	for _, m := range result.Matches {
		if m.ThreatType == "" || seen[m.ThreatType] {
			continue
		}
		seen[m.ThreatType] = true
		threats = append(threats, m.ThreatType)
	}
	return &Result{Safe: false, Threats: threats}, nil
}
