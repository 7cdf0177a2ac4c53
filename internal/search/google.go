package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// ErrNotConfigured is returned by a client built without credentials.
var ErrNotConfigured = errors.New("search: not configured")

type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// GoogleClient queries the Custom Search JSON API.
type GoogleClient struct {
	endpoint string
	apiKey   string
	cx       string
	num      int
	client   *http.Client
}

func NewGoogleClient(apiKey, cx string) *GoogleClient {
	return &GoogleClient{
		endpoint: defaultEndpoint,
		apiKey:   strings.TrimSpace(apiKey),
		cx:       strings.TrimSpace(cx),
		num:      5,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *GoogleClient) Enabled() bool {
	return c != nil && c.apiKey != "" && c.cx != ""
}

func (c *GoogleClient) Search(ctx context.Context, query string) ([]Result, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cx)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(c.num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search api error: %s body=%s", resp.Status, body)
	}

	var parsed struct {
		Items []Result `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return parsed.Items, nil
}

// Format renders results as a context block for the language model.
func Format(results []Result) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Fresh web search results. Use them if relevant and cite links:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n", i+1, strings.TrimSpace(r.Title), strings.TrimSpace(r.Snippet), r.Link)
	}
	return strings.TrimSpace(b.String())
}
