// Package client is a small HTTP client for a running smeagol server. It
// speaks the raw-body save protocol, so content round-trips byte-for-byte.
package client

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/TheSilvus/smeagol/internal/wikipath"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
			// Saves answer with a redirect to the page; the client wants
			// the status, not the page.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) pageURL(path wikipath.Path) string {
	return c.baseURL + "/" + path.PercentEncode()
}

// Get fetches the raw content of a page.
func (c *Client) Get(path wikipath.Path) ([]byte, error) {
	resp, err := c.httpClient.Get(c.pageURL(path) + "?raw")
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Save writes content to a page with the given commit message.
func (c *Client) Save(path wikipath.Path, content []byte, message string) error {
	saveURL := c.pageURL(path) + "?message=" + url.QueryEscape(message)
	resp, err := c.httpClient.Post(saveURL, "application/octet-stream", bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		return fmt.Errorf("saving %s: unexpected status %s", path, resp.Status)
	}
	return nil
}
