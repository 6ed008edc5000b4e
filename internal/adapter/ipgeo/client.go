// Package ipgeo implements the geoip resolver port against an HTTP
// IP-geolocation service that answers with a bare country code.
package ipgeo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Strob0t/MenuForge/internal/port/geoip"
)

const maxBody = 64

// Client queries urlTemplate, where %s is replaced by the IP address.
type Client struct {
	urlTemplate string
	http        *http.Client
}

var _ geoip.Resolver = (*Client)(nil)

// New creates a Client. Timeouts are applied by the caller's context.
func New(urlTemplate string) *Client {
	return &Client{
		urlTemplate: urlTemplate,
		http:        &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

// Lookup returns the upper-cased response body of a successful request.
func (c *Client) Lookup(ctx context.Context, ip netip.Addr) (string, error) {
	url := fmt.Sprintf(c.urlTemplate, ip.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("geo lookup request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("geo lookup %s: %w", ip, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("geo lookup %s: status %d", ip, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("geo lookup %s: read body: %w", ip, err)
	}
	return strings.ToUpper(strings.TrimSpace(string(body))), nil
}
