package origin

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cityfeed/puller/manifest"
)

// Well-known request paths served by every origin.
const (
	ManifestPath = "/manifests/latest.json"
	objectPrefix = "/objects/"
)

// maxErrorBody bounds how much of a failed response body is carried in a
// StatusError for diagnostics.
const maxErrorBody = 2000

// StatusError reports a non-success HTTP status. Body holds up to
// maxErrorBody bytes of the response with newlines flattened.
type StatusError struct {
	Status int
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s: %s", e.Status, e.URL, e.Body)
}

// Client issues manifest and object requests against a single origin at a
// time; fail-over across origins is the caller's concern via Origins.Try.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient wraps an http.Client. The client's timeout is the only
// cancellation mechanism besides the request context.
func NewClient(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, userAgent: userAgent}
}

// FetchManifest retrieves and validates the latest manifest from one origin.
func (c *Client) FetchManifest(ctx context.Context, origin string) (*manifest.Manifest, error) {
	body, err := c.get(ctx, origin, origin+ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("request latest manifest: %w", err)
	}
	defer body.Close()
	m, err := manifest.Decode(body)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// FetchObject opens the raw content stream for one object from one origin.
// The caller owns the returned body.
func (c *Client) FetchObject(ctx context.Context, origin, hash string) (io.ReadCloser, error) {
	if err := manifest.ValidateHash(hash); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, origin, origin+objectPrefix+hash)
	if err != nil {
		return nil, fmt.Errorf("request object %s: %w", hash, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, origin, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, augmentTransportError(err, origin)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &StatusError{
			Status: resp.StatusCode,
			URL:    url,
			Body:   truncateBody(resp.Body),
		}
	}
	return resp.Body, nil
}

// augmentTransportError attaches the path-style addressing hint when a TLS
// hostname mismatch looks like a dotted-bucket virtual-hosted storage
// endpoint. It never changes which errors trigger fail-over.
func augmentTransportError(err error, origin string) error {
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		if hint := TLSNameMismatchHint(origin); hint != "" {
			return fmt.Errorf("%s: %w", hint, err)
		}
	}
	return err
}

func truncateBody(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody+1))
	body := strings.NewReplacer("\n", " ", "\r", " ").Replace(string(raw))
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "…"
	}
	return body
}
