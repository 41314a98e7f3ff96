package puller

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Option configures a Puller.
type Option func(*Puller) error

// WithLogger sets the logger used for progress and per-origin warnings.
// Without it the Puller is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Puller) error {
		if logger != nil {
			p.logger = logger
		}
		return nil
	}
}

// WithHTTPClient replaces the default HTTP client (and with it the default
// timeout).
func WithHTTPClient(client *http.Client) Option {
	return func(p *Puller) error {
		p.httpClient = client
		return nil
	}
}

// WithTimeout sets the fixed per-request timeout of the default HTTP client.
// Ignored when WithHTTPClient is used.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Puller) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", timeout)
		}
		p.timeout = timeout
		return nil
	}
}

// WithUserAgent overrides the User-Agent header sent to origins.
func WithUserAgent(ua string) Option {
	return func(p *Puller) error {
		p.userAgent = ua
		return nil
	}
}

// WithJobs sets how many distinct objects may download at once. The default
// of 1 keeps the pipeline fully sequential; higher values bound parallelism
// to n while still resolving every download before the snapshot is built.
func WithJobs(n int) Option {
	return func(p *Puller) error {
		if n < 1 {
			return fmt.Errorf("jobs must be >= 1, got %d", n)
		}
		p.jobs = n
		return nil
	}
}
