package puller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cityfeed/puller/internal/fsutil"
	"github.com/cityfeed/puller/manifest"
	"github.com/cityfeed/puller/origin"
	"github.com/cityfeed/puller/snapshot"
	"github.com/cityfeed/puller/store"
)

// Version identifies this release in the User-Agent header.
const Version = "1.0.0"

// DefaultTimeout bounds every network request when no custom HTTP client is
// supplied.
const DefaultTimeout = 120 * time.Second

const defaultUserAgent = "cityfeed-puller/" + Version

// Puller runs the manifest-to-published-tree convergence pipeline against one
// publish root. The root is assumed to be owned by a single publishing
// process at a time; idempotent re-entry, not locking, is the crash recovery
// strategy.
type Puller struct {
	origins origin.Origins
	root    string
	client  *origin.Client
	logger  *slog.Logger
	jobs    int

	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

// New builds a Puller for the given raw origins and root directory. Origin
// normalization failures are configuration errors and fail construction.
func New(rawOrigins []string, root string, opts ...Option) (*Puller, error) {
	origins, err := origin.NormalizeAll(rawOrigins)
	if err != nil {
		return nil, err
	}
	p := &Puller{
		origins:   origins,
		root:      root,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		jobs:      1,
		userAgent: defaultUserAgent,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: p.timeout}
	}
	p.client = origin.NewClient(p.httpClient, p.userAgent)
	return p, nil
}

// Origins returns the normalized, deduplicated origin list in try order.
func (p *Puller) Origins() origin.Origins {
	return p.origins
}

// Run executes one full convergence: manifest fetch, object downloads,
// snapshot build and promotion, pointer switch. Every stage detects
// already-completed work and skips it, so Run is safe to invoke again after
// any failure. On success the current pointer resolves to the manifest's
// snapshot; on error nothing externally observable has changed beyond
// objects and hidden staging artifacts.
func (p *Puller) Run(ctx context.Context) error {
	objectsDir := filepath.Join(p.root, "objects")
	snapshotsDir := filepath.Join(p.root, "snapshots")
	for _, dir := range []string{p.root, objectsDir, snapshotsDir} {
		if err := fsutil.EnsureDir(dir); err != nil {
			return err
		}
	}

	m, err := p.fetchManifest(ctx)
	if err != nil {
		return err
	}
	targetRel := path.Join("snapshots", m.Version)

	// A present snapshot is complete by construction: skip the download and
	// build phases outright and only fix up the pointer.
	final := filepath.Join(snapshotsDir, m.Version)
	if ok, err := dirExists(final); err != nil {
		return err
	} else if ok {
		p.logger.Info("snapshot already present", "version", m.Version)
		return p.switchCurrent(targetRel)
	}

	if err := p.ensureObjects(ctx, objectsDir, m); err != nil {
		return err
	}

	builder := snapshot.NewBuilder(objectsDir, snapshotsDir, p.logger)
	if _, err := builder.BuildAndPromote(m); err != nil {
		return err
	}
	return p.switchCurrent(targetRel)
}

func (p *Puller) fetchManifest(ctx context.Context) (*manifest.Manifest, error) {
	var m *manifest.Manifest
	err := p.origins.Try(p.logger, "fetch latest manifest", func(org string) error {
		fetched, err := p.client.FetchManifest(ctx, org)
		if err != nil {
			return err
		}
		p.logger.Info("manifest fetched", "origin", org, "version", fetched.Version, "files", len(fetched.Files))
		m = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ensureObjects downloads every distinct missing object. With jobs == 1 this
// is strictly sequential in manifest order. With jobs > 1 distinct hashes
// download through a bounded errgroup; promotion still only happens after
// every download has fully resolved, so the snapshot-completeness invariant
// is untouched.
func (p *Puller) ensureObjects(ctx context.Context, objectsDir string, m *manifest.Manifest) error {
	st, err := store.New(objectsDir)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(m.Files))
	var todo []manifest.FileDescriptor
	for _, f := range m.Files {
		if _, ok := seen[f.Hash]; ok {
			continue
		}
		seen[f.Hash] = struct{}{}
		todo = append(todo, f)
	}

	download := func(ctx context.Context, f manifest.FileDescriptor) error {
		if st.Has(f.Hash) {
			return nil
		}
		p.logger.Info("download object", "hash", f.Hash, "size", f.Size)
		err := st.Ensure(f.Hash, f.Size, func() (io.ReadCloser, error) {
			var body io.ReadCloser
			err := p.origins.Try(p.logger, "download object "+f.Hash, func(org string) error {
				b, err := p.client.FetchObject(ctx, org, f.Hash)
				if err != nil {
					return err
				}
				body = b
				return nil
			})
			return body, err
		})
		if err != nil {
			return fmt.Errorf("download object %s: %w", f.Hash, err)
		}
		return nil
	}

	if p.jobs <= 1 {
		for _, f := range todo {
			if err := download(ctx, f); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.jobs)
	for _, f := range todo {
		f := f
		g.Go(func() error { return download(gctx, f) })
	}
	return g.Wait()
}

func (p *Puller) switchCurrent(targetRel string) error {
	changed, err := snapshot.SwitchCurrent(p.root, targetRel)
	if err != nil {
		return fmt.Errorf("switch current symlink: %w", err)
	}
	if changed {
		p.logger.Info("switched current", "target", targetRel)
	} else {
		p.logger.Info("current already points at snapshot", "target", targetRel)
	}
	return nil
}

func dirExists(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", dir, err)
	}
	return info.IsDir(), nil
}
