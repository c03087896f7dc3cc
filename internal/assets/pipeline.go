// Package assets downloads post media through a bounded worker pool and
// rewrites body references to the local copies. Asset failures never
// fail the post: a failed download keeps its external URL.
package assets

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/strannick-ru/article-backup/internal/core/domain"
	"github.com/strannick-ru/article-backup/internal/core/ports/driven"
	"github.com/strannick-ru/article-backup/internal/logger"
)

// Ensure Resolver implements the interface.
var _ driven.AssetResolver = (*Resolver)(nil)

// assetsSubdir is the per-post directory asset files are written to.
const assetsSubdir = "assets"

// RetryPolicy bounds download retries for one asset.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries including the first.
	MaxAttempts int

	// BaseDelay is the first backoff interval.
	BaseDelay time.Duration

	// MaxDelay caps the backoff interval.
	MaxDelay time.Duration

	// Factor multiplies the interval after each failure.
	Factor float64
}

// Config controls the download pool.
type Config struct {
	// Workers is the pool size. Defaults to 4.
	Workers int

	// AllowedKinds restricts which asset kinds are downloaded. Empty
	// means images and audio.
	AllowedKinds []domain.AssetKind

	// Retry is the per-asset retry policy.
	Retry RetryPolicy
}

// DefaultRetryPolicy is used when the config leaves retries unset.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	MaxDelay:    30 * time.Second,
	Factor:      2,
}

// Resolver downloads assets for one post at a time.
type Resolver struct {
	client  *http.Client
	cfg     Config
	allowed map[domain.AssetKind]bool
}

// NewResolver creates an asset resolver over the given HTTP client.
func NewResolver(client *http.Client, cfg Config) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if len(cfg.AllowedKinds) == 0 {
		cfg.AllowedKinds = []domain.AssetKind{domain.AssetImage, domain.AssetAudio}
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy
	}
	allowed := make(map[domain.AssetKind]bool, len(cfg.AllowedKinds))
	for _, k := range cfg.AllowedKinds {
		allowed[k] = true
	}
	return &Resolver{client: client, cfg: cfg, allowed: allowed}
}

// Acquire downloads the post's allowed assets into dir/assets and
// rewrites resolved embed URLs to local relative paths. Disallowed and
// failed assets keep their external URLs. Only a cancelled context is
// returned as an error.
func (r *Resolver) Acquire(ctx context.Context, post *domain.Post, dir string) error {
	var jobs []*domain.Asset
	for _, a := range post.Assets {
		if r.allowed[a.Kind] && a.State == domain.AssetPending {
			jobs = append(jobs, a)
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	assetDir := filepath.Join(dir, assetsSubdir)
	if err := os.MkdirAll(assetDir, 0o755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}

	ns := newNamespace()
	ch := make(chan *domain.Asset)

	workers := r.cfg.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range ch {
				r.fetchOne(ctx, a, ns, assetDir)
			}
		}()
	}
	for _, a := range jobs {
		ch <- a
	}
	close(ch)
	wg.Wait()

	r.rewriteEmbeds(post)
	return ctx.Err()
}

// fetchOne downloads one asset with retries. The filename is reserved
// before the body is written; on exhaustion the asset is marked failed.
func (r *Resolver) fetchOne(ctx context.Context, a *domain.Asset, ns *namespace, assetDir string) {
	var localName string

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", domain.ErrPermanentRequest, err))
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("status %d for %s", resp.StatusCode, a.URL)
		default:
			return backoff.Permanent(fmt.Errorf("%w: status %d for %s", domain.ErrPermanentRequest, resp.StatusCode, a.URL))
		}

		ct := responseMediaType(resp)
		// A content page instead of bytes means the link needs auth.
		if ct == "text/html" {
			return backoff.Permanent(fmt.Errorf("%w: got html for %s", domain.ErrPermanentRequest, a.URL))
		}

		ext := urlExt(a.URL)
		if ext == "" {
			ext = contentTypeExt[ct]
		}

		localName = ns.reserve(baseName(a)+ext, a.URL)

		f, err := os.Create(filepath.Join(assetDir, localName))
		if err != nil {
			return backoff.Permanent(err)
		}
		if _, err := io.Copy(f, resp.Body); err != nil {
			f.Close()
			os.Remove(f.Name())
			return err
		}
		return f.Close()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.Retry.BaseDelay
	bo.MaxInterval = r.cfg.Retry.MaxDelay
	bo.Multiplier = r.cfg.Retry.Factor
	bo.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(r.cfg.Retry.MaxAttempts-1)), ctx))
	if err != nil {
		a.State = domain.AssetFailed
		logger.Warn("asset download failed, keeping external link: %s: %v", a.URL, err)
		return
	}

	a.State = domain.AssetResolved
	a.LocalName = localName
}

// rewriteEmbeds points resolved embeds at the local copies.
func (r *Resolver) rewriteEmbeds(post *domain.Post) {
	local := make(map[string]string)
	for _, a := range post.Assets {
		if a.State == domain.AssetResolved && a.LocalName != "" {
			local[a.URL] = assetsSubdir + "/" + a.LocalName
		}
	}
	post.Body.EachSpan(func(s *domain.Span) {
		if s.Embed == nil {
			return
		}
		if rel, ok := local[s.Embed.URL]; ok {
			s.Embed.URL = rel
		}
	})
}

func responseMediaType(resp *http.Response) string {
	ct, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return strings.ToLower(ct)
}
