package aur

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/archtk/archtk/fetch"
	"github.com/archtk/archtk/internal/cache"
	"github.com/archtk/archtk/internal/core"
	"github.com/archtk/archtk/internal/ratelimit"
)

// Config builds a Client. Zero-valued string, duration and int fields
// (MaxRetries included: 0 becomes 3) and a nil Logger fall back to
// DefaultConfig's values; bool fields are used as given, so
// a false flag stays false. Root callers start from DefaultConfig and
// translate their own options and ARCH_TOOLKIT_* environment variables
// into one of these.
type Config struct {
	HTTPClient     core.HTTPDoer
	TextHTTPClient *http.Client
	UserAgent      string

	Timeout            time.Duration
	HealthCheckTimeout time.Duration
	ValidationStrict   bool
	BulkConcurrency    int

	MaxRetries        int
	RetryEnabled      bool
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
	RetrySearch       bool
	RetryInfo         bool
	RetryComments     bool
	RetryPkgbuild     bool

	MemCacheSize int
	DiskCacheDir string

	SearchCacheEnabled   bool
	InfoCacheEnabled     bool
	CommentsCacheEnabled bool
	PkgbuildCacheEnabled bool
	SearchTTL            time.Duration
	InfoTTL              time.Duration
	CommentsTTL          time.Duration
	PkgbuildTTL          time.Duration

	Logger core.Logger
}

// DefaultConfig returns the spec's built-in defaults (spec.md §4.5, §4.6
// env var table).
func DefaultConfig() Config {
	return Config{
		UserAgent:          "archtk/1.0",
		Timeout:            30 * time.Second,
		HealthCheckTimeout: 5 * time.Second,
		ValidationStrict:   true,
		BulkConcurrency:    core.DefaultConcurrency,

		MaxRetries:        3,
		RetryEnabled:      true,
		RetryInitialDelay: 200 * time.Millisecond,
		RetryMaxDelay:     10 * time.Second,
		RetrySearch:       true,
		RetryInfo:         true,
		RetryComments:     true,
		RetryPkgbuild:     true,

		MemCacheSize: 512,

		SearchTTL:   5 * time.Minute,
		InfoTTL:     5 * time.Minute,
		CommentsTTL: 5 * time.Minute,
		PkgbuildTTL: 5 * time.Minute,

		Logger: core.NopLogger,
	}
}

// Client is the single configured object for every AUR operation: search,
// info, comments, pkgbuild, plus a health probe. It composes the shared
// HTTP client (RPC JSON + HTML), a circuit-breaking DNS-cached fetcher
// (plain-text cgit endpoints), a per-host rate limiter, and four
// independently toggled caches.
type Client struct {
	cfg Config

	rpcRetry   *core.Client // used for search/info/comments when retries are enabled
	rpcNoRetry *core.Client // used when the per-operation retry flag is off

	textRetry   *fetch.CircuitBreakerFetcher
	textNoRetry *fetch.CircuitBreakerFetcher

	searchCache   *cache.TwoTier[[]core.PackageSummary]
	infoCache     *cache.TwoTier[[]core.PackageDetails]
	commentsCache *cache.TwoTier[[]core.Comment]
	pkgbuildCache *cache.TwoTier[string]
	invalidator   *cache.Invalidator

	healthMu   sync.RWMutex
	lastHealth core.HealthStatus
}

// NewClient builds a Client from cfg, filling zero-valued fields as the
// Config doc describes. It also registers an AUR Prober with
// core.ProbeSource so callers of core.ProbeSource (archtk.ProbeSource)
// can ask "is this name on AUR?" without importing this package directly.
func NewClient(cfg Config) (*Client, error) {
	cfg = mergeDefaults(cfg)

	// One registry paces both the RPC path (search/info/comments) and the
	// cgit path (pkgbuild/srcinfo): spec.md §4.5 tracks aur.archlinux.org
	// and archlinux.org separately, with the cgit mirror drawing from the
	// archlinux.org bucket. Each path is paced within its own bucket, and
	// the shared Registry means every request to a bucket goes through
	// that bucket's one Limiter.
	limiters := ratelimit.NewRegistry()
	limiterFor := func(url string) core.RateLimiter { return limiters.For(url) }

	rpcRetry := &core.Client{
		HTTPClient:     cfg.HTTPClient,
		UserAgent:      cfg.UserAgent,
		MaxRetries:     cfg.MaxRetries,
		BaseDelay:      cfg.RetryInitialDelay,
		MaxDelay:       cfg.RetryMaxDelay,
		RateLimiterFor: limiterFor,
		Logger:         cfg.Logger,
	}
	if rpcRetry.HTTPClient == nil {
		rpcRetry.HTTPClient = core.DefaultClient().HTTPClient
	}
	rpcNoRetry := *rpcRetry
	rpcNoRetry.MaxRetries = 0
	if !cfg.RetryEnabled {
		rpcRetry.MaxRetries = 0
	}

	textOpts := []fetch.Option{
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithBaseDelay(cfg.RetryInitialDelay),
		fetch.WithRateLimiterFor(func(url string) fetch.RateLimiter { return limiters.For(url) }),
	}
	if cfg.TextHTTPClient != nil {
		textOpts = append(textOpts, fetch.WithHTTPClient(cfg.TextHTTPClient))
	}
	textFetcher := fetch.NewFetcher(append(textOpts, fetch.WithMaxRetries(cfg.MaxRetries))...)
	textNoRetryFetcher := fetch.NewFetcher(append(textOpts, fetch.WithMaxRetries(0))...)
	if !cfg.RetryEnabled {
		textFetcher = textNoRetryFetcher
	}

	c := &Client{
		cfg:         cfg,
		rpcRetry:    rpcRetry,
		rpcNoRetry:  &rpcNoRetry,
		textRetry:   fetch.NewCircuitBreakerFetcher(textFetcher),
		textNoRetry: fetch.NewCircuitBreakerFetcher(textNoRetryFetcher),
	}

	caches := make(map[string]cache.Invalidatable)
	var err error
	if cfg.SearchCacheEnabled {
		if c.searchCache, err = cache.New[[]core.PackageSummary](cfg.MemCacheSize, cfg.SearchTTL, diskSubdir(cfg.DiskCacheDir, "search"), cfg.Logger); err != nil {
			return nil, err
		}
		caches["search"] = c.searchCache
	}
	if cfg.InfoCacheEnabled {
		if c.infoCache, err = cache.New[[]core.PackageDetails](cfg.MemCacheSize, cfg.InfoTTL, diskSubdir(cfg.DiskCacheDir, "info"), cfg.Logger); err != nil {
			return nil, err
		}
		caches["info"] = c.infoCache
	}
	if cfg.CommentsCacheEnabled {
		if c.commentsCache, err = cache.New[[]core.Comment](cfg.MemCacheSize, cfg.CommentsTTL, diskSubdir(cfg.DiskCacheDir, "comments"), cfg.Logger); err != nil {
			return nil, err
		}
		caches["comments"] = c.commentsCache
	}
	if cfg.PkgbuildCacheEnabled {
		if c.pkgbuildCache, err = cache.New[string](cfg.MemCacheSize, cfg.PkgbuildTTL, diskSubdir(cfg.DiskCacheDir, "pkgbuild"), cfg.Logger); err != nil {
			return nil, err
		}
		caches["pkgbuild"] = c.pkgbuildCache
	}
	c.invalidator = cache.NewInvalidator(caches)

	core.RegisterProber(core.SourceAUR, c.probe)
	return c, nil
}

func mergeDefaults(cfg Config) Config {
	d := DefaultConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = d.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.HealthCheckTimeout == 0 {
		cfg.HealthCheckTimeout = d.HealthCheckTimeout
	}
	if cfg.BulkConcurrency == 0 {
		cfg.BulkConcurrency = d.BulkConcurrency
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = d.MaxRetries
	}
	if cfg.RetryInitialDelay == 0 {
		cfg.RetryInitialDelay = d.RetryInitialDelay
	}
	if cfg.RetryMaxDelay == 0 {
		cfg.RetryMaxDelay = d.RetryMaxDelay
	}
	if cfg.MemCacheSize == 0 {
		cfg.MemCacheSize = d.MemCacheSize
	}
	if cfg.SearchTTL == 0 {
		cfg.SearchTTL = d.SearchTTL
	}
	if cfg.InfoTTL == 0 {
		cfg.InfoTTL = d.InfoTTL
	}
	if cfg.CommentsTTL == 0 {
		cfg.CommentsTTL = d.CommentsTTL
	}
	if cfg.PkgbuildTTL == 0 {
		cfg.PkgbuildTTL = d.PkgbuildTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = d.Logger
	}
	return cfg
}

func diskSubdir(base, name string) string {
	if base == "" {
		return ""
	}
	return base + "/" + name
}

// Invalidator exposes the cache-invalidation surface (spec.md §4.5).
func (c *Client) Invalidator() *cache.Invalidator { return c.invalidator }

func (c *Client) rpc(retryOp bool) *core.Client {
	if retryOp {
		return c.rpcRetry
	}
	return c.rpcNoRetry
}

func (c *Client) text(retryOp bool) *fetch.CircuitBreakerFetcher {
	if retryOp {
		return c.textRetry
	}
	return c.textNoRetry
}

// Search issues an AUR RPC search for query (spec.md §4.5 step-by-step:
// validate, cache lookup, rate-limited HTTP GET with retry, parse, cache
// store).
func (c *Client) Search(ctx context.Context, query string) ([]core.PackageSummary, error) {
	query = strings.TrimSpace(query)
	if err := core.ValidateSearchQuery(query, c.cfg.ValidationStrict); err != nil {
		if query == "" && !c.cfg.ValidationStrict {
			return nil, nil
		}
		return nil, &core.SearchError{Query: query, Err: err}
	}

	key := CacheKey("search", query)
	if c.searchCache != nil {
		if v, ok := c.searchCache.Get(key); ok {
			return v, nil
		}
	}

	body, err := c.rpc(c.cfg.RetrySearch).GetBody(ctx, SearchURL(query))
	if err != nil {
		return nil, &core.SearchError{Query: query, Err: err}
	}
	results, err := ParseSearchResponse(body)
	if err != nil {
		return nil, &core.SearchError{Query: query, Err: err}
	}

	if c.searchCache != nil {
		c.searchCache.Set(key, results)
	}
	return results, nil
}

// validateName checks name against the package-name grammar, honoring
// lenient mode's "empty input yields an empty result" rule (spec.md §4.5
// step 1). skip reports whether the caller should short-circuit to a
// zero-value success.
func (c *Client) validateName(name string) (skip bool, err error) {
	err = core.ValidatePackageName(name)
	if err == nil {
		return false, nil
	}
	if _, ok := core.AsError(err, core.EmptyInput); ok && !c.cfg.ValidationStrict {
		return true, nil
	}
	return false, err
}

// Info issues an AUR RPC multiinfo call for names (spec.md §4.5).
func (c *Client) Info(ctx context.Context, names []string) ([]core.PackageDetails, error) {
	if len(names) == 0 {
		return nil, nil
	}
	kept := make([]string, 0, len(names))
	for _, n := range names {
		skip, err := c.validateName(n)
		if err != nil {
			return nil, &core.InfoError{Names: names, Err: err}
		}
		if !skip {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}
	names = kept

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	key := CacheKey("info", sorted...)
	if c.infoCache != nil {
		if v, ok := c.infoCache.Get(key); ok {
			return v, nil
		}
	}

	body, err := c.rpc(c.cfg.RetryInfo).GetBody(ctx, InfoURL(names))
	if err != nil {
		return nil, &core.InfoError{Names: names, Err: err}
	}
	results, err := ParseInfoResponse(body)
	if err != nil {
		return nil, &core.InfoError{Names: names, Err: err}
	}
	if len(results) == 0 && len(names) == 1 {
		return nil, &core.InfoError{Names: names, Err: core.NewPackageNotFoundError(names[0])}
	}

	if c.infoCache != nil {
		c.infoCache.Set(key, results)
	}
	return results, nil
}

// BulkInfo fetches info for many names at bounded concurrency, omitting
// names that fail rather than aborting the whole batch (helpers.BulkInfo).
func (c *Client) BulkInfo(ctx context.Context, names []string) map[string]core.PackageDetails {
	return core.BulkInfo(ctx, names, c.cfg.BulkConcurrency, func(ctx context.Context, name string) (core.PackageDetails, error) {
		results, err := c.Info(ctx, []string{name})
		if err != nil {
			return core.PackageDetails{}, err
		}
		if len(results) == 0 {
			return core.PackageDetails{}, core.NewPackageNotFoundError(name)
		}
		return results[0], nil
	})
}

// Comments fetches and parses the comment feed for an AUR package page.
func (c *Client) Comments(ctx context.Context, name string) ([]core.Comment, error) {
	skip, err := c.validateName(name)
	if err != nil {
		return nil, &core.CommentsError{Name: name, Err: err}
	}
	if skip {
		return nil, nil
	}

	key := CacheKey("comments", name)
	if c.commentsCache != nil {
		if v, ok := c.commentsCache.Get(key); ok {
			return v, nil
		}
	}

	body, err := c.rpc(c.cfg.RetryComments).GetBody(ctx, CommentsURL(name))
	if err != nil {
		return nil, &core.CommentsError{Name: name, Err: asNotFound(err, name)}
	}
	comments, err := ParseCommentPage(body)
	if err != nil {
		return nil, &core.CommentsError{Name: name, Err: err}
	}

	if c.commentsCache != nil {
		c.commentsCache.Set(key, comments)
	}
	return comments, nil
}

// Pkgbuild fetches the raw PKGBUILD text for an AUR package, verbatim.
func (c *Client) Pkgbuild(ctx context.Context, name string) (string, error) {
	skip, err := c.validateName(name)
	if err != nil {
		return "", &core.PkgbuildError{Name: name, Err: err}
	}
	if skip {
		return "", nil
	}

	key := CacheKey("pkgbuild", name)
	if c.pkgbuildCache != nil {
		if v, ok := c.pkgbuildCache.Get(key); ok {
			return v, nil
		}
	}

	text, err := c.fetchText(ctx, PkgbuildURL(name), c.cfg.RetryPkgbuild)
	if err != nil {
		return "", &core.PkgbuildError{Name: name, Err: asNotFound(err, name)}
	}

	if c.pkgbuildCache != nil {
		c.pkgbuildCache.Set(key, text)
	}
	return text, nil
}

// Srcinfo fetches the raw .SRCINFO text for an AUR package, used by the
// forward resolver when check_aur is enabled and no pkgbuild_cache
// callback supplied one (spec.md §4.7 step 1).
func (c *Client) Srcinfo(ctx context.Context, name string) (string, error) {
	skip, err := c.validateName(name)
	if err != nil {
		return "", &core.PkgbuildError{Name: name, Err: err}
	}
	if skip {
		return "", nil
	}
	text, err := c.fetchText(ctx, SrcinfoURL(name), c.cfg.RetryPkgbuild)
	if err != nil {
		return "", &core.PkgbuildError{Name: name, Err: asNotFound(err, name)}
	}
	return text, nil
}

func (c *Client) fetchText(ctx context.Context, url string, retryOp bool) (string, error) {
	artifact, err := c.text(retryOp).Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return "", core.NewHTTPStatusError(404, url)
		}
		if errors.Is(err, fetch.ErrRateLimited) {
			return "", core.NewHTTPStatusError(429, url)
		}
		if errors.Is(err, fetch.ErrUpstreamDown) {
			return "", core.NewTransportError(err)
		}
		return "", core.NewTransportError(err)
	}
	defer func() { _ = artifact.Body.Close() }()

	data, err := io.ReadAll(artifact.Body)
	if err != nil {
		return "", core.NewTransportError(err)
	}
	return string(data), nil
}

// asNotFound rewrites an HTTP 404 into spec.md §7's PackageNotFound{name}.
func asNotFound(err error, name string) error {
	if e, ok := core.AsError(err, core.HTTPStatus); ok && e.StatusCode == 404 {
		return core.NewPackageNotFoundError(name)
	}
	return err
}

// HealthCheck issues a minimal AUR RPC call with the health-probe timeout
// and classifies the outcome per spec.md §4.5. It never touches the
// regular operation caches. The RPC probe only tells us about
// aur.archlinux.org/rpc/; if the cgit circuit breaker is independently
// open, pkgbuild/srcinfo calls will fail even while search/info succeed,
// so a tripped breaker downgrades an otherwise-Healthy result to Degraded.
func (c *Client) HealthCheck(ctx context.Context) core.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthCheckTimeout)
	defer cancel()

	start := time.Now()
	_, err := c.rpcNoRetry.GetBody(ctx, SearchURL("pacman"))
	latency := time.Since(start)

	status := core.HealthStatus{Latency: latency}
	switch {
	case err == nil && latency < 2*time.Second:
		status.State = core.Healthy
	case err == nil:
		status.State = core.Degraded
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		status.State = core.TimedOut
	default:
		if e, ok := core.AsError(err, core.Timeout); ok && e != nil {
			status.State = core.TimedOut
		} else {
			status.State = core.Unreachable
		}
	}

	if status.State == core.Healthy && (c.textRetry.Tripped() || c.textNoRetry.Tripped()) {
		status.State = core.Degraded
	}

	c.healthMu.Lock()
	c.lastHealth = status
	c.healthMu.Unlock()
	return status
}

// HealthStatus returns the last HealthCheck result, or the zero value
// (Healthy, 0 latency) if none has run yet.
func (c *Client) HealthStatus() core.HealthStatus {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.lastHealth
}

// probe is the core.Prober registered for SourceAUR: a name "is on AUR"
// iff Info for it succeeds.
func (c *Client) probe(ctx context.Context, name string) (core.PackageRef, bool, error) {
	results, err := c.Info(ctx, []string{name})
	if err != nil {
		if _, ok := core.AsError(err, core.PackageNotFound); ok {
			return core.PackageRef{}, false, nil
		}
		return core.PackageRef{}, false, err
	}
	if len(results) == 0 {
		return core.PackageRef{}, false, nil
	}
	return core.PackageRef{
		Name:    results[0].Name,
		Version: results[0].Version,
		Source:  core.PackageSource{Kind: core.SourceAUR},
	}, true, nil
}
