// Package archtk is an Arch Linux package metadata and dependency
// resolution toolkit: an AUR RPC/cgit client, pacman.conf and local
// pacman-database readers, and forward/reverse dependency graph builders,
// behind one configured Client.
//
// Basic usage:
//
//	import (
//		"context"
//		"log"
//		"github.com/archtk/archtk"
//	)
//
//	client, err := archtk.NewClient()
//	if err != nil {
//		log.Fatal(err)
//	}
//	pkgs, err := client.Search(context.Background(), "yay")
package archtk

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/archtk/archtk/internal/aur"
	"github.com/archtk/archtk/internal/core"
	"github.com/archtk/archtk/internal/metadata"
	"github.com/archtk/archtk/internal/pacmanexec"
	"github.com/archtk/archtk/internal/resolve"
	"github.com/archtk/archtk/internal/version"
)

// Re-exported data types, so callers never need to import internal/core.
type (
	PackageSummary       = core.PackageSummary
	PackageDetails       = core.PackageDetails
	Comment              = core.Comment
	DependencySpec       = core.DependencySpec
	Dependency           = core.Dependency
	DependencyStatus     = core.DependencyStatus
	DependencyResolution = core.DependencyResolution
	ReverseReport        = core.ReverseReport
	ReverseRootSummary   = core.ReverseRootSummary
	PackageRef           = core.PackageRef
	PackageSource        = core.PackageSource
	SrcinfoData          = core.SrcinfoData
	SrcinfoPackage       = core.SrcinfoPackage
	OfficialPackage      = core.OfficialPackage
	OfficialIndex        = core.OfficialIndex
	HealthStatus         = core.HealthStatus
	PURL                 = core.PURL
	Repo                 = metadata.Repo
	Upgrade              = pacmanexec.Upgrade
)

// Re-exported enum values.
const (
	SourceUnknown  = core.SourceUnknown
	SourceOfficial = core.SourceOfficial
	SourceAUR      = core.SourceAUR
	SourceLocal    = core.SourceLocal

	StatusInstalled = core.StatusInstalled
	StatusToInstall = core.StatusToInstall
	StatusToUpgrade = core.StatusToUpgrade
	StatusMissing   = core.StatusMissing
	StatusConflict  = core.StatusConflict

	Healthy     = core.Healthy
	Degraded    = core.Degraded
	Unreachable = core.Unreachable
	TimedOut    = core.TimedOut
)

// NewOfficialIndex builds an OfficialIndex from an unordered slice of
// OfficialPackage, rebuilding its name index.
func NewOfficialIndex(pkgs []OfficialPackage) *OfficialIndex { return core.NewOfficialIndex(pkgs) }

// ParsePURL parses a Package URL string into its components.
func ParsePURL(purlStr string) (*PURL, error) { return core.ParsePURL(purlStr) }

// PackageRefFromPURL turns a "pkg:aur/<name>@<version>" string into a
// PackageRef.
func PackageRefFromPURL(purlStr string) (PackageRef, error) { return core.PackageRefFromPURL(purlStr) }

// PURLFor builds a "pkg:aur/<name>[@<version>]" PURL string for ref.
func PURLFor(ref PackageRef) string { return core.PURLFor(ref) }

// Compare orders two pacman-style version strings: negative if a < b,
// zero if equal, positive if a > b.
func Compare(a, b string) int { return version.Compare(a, b) }

// VersionSatisfies reports whether installed satisfies "op required"
// (e.g. Satisfies("2.43-1", ">=", "2.40")).
func VersionSatisfies(installed, op, required string) (bool, error) {
	return version.Satisfies(installed, op, required)
}

// IsMajorVersionBump reports whether the first numeric pkgver component
// of to differs from that of from, in either direction.
func IsMajorVersionBump(from, to string) bool { return version.IsMajorVersionBump(from, to) }

// Local pacman-database pass-throughs (spec.md §4.6). Every call degrades
// to its zero value when pacman is unavailable or the subprocess fails;
// none of them return an error.
func InstalledNames(ctx context.Context) []string { return pacmanexec.InstalledNames(ctx) }

func ExplicitlyInstalled(ctx context.Context, leavesOnly bool) []string {
	return pacmanexec.ExplicitlyInstalled(ctx, leavesOnly)
}

func Upgradable(ctx context.Context) []Upgrade { return pacmanexec.Upgradable(ctx) }

func InstalledVersion(ctx context.Context, name string) string {
	return pacmanexec.InstalledVersion(ctx, name)
}

func RepoVersion(ctx context.Context, name string) string { return pacmanexec.RepoVersion(ctx, name) }
func ConfiguredRepos(pacmanConfPath string) []Repo {
	return pacmanexec.ConfiguredRepos(pacmanConfPath)
}
func HasInstalledRequiredBy(ctx context.Context, name string) bool {
	return resolve.HasInstalledRequiredBy(ctx, name)
}
func GetInstalledRequiredBy(ctx context.Context, name string) []string {
	return resolve.GetInstalledRequiredBy(ctx, name)
}

// Client is the single configured object for every AUR network operation
// plus the two dependency-graph orchestrations.
type Client struct {
	aur         *aur.Client
	forwardOpts resolve.ForwardOptions
}

// Option configures a Client, following the same functional-options shape
// as the builder this module's AUR transport itself uses.
type Option func(*aur.Config, *resolve.ForwardOptions)

// WithTimeout sets the HTTP request timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *aur.Config, _ *resolve.ForwardOptions) { c.Timeout = d }
}

// WithHealthCheckTimeout sets the health-probe timeout (default 5s).
func WithHealthCheckTimeout(d time.Duration) Option {
	return func(c *aur.Config, _ *resolve.ForwardOptions) { c.HealthCheckTimeout = d }
}

// WithUserAgent sets the HTTP User-Agent string.
func WithUserAgent(ua string) Option {
	return func(c *aur.Config, _ *resolve.ForwardOptions) { c.UserAgent = ua }
}

// WithMaxRetries sets how many times a failed request is retried
// (default 3). A value of 0 is replaced by that default; use
// WithRetryEnabled(false) for a single attempt.
func WithMaxRetries(n int) Option {
	return func(c *aur.Config, _ *resolve.ForwardOptions) { c.MaxRetries = n }
}

// WithRetryEnabled turns the retry policy on or off entirely.
func WithRetryEnabled(enabled bool) Option {
	return func(c *aur.Config, _ *resolve.ForwardOptions) { c.RetryEnabled = enabled }
}

// WithRetryDelay sets the initial and max retry backoff delays.
func WithRetryDelay(initial, max time.Duration) Option {
	return func(c *aur.Config, _ *resolve.ForwardOptions) {
		c.RetryInitialDelay = initial
		c.RetryMaxDelay = max
	}
}

// WithValidationStrict toggles strict vs. lenient name/query validation.
func WithValidationStrict(strict bool) Option {
	return func(c *aur.Config, _ *resolve.ForwardOptions) { c.ValidationStrict = strict }
}

// WithBulkConcurrency bounds BulkInfo's in-flight request count.
func WithBulkConcurrency(n int) Option {
	return func(c *aur.Config, _ *resolve.ForwardOptions) { c.BulkConcurrency = n }
}

// WithCache enables the memory+disk two-tier cache for search, info,
// comments, and pkgbuild/srcinfo lookups, with the given memory capacity,
// disk directory, and per-operation TTL. Pass dir == "" for memory-only.
func WithCache(memSize int, dir string, ttl time.Duration) Option {
	return func(c *aur.Config, _ *resolve.ForwardOptions) {
		c.MemCacheSize = memSize
		c.DiskCacheDir = dir
		c.SearchCacheEnabled, c.SearchTTL = true, ttl
		c.InfoCacheEnabled, c.InfoTTL = true, ttl
		c.CommentsCacheEnabled, c.CommentsTTL = true, ttl
		c.PkgbuildCacheEnabled, c.PkgbuildTTL = true, ttl
	}
}

// WithLogger installs a structured logger; the default discards everything.
func WithLogger(l core.Logger) Option {
	return func(c *aur.Config, _ *resolve.ForwardOptions) { c.Logger = l }
}

// WithMaxDepth bounds forward dependency resolution depth (0 = direct
// dependencies only, the default).
func WithMaxDepth(depth int) Option {
	return func(_ *aur.Config, f *resolve.ForwardOptions) { f.MaxDepth = depth }
}

// WithCheckAUR lets the forward resolver consult the AUR: it fetches
// .SRCINFO for AUR roots that no PkgbuildCache entry covers, and probes
// for a PKGBUILD to classify a dependency found in no official repository.
func WithCheckAUR(enabled bool) Option {
	return func(_ *aur.Config, f *resolve.ForwardOptions) { f.CheckAUR = enabled }
}

// WithOptionalDependencies includes optdepends entries in forward
// resolution (excluded by default, since they are not hard requirements).
func WithOptionalDependencies(enabled bool) Option {
	return func(_ *aur.Config, f *resolve.ForwardOptions) { f.IncludeOptDepends = enabled }
}

// WithBuildDependencies includes makedepends/checkdepends entries in
// forward resolution (excluded by default).
func WithBuildDependencies(enabled bool) Option {
	return func(_ *aur.Config, f *resolve.ForwardOptions) {
		f.IncludeMakeDepends = enabled
		f.IncludeCheckDepends = enabled
	}
}

// WithEnv applies the ARCH_TOOLKIT_* environment variables of spec.md §6
// on top of whatever options precede it; apply it last so the environment
// wins. Malformed values are silently ignored, leaving the prior value in
// place.
func WithEnv() Option {
	return func(c *aur.Config, _ *resolve.ForwardOptions) {
		if v, ok := envDuration("ARCH_TOOLKIT_TIMEOUT"); ok {
			c.Timeout = v
		}
		if v, ok := envDuration("ARCH_TOOLKIT_HEALTH_CHECK_TIMEOUT"); ok {
			c.HealthCheckTimeout = v
		}
		if v, ok := os.LookupEnv("ARCH_TOOLKIT_USER_AGENT"); ok && v != "" {
			c.UserAgent = v
		}
		if v, ok := envInt("ARCH_TOOLKIT_MAX_RETRIES"); ok {
			c.MaxRetries = v
		}
		if v, ok := envBool("ARCH_TOOLKIT_RETRY_ENABLED"); ok {
			c.RetryEnabled = v
		}
		if v, ok := envMillis("ARCH_TOOLKIT_RETRY_INITIAL_DELAY_MS"); ok {
			c.RetryInitialDelay = v
		}
		if v, ok := envMillis("ARCH_TOOLKIT_RETRY_MAX_DELAY_MS"); ok {
			c.RetryMaxDelay = v
		}
		if v, ok := envBool("ARCH_TOOLKIT_VALIDATION_STRICT"); ok {
			c.ValidationStrict = v
		}
		if v, ok := envInt("ARCH_TOOLKIT_CACHE_SIZE"); ok {
			c.MemCacheSize = v
		}
	}
}

func envInt(name string) (int, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(name string) (time.Duration, bool) {
	n, ok := envInt(name)
	if !ok {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

func envMillis(name string) (time.Duration, bool) {
	n, ok := envInt(name)
	if !ok {
		return 0, false
	}
	return time.Duration(n) * time.Millisecond, true
}

func envBool(name string) (bool, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// NewClient builds a Client with DefaultConfig values, applying opts in
// order (apply WithEnv() last so the environment takes precedence).
func NewClient(opts ...Option) (*Client, error) {
	cfg := aur.DefaultConfig()
	var forwardOpts resolve.ForwardOptions
	for _, opt := range opts {
		opt(&cfg, &forwardOpts)
	}

	aurClient, err := aur.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{aur: aurClient, forwardOpts: forwardOpts}, nil
}

// Search issues an AUR RPC search by name.
func (c *Client) Search(ctx context.Context, query string) ([]PackageSummary, error) {
	return c.aur.Search(ctx, query)
}

// Info issues an AUR RPC multiinfo call for names.
func (c *Client) Info(ctx context.Context, names []string) ([]PackageDetails, error) {
	return c.aur.Info(ctx, names)
}

// BulkInfo fetches info for many names at bounded concurrency, omitting
// any name that fails rather than aborting the whole batch.
func (c *Client) BulkInfo(ctx context.Context, names []string) map[string]PackageDetails {
	return c.aur.BulkInfo(ctx, names)
}

// Comments fetches and parses an AUR package's comment feed.
func (c *Client) Comments(ctx context.Context, name string) ([]Comment, error) {
	return c.aur.Comments(ctx, name)
}

// Pkgbuild fetches the raw PKGBUILD text for an AUR package, verbatim.
func (c *Client) Pkgbuild(ctx context.Context, name string) (string, error) {
	return c.aur.Pkgbuild(ctx, name)
}

// Srcinfo fetches the raw .SRCINFO text for an AUR package, verbatim.
func (c *Client) Srcinfo(ctx context.Context, name string) (string, error) {
	return c.aur.Srcinfo(ctx, name)
}

// HealthCheck issues a minimal AUR RPC call and classifies the outcome.
func (c *Client) HealthCheck(ctx context.Context) HealthStatus {
	return c.aur.HealthCheck(ctx)
}

// HealthStatus returns the last HealthCheck result.
func (c *Client) HealthStatus() HealthStatus { return c.aur.HealthStatus() }

// Invalidator exposes this client's cache-invalidation surface.
func (c *Client) Invalidator() Invalidator { return c.aur.Invalidator() }

// Invalidator clears cached entries by key, by package, or entirely.
type Invalidator = invalidatorIface

// invalidatorIface mirrors internal/cache.Invalidator's exported surface,
// so callers never need to import internal/cache to hold a reference.
type invalidatorIface interface {
	InvalidateKey(operation, key string)
	InvalidatePackage(name string)
	ClearAll()
}

// ProbeSource looks up name across the registered package sources in
// registration order. NewClient registers the AUR source; no
// official-repository or local source is registered.
func ProbeSource(ctx context.Context, name string) (PackageRef, error) {
	return core.ProbeSource(ctx, name)
}

// ResolveDependencies runs forward dependency resolution from roots,
// honoring the depth, build/opt-dependency, and AUR-fallback options this
// Client was built with (WithMaxDepth, WithCheckAUR,
// WithOptionalDependencies, WithBuildDependencies).
func (c *Client) ResolveDependencies(ctx context.Context, roots []PackageRef) (*DependencyResolution, error) {
	r := resolve.NewResolver(c.forwardOpts, c.aur)
	return r.Resolve(ctx, roots)
}

// AnalyzeReverse runs the reverse dependency analyzer over roots: which
// currently-installed packages require roots, directly or transitively,
// and so would lose a dependency were roots removed.
func (c *Client) AnalyzeReverse(ctx context.Context, roots []PackageRef) (*ReverseReport, error) {
	return resolve.NewReverseAnalyzer().Analyze(ctx, roots)
}
