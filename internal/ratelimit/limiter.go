// Package ratelimit implements the per-host pacing the network client
// applies before every outbound AUR request.
package ratelimit

import (
	"context"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenk/backoff"
)

// Defaults mirror the network client's built-in policy: a 200ms minimum
// gap between requests to the same host, and jitter up to 500ms on top of
// whatever delay the minimum gap or backoff currently calls for.
const (
	DefaultMinGap    = 200 * time.Millisecond
	DefaultJitterMax = 500 * time.Millisecond
	maxBackoff       = 60 * time.Second
)

// Limiter paces requests to a single host: a semaphore of size one
// serializes outbound requests, a last-request timestamp enforces a
// minimum gap, and an exponential backoff multiplier (reset on success,
// doubled on failure, capped at 60s) stretches the gap after repeated
// failures.
type Limiter struct {
	minGap    time.Duration
	jitterMax time.Duration

	mu          sync.Mutex
	sem         chan struct{}
	lastRequest time.Time
	backoffGap  time.Duration
	bo          *backoff.ExponentialBackOff
}

// New builds a Limiter with DefaultMinGap and DefaultJitterMax. Every host
// gets these same values; there is no per-host override.
func New() *Limiter {
	bo := backoff.NewExponentialBackOff()
	// The first failure already doubles the gap: 2x minGap, then 4x, ...
	bo.InitialInterval = 2 * DefaultMinGap
	bo.MaxElapsedTime = 0 // never return backoff.Stop; the cap holds
	bo.MaxInterval = maxBackoff
	bo.Multiplier = 2.0
	bo.RandomizationFactor = 0 // jitter is applied separately, see Wait
	bo.Reset()

	return &Limiter{
		minGap:    DefaultMinGap,
		jitterMax: DefaultJitterMax,
		sem:       make(chan struct{}, 1),
		bo:        bo,
	}
}

// Wait blocks until it is this caller's turn to issue a request: it
// acquires the host's single in-flight slot, then sleeps out whatever is
// left of the minimum gap or backoff delay since the last completed
// request, plus jitter.
func (l *Limiter) Wait(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.mu.Lock()
	delay := l.minGap
	if l.backoffGap > delay {
		delay = l.backoffGap
	}
	delay += time.Duration(rand.Int63n(int64(l.jitterMax) + 1))
	target := l.lastRequest.Add(delay)
	l.mu.Unlock()

	if wait := time.Until(target); wait > 0 {
		select {
		case <-ctx.Done():
			<-l.sem
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil
}

// Release marks the in-flight request complete, records the completion
// time for the next gap calculation, and adjusts the backoff multiplier:
// success resets it to 1x, failure doubles it (capped at 60s).
func (l *Limiter) Release(success bool) {
	l.mu.Lock()
	l.lastRequest = time.Now()
	if success {
		l.bo.Reset()
		l.backoffGap = 0
	} else {
		l.backoffGap = l.bo.NextBackOff()
	}
	l.mu.Unlock()

	<-l.sem
}

// hostKey normalizes a URL to the rate-limit bucket it should draw from.
// spec.md §4.5 tracks aur.archlinux.org and archlinux.org separately, but
// says the AUR cgit mirror inherits archlinux.org's budget rather than
// aur.archlinux.org's — even though cgit is served from the
// aur.archlinux.org hostname, so the bucket can't be chosen from the host
// alone. The cgit path prefix is what actually distinguishes it from the
// RPC and package-page endpoints that share the narrower aur.archlinux.org
// budget.
func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if strings.Contains(u.Path, "/cgit/") || u.Hostname() == "archlinux.org" {
		return "archlinux.org"
	}
	return "aur.archlinux.org"
}

// Registry holds one Limiter per host, created lazily on first use.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry builds an empty host-keyed Limiter registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// For returns the Limiter for the host that rawURL targets, creating one
// if this is the first request to that host.
func (r *Registry) For(rawURL string) *Limiter {
	key := hostKey(rawURL)

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[key]
	if !ok {
		l = New()
		r.limiters[key] = l
	}
	return l
}
