package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_EnforcesMinGap(t *testing.T) {
	l := New()
	l.jitterMax = 0

	ctx := context.Background()
	start := time.Now()

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	l.Release(true)

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	elapsed := time.Since(start)
	l.Release(true)

	if elapsed < l.minGap {
		t.Errorf("elapsed = %v, want at least min gap %v", elapsed, l.minGap)
	}
}

func TestLimiter_BackoffGrowsOnFailureAndResetsOnSuccess(t *testing.T) {
	l := New()
	l.jitterMax = 0

	ctx := context.Background()
	_ = l.Wait(ctx)
	l.Release(false)
	if l.backoffGap <= l.minGap {
		t.Errorf("backoffGap after one failure = %v, want > minGap %v", l.backoffGap, l.minGap)
	}

	firstFailureGap := l.backoffGap
	_ = l.Wait(ctx)
	l.Release(false)
	if l.backoffGap <= firstFailureGap {
		t.Errorf("backoffGap did not grow on second failure: %v -> %v", firstFailureGap, l.backoffGap)
	}

	_ = l.Wait(ctx)
	l.Release(true)
	if l.backoffGap != 0 {
		t.Errorf("backoffGap after success = %v, want 0", l.backoffGap)
	}
}

func TestLimiter_ContextCancellation(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Drain the semaphore slot first so Wait has to block on it.
	l.sem <- struct{}{}
	defer func() { <-l.sem }()

	if err := l.Wait(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestHostKey_FoldsCgitIntoArchlinuxOrg(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://aur.archlinux.org/rpc/v5/info", "aur.archlinux.org"},
		{"https://aur.archlinux.org/packages/yay", "aur.archlinux.org"},
		{"https://aur.archlinux.org/cgit/aur.git/plain/PKGBUILD?h=yay", "archlinux.org"},
		{"https://archlinux.org/mirrorlist/", "archlinux.org"},
	}
	for _, tt := range tests {
		if got := hostKey(tt.url); got != tt.want {
			t.Errorf("hostKey(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestRegistry_RPCAndCgitUseSeparateBuckets(t *testing.T) {
	r := NewRegistry()
	rpc := r.For("https://aur.archlinux.org/rpc/v5/search/yay")
	pkg := r.For("https://aur.archlinux.org/packages/yay")
	cgit := r.For("https://aur.archlinux.org/cgit/aur.git/plain/PKGBUILD?h=yay")

	if rpc != pkg {
		t.Error("expected RPC and package-page URLs to share the aur.archlinux.org bucket")
	}
	if rpc == cgit {
		t.Error("expected cgit to draw from a separate bucket (archlinux.org), not share the RPC bucket")
	}
}
