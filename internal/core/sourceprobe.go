package core

import (
	"context"
	"fmt"
	"sync"
)

// Prober answers whether a given package name can be found in the backend
// it represents, returning the resolved PackageRef when it can.
type Prober func(ctx context.Context, name string) (PackageRef, bool, error)

var (
	probers     = make(map[PackageSourceKind]Prober)
	proberOrder []PackageSourceKind
	proberMu    sync.RWMutex
)

// RegisterProber installs the Prober for a source kind and appends it to
// the probe order if this is the first registration for that kind. This
// mirrors the teacher's global factory map in shape (Register/New/
// SupportedEcosystems became RegisterProber/ProbeSource/ProbeOrder) but
// answers "which backend has this package" instead of "construct a
// registry client for this ecosystem".
func RegisterProber(kind PackageSourceKind, p Prober) {
	proberMu.Lock()
	defer proberMu.Unlock()
	if _, exists := probers[kind]; !exists {
		proberOrder = append(proberOrder, kind)
	}
	probers[kind] = p
}

// ProbeSource determines where name lives by walking the registered
// probers in registration order and returning the first hit. In this
// module only internal/aur's NewClient registers a prober (SourceAUR); no
// official-repository or local prober is registered.
func ProbeSource(ctx context.Context, name string) (PackageRef, error) {
	proberMu.RLock()
	order := append([]PackageSourceKind(nil), proberOrder...)
	snapshot := make(map[PackageSourceKind]Prober, len(probers))
	for k, p := range probers {
		snapshot[k] = p
	}
	proberMu.RUnlock()

	for _, kind := range order {
		prober := snapshot[kind]
		ref, found, err := prober(ctx, name)
		if err != nil {
			return PackageRef{}, err
		}
		if found {
			return ref, nil
		}
	}
	return PackageRef{}, NewPackageNotFoundError(name)
}

// ProbeOrder returns the source kinds that will be consulted, in the order
// they will be consulted.
func ProbeOrder() []PackageSourceKind {
	proberMu.RLock()
	defer proberMu.RUnlock()
	return append([]PackageSourceKind(nil), proberOrder...)
}

// ResetProbers clears all registered probers. Exercised by tests that need
// a clean global map between cases; production callers never need this.
func ResetProbers() {
	proberMu.Lock()
	defer proberMu.Unlock()
	probers = make(map[PackageSourceKind]Prober)
	proberOrder = nil
}

func (k PackageSourceKind) validate() error {
	switch k {
	case SourceOfficial, SourceAUR, SourceLocal:
		return nil
	default:
		return fmt.Errorf("unsupported package source kind: %v", k)
	}
}
