package core

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories a network or parser
// operation can produce (spec.md §7).
type ErrorKind int

const (
	Transport ErrorKind = iota
	Timeout
	HTTPStatus
	ParseErr
	AurService
	PackageNotFound
	EmptyInput
	InputTooLong
	InvalidPackageName
	InvalidSearchQuery
	CacheErr
	ResolverErr
)

func (k ErrorKind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Timeout:
		return "timeout"
	case HTTPStatus:
		return "http_status"
	case ParseErr:
		return "parse_error"
	case AurService:
		return "aur_service_error"
	case PackageNotFound:
		return "package_not_found"
	case EmptyInput:
		return "empty_input"
	case InputTooLong:
		return "input_too_long"
	case InvalidPackageName:
		return "invalid_package_name"
	case InvalidSearchQuery:
		return "invalid_search_query"
	case CacheErr:
		return "cache_error"
	case ResolverErr:
		return "resolver_error"
	default:
		return "unknown"
	}
}

// Error is the single sum-typed error value every operation in this module
// returns. It always carries a Kind and, for wrapped failures, a Cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error

	StatusCode int    // HTTPStatus only
	Name       string // PackageNotFound, InvalidPackageName
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the retry loop in the AUR client should attempt
// this error again, per the table in spec.md §7.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case Transport, Timeout:
		return true
	case HTTPStatus:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// NewTransportError wraps a network-level failure.
func NewTransportError(cause error) *Error { return newError(Transport, "transport failure", cause) }

// NewTimeoutError wraps a deadline-exceeded failure.
func NewTimeoutError(cause error) *Error { return newError(Timeout, "request timed out", cause) }

// NewHTTPStatusError wraps a non-2xx HTTP response.
func NewHTTPStatusError(code int, url string) *Error {
	e := newError(HTTPStatus, fmt.Sprintf("HTTP %d: %s", code, url), nil)
	e.StatusCode = code
	return e
}

// NewParseError wraps a grammar violation in a response or local file body.
func NewParseError(message string, cause error) *Error { return newError(ParseErr, message, cause) }

// NewAurServiceError wraps an AUR RPC envelope whose type is "error".
func NewAurServiceError(message string) *Error { return newError(AurService, message, nil) }

// NewPackageNotFoundError wraps an info/comments/pkgbuild miss for a name.
func NewPackageNotFoundError(name string) *Error {
	e := newError(PackageNotFound, fmt.Sprintf("package %q not found", name), nil)
	e.Name = name
	return e
}

// NewEmptyInputError flags a required input that was empty after trimming.
func NewEmptyInputError() *Error { return newError(EmptyInput, "input must not be empty", nil) }

// NewInputTooLongError flags an input exceeding its configured max length.
func NewInputTooLongError(max int) *Error {
	return newError(InputTooLong, fmt.Sprintf("input exceeds maximum length of %d", max), nil)
}

// NewInvalidPackageNameError flags a name failing the grammar in spec.md §6.
func NewInvalidPackageNameError(name string) *Error {
	e := newError(InvalidPackageName, fmt.Sprintf("invalid package name: %q", name), nil)
	e.Name = name
	return e
}

// NewInvalidSearchQueryError flags a malformed search query.
func NewInvalidSearchQueryError(reason string) *Error {
	return newError(InvalidSearchQuery, reason, nil)
}

// NewCacheError wraps a disk-cache I/O failure. Read and write failures
// inside the cache are logged and treated as a miss, not wrapped in this
// kind; it is returned by cache.New when the disk-cache directory cannot
// be created, and so can surface from NewClient.
func NewCacheError(cause error) *Error { return newError(CacheErr, "cache error", cause) }

// NewResolverError wraps a subprocess failure during dependency resolution
// that cannot be gracefully degraded. The resolvers in this module do not
// construct one: pacman query failures, a failed batch pacman -Si
// included, degrade to empty results.
func NewResolverError(message string, cause error) *Error {
	return newError(ResolverErr, message, cause)
}

// SearchError wraps a failed search(query) call with the offending query.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string { return fmt.Sprintf("search(%q): %v", e.Query, e.Err) }
func (e *SearchError) Unwrap() error { return e.Err }

// InfoError wraps a failed info(names) call with the offending names.
type InfoError struct {
	Names []string
	Err   error
}

func (e *InfoError) Error() string { return fmt.Sprintf("info(%v): %v", e.Names, e.Err) }
func (e *InfoError) Unwrap() error { return e.Err }

// CommentsError wraps a failed comments(pkg) call with the offending name.
type CommentsError struct {
	Name string
	Err  error
}

func (e *CommentsError) Error() string { return fmt.Sprintf("comments(%q): %v", e.Name, e.Err) }
func (e *CommentsError) Unwrap() error { return e.Err }

// PkgbuildError wraps a failed pkgbuild(pkg) call with the offending name.
type PkgbuildError struct {
	Name string
	Err  error
}

func (e *PkgbuildError) Error() string { return fmt.Sprintf("pkgbuild(%q): %v", e.Name, e.Err) }
func (e *PkgbuildError) Unwrap() error { return e.Err }

// ResolveError wraps a failed forward-resolve or reverse-analyze call.
type ResolveError struct {
	Roots []string
	Err   error
}

func (e *ResolveError) Error() string { return fmt.Sprintf("resolve(%v): %v", e.Roots, e.Err) }
func (e *ResolveError) Unwrap() error { return e.Err }

// AsError reports whether err (or something it wraps) is an *Error of the
// given kind, mirroring the teacher's isHTTPError type-assertion helper
// but generalized via errors.As.
func AsError(err error, kind ErrorKind) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == kind {
		return e, true
	}
	return nil, false
}
