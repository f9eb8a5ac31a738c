// Package aur implements the AUR RPC/HTML network client: JSON and HTML
// parsing, endpoint URL construction, and the single client object that
// composes validation, caching, rate limiting, and retries around them.
package aur

import (
	"encoding/json"
	"strings"

	"github.com/archtk/archtk/internal/core"
)

// rpcEnvelope mirrors the AUR RPC v5 response shape per spec.md §4.2:
// { version, type, resultcount, results: [...] }, plus the error-case
// "error" field.
type rpcEnvelope struct {
	Version      int             `json:"version"`
	Type         string          `json:"type"`
	ResultCount  int             `json:"resultcount"`
	Results      json.RawMessage `json:"results"`
	ErrorMessage string          `json:"error"`
}

// rpcResult covers every field either a search or multiinfo result can
// carry; absent optional fields are left at their zero value.
type rpcResult struct {
	Name           string   `json:"Name"`
	Version        string   `json:"Version"`
	Description    string   `json:"Description"`
	Maintainer     *string  `json:"Maintainer"`
	Popularity     *float64 `json:"Popularity"`
	OutOfDate      *int64   `json:"OutOfDate"`
	URL            *string  `json:"URL"`
	License        []string `json:"License"`
	Depends        []string `json:"Depends"`
	MakeDepends    []string `json:"MakeDepends"`
	CheckDepends   []string `json:"CheckDepends"`
	OptDepends     []string `json:"OptDepends"`
	Provides       []string `json:"Provides"`
	Conflicts      []string `json:"Conflicts"`
	Replaces       []string `json:"Replaces"`
	FirstSubmitted *int64   `json:"FirstSubmitted"`
	LastModified   *int64   `json:"LastModified"`
	NumVotes       int      `json:"NumVotes"`
}

// decodeEnvelope unmarshals the top-level RPC envelope and surfaces an
// AurServiceError when the backend reported type == "error".
func decodeEnvelope(body []byte) (*rpcEnvelope, error) {
	var env rpcEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, core.NewParseError("malformed AUR RPC envelope", err)
	}
	if env.Type == "error" {
		return nil, core.NewAurServiceError(env.ErrorMessage)
	}
	return &env, nil
}

// ParseSearchResponse decodes an AUR RPC "search" response into
// PackageSummary rows, per spec.md §4.2.
func ParseSearchResponse(body []byte) ([]core.PackageSummary, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	if len(env.Results) == 0 {
		return nil, core.NewParseError("AUR RPC response missing \"results\" array", nil)
	}
	var results []rpcResult
	if err := json.Unmarshal(env.Results, &results); err != nil {
		return nil, core.NewParseError("malformed AUR RPC results array", err)
	}

	summaries := make([]core.PackageSummary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, toSummary(r))
	}
	return summaries, nil
}

// ParseInfoResponse decodes an AUR RPC "multiinfo" response into
// PackageDetails rows, per spec.md §4.2.
func ParseInfoResponse(body []byte) ([]core.PackageDetails, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	if len(env.Results) == 0 {
		return nil, core.NewParseError("AUR RPC response missing \"results\" array", nil)
	}
	var results []rpcResult
	if err := json.Unmarshal(env.Results, &results); err != nil {
		return nil, core.NewParseError("malformed AUR RPC results array", err)
	}

	details := make([]core.PackageDetails, 0, len(results))
	for _, r := range results {
		details = append(details, toDetails(r))
	}
	return details, nil
}

func toSummary(r rpcResult) core.PackageSummary {
	maintainer := ""
	if r.Maintainer != nil {
		maintainer = *r.Maintainer
	}
	return core.PackageSummary{
		Name:        strings.TrimSpace(r.Name),
		Version:     strings.TrimSpace(r.Version),
		Description: strings.TrimSpace(r.Description),
		Maintainer:  maintainer,
		Popularity:  r.Popularity,
		OutOfDate:   r.OutOfDate,
		Orphaned:    r.Maintainer == nil || *r.Maintainer == "",
	}
}

func toDetails(r rpcResult) core.PackageDetails {
	url := ""
	if r.URL != nil {
		url = *r.URL
	}
	return core.PackageDetails{
		PackageSummary: toSummary(r),
		URL:            url,
		Licenses:       r.License,
		Depends:        r.Depends,
		MakeDepends:    r.MakeDepends,
		CheckDepends:   r.CheckDepends,
		OptDepends:     r.OptDepends,
		Provides:       r.Provides,
		Conflicts:      r.Conflicts,
		Replaces:       r.Replaces,
		FirstSubmitted: r.FirstSubmitted,
		LastModified:   r.LastModified,
		NumVotes:       r.NumVotes,
	}
}
