package services

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// Aggregator deduplicates and ranks search results. It is pure and
// safe for concurrent use.
type Aggregator struct {
	maxResults int
}

// NewAggregator creates an aggregator truncating to maxResults.
// A non-positive maxResults keeps every result.
func NewAggregator(maxResults int) *Aggregator {
	return &Aggregator{maxResults: maxResults}
}

// Aggregate merges results into one ranked sequence. Duplicates (same
// IdentityKey) keep the higher score, then the more recent FetchedAt.
// The survivor takes the position of the first occurrence, then a
// stable sort by descending score applies, so the output is
// deterministic and Aggregate(Aggregate(x)) == Aggregate(x).
func (a *Aggregator) Aggregate(results []domain.SearchResult) []domain.SearchResult {
	index := make(map[string]int, len(results))
	out := make([]domain.SearchResult, 0, len(results))

	for _, r := range results {
		key := IdentityKey(r)
		if i, ok := index[key]; ok {
			if better(r, out[i]) {
				out[i] = r
			}
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})

	if a.maxResults > 0 && len(out) > a.maxResults {
		out = out[:a.maxResults]
	}
	return out
}

// better reports whether candidate should replace current.
func better(candidate, current domain.SearchResult) bool {
	if candidate.RelevanceScore != current.RelevanceScore {
		return candidate.RelevanceScore > current.RelevanceScore
	}
	if !candidate.FetchedAt.Equal(current.FetchedAt) {
		return candidate.FetchedAt.After(current.FetchedAt)
	}
	// Full tie: pick by content so the winner does not depend on input order.
	if candidate.Title != current.Title {
		return candidate.Title < current.Title
	}
	if candidate.Snippet != current.Snippet {
		return candidate.Snippet < current.Snippet
	}
	return candidate.Source < current.Source
}

// IdentityKey returns the deduplication key of a result: its normalised
// URL, or a content hash of title and snippet when it has no URL.
func IdentityKey(r domain.SearchResult) string {
	if u := NormalizeURL(r.URL); u != "" {
		return "url:" + u
	}
	sum := sha256.Sum256([]byte(r.Title + "\n" + r.Snippet))
	return "hash:" + hex.EncodeToString(sum[:])
}

// NormalizeURL lowercases scheme and host, drops the fragment, default
// ports and a trailing slash, and sorts query parameters. Unparseable
// input is returned trimmed and lowercased.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(raw), "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}
	return u.String()
}
