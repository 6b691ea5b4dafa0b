// Package dedup collapses duplicate and near-duplicate email addresses.
// It runs in two phases: an exact pass over normalized addresses that
// preserves first-seen order, then a fuzzy pass that groups the
// survivors by domain and compares local parts by edit distance.
// Cross-domain similarity is not meaningful, so fuzzy matching never
// compares addresses on different domains.
package dedup

import (
	"strings"
	"sync"
)

// DefaultSimilarityThreshold is the edit distance at or below which two
// local parts count as near-duplicates.
const DefaultSimilarityThreshold = 2

// Stats summarizes one deduplication pass.
type Stats struct {
	Total           int `json:"total"`
	Unique          int `json:"unique"`
	ExactDuplicates int `json:"exact_duplicates"`
	Similar         int `json:"similar"`
}

// Outcome is the derived result of Deduplicate. It is recomputed per
// pass and never persisted.
type Outcome struct {
	// UniqueEmails holds the first occurrence of each address, in input order.
	UniqueEmails []string `json:"unique_emails"`
	// ExactDuplicates maps each canonical (normalized) address to the
	// later raw inputs that collapsed onto it.
	ExactDuplicates map[string][]string `json:"exact_duplicates"`
	// SimilarGroups maps a group representative to its near-duplicate members.
	SimilarGroups map[string][]string `json:"similar_groups"`
	Stats         Stats               `json:"stats"`
}

// Deduplicator detects duplicate and near-duplicate addresses in bulk.
type Deduplicator struct {
	threshold int
}

// New creates a Deduplicator. threshold <= 0 uses the default.
func New(threshold int) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Deduplicator{threshold: threshold}
}

// Deduplicate runs both phases over the input. The fuzzy phase is an
// O(n²) pairwise comparison within each domain group — fine for batches
// of ordinary size, not meant for unbounded input without pre-bucketing.
func (d *Deduplicator) Deduplicate(emails []string) Outcome {
	out := Outcome{
		ExactDuplicates: make(map[string][]string),
		SimilarGroups:   make(map[string][]string),
		Stats:           Stats{Total: len(emails)},
	}

	// Phase 1: exact duplicates on the normalized form.
	seen := make(map[string]bool, len(emails))
	for _, email := range emails {
		normalized := Normalize(email)
		if seen[normalized] {
			out.ExactDuplicates[normalized] = append(out.ExactDuplicates[normalized], email)
			out.Stats.ExactDuplicates++
			continue
		}
		seen[normalized] = true
		out.UniqueEmails = append(out.UniqueEmails, email)
	}
	out.Stats.Unique = len(out.UniqueEmails)

	// Phase 2: near-duplicates within each domain group. Members are
	// folded into their representative and removed from the unique list,
	// so a second pass over UniqueEmails finds nothing new.
	claimed := make(map[string]bool)
	for _, group := range groupByDomain(out.UniqueEmails) {
		for rep, members := range d.findSimilar(group) {
			out.SimilarGroups[rep] = append(out.SimilarGroups[rep], members...)
			out.Stats.Similar += len(members)
			for _, m := range members {
				claimed[m] = true
			}
		}
	}
	if len(claimed) > 0 {
		kept := out.UniqueEmails[:0]
		for _, email := range out.UniqueEmails {
			if !claimed[email] {
				kept = append(kept, email)
			}
		}
		out.UniqueEmails = kept
		out.Stats.Unique = len(out.UniqueEmails)
	}

	return out
}

// Normalize lower-cases and trims an address.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func groupByDomain(emails []string) map[string][]string {
	groups := make(map[string][]string)
	for _, email := range emails {
		parts := strings.Split(Normalize(email), "@")
		if len(parts) != 2 {
			continue
		}
		groups[parts[1]] = append(groups[parts[1]], email)
	}
	return groups
}

// findSimilar walks a single domain group. The first unvisited address
// becomes the representative of its group; every later unvisited address
// whose local part is within the threshold joins it. A member claimed by
// an earlier group never joins a second one.
func (d *Deduplicator) findSimilar(emails []string) map[string][]string {
	groups := make(map[string][]string)
	visited := make(map[string]bool)

	for _, email := range emails {
		if visited[email] {
			continue
		}

		local := localPart(email)
		var members []string
		for _, other := range emails {
			if other == email || visited[other] {
				continue
			}
			if Distance(local, localPart(other)) <= d.threshold {
				members = append(members, other)
				visited[other] = true
			}
		}

		if len(members) > 0 {
			groups[email] = members
			visited[email] = true
		}
	}
	return groups
}

func localPart(email string) string {
	if at := strings.Index(Normalize(email), "@"); at >= 0 {
		return Normalize(email)[:at]
	}
	return Normalize(email)
}

// Session tracks addresses seen across successive validation calls, for
// the per-submission duplicate check. It is owned by the caller and its
// lifecycle is tied to the caller's session, not to process lifetime.
// Safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	threshold int
	seen      []string
	seenSet   map[string]bool
}

// NewSession creates a duplicate-tracking session. threshold <= 0 uses
// the default.
func NewSession(threshold int) *Session {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Session{
		threshold: threshold,
		seenSet:   make(map[string]bool),
	}
}

// Observe records an address and reports how it relates to the addresses
// seen before it: "exact" when already present, "similar" (plus the
// matched address) when a same-domain local part is within the
// threshold, "" when new.
func (s *Session) Observe(email string) (kind string, match string) {
	normalized := Normalize(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seenSet[normalized] {
		return "exact", normalized
	}

	parts := strings.Split(normalized, "@")
	if len(parts) == 2 {
		for _, prev := range s.seen {
			prevParts := strings.Split(prev, "@")
			if len(prevParts) != 2 || prevParts[1] != parts[1] {
				continue
			}
			if Distance(parts[0], prevParts[0]) <= s.threshold {
				s.record(normalized)
				return "similar", prev
			}
		}
	}

	s.record(normalized)
	return "", ""
}

// Len returns the number of distinct addresses observed.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *Session) record(normalized string) {
	s.seenSet[normalized] = true
	s.seen = append(s.seen, normalized)
}
