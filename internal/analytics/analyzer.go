// Package analytics summarizes batch validation outcomes: verdict
// counts, score distribution, most frequent issues and a per-domain
// breakdown. Summaries feed the batch API response and the optional
// results repository.
package analytics

import (
	"sort"
	"strings"

	"github.com/ignite/mailcheck/internal/validator"
)

// Summary aggregates one batch run.
type Summary struct {
	Total        int            `json:"total"`
	Valid        int            `json:"valid"`
	Invalid      int            `json:"invalid"`
	AverageScore float64        `json:"average_score"`
	ScoreBuckets map[string]int `json:"score_buckets"`
	TopIssues    []IssueCount   `json:"top_issues"`
	Domains      []DomainCount  `json:"domains"`
}

// IssueCount pairs an issue string with its occurrence count.
type IssueCount struct {
	Issue string `json:"issue"`
	Count int    `json:"count"`
}

// DomainCount aggregates outcomes for one domain.
type DomainCount struct {
	Domain string `json:"domain"`
	Total  int    `json:"total"`
	Valid  int    `json:"valid"`
}

const maxTopIssues = 10

// Summarize builds a Summary from a slice of validation results.
func Summarize(results []validator.Result) Summary {
	s := Summary{
		Total:        len(results),
		ScoreBuckets: map[string]int{"0-24": 0, "25-49": 0, "50-74": 0, "75-100": 0},
	}
	if len(results) == 0 {
		return s
	}

	issueCounts := make(map[string]int)
	domainCounts := make(map[string]*DomainCount)
	scoreSum := 0

	for _, r := range results {
		if r.IsValid {
			s.Valid++
		} else {
			s.Invalid++
		}
		scoreSum += r.Score
		s.ScoreBuckets[bucket(r.Score)]++

		for _, issue := range r.Issues {
			issueCounts[issue]++
		}

		if at := strings.LastIndex(strings.ToLower(r.Email), "@"); at >= 0 && at < len(r.Email)-1 {
			domain := strings.ToLower(r.Email)[at+1:]
			dc, ok := domainCounts[domain]
			if !ok {
				dc = &DomainCount{Domain: domain}
				domainCounts[domain] = dc
			}
			dc.Total++
			if r.IsValid {
				dc.Valid++
			}
		}
	}

	s.AverageScore = float64(scoreSum) / float64(len(results))

	for issue, count := range issueCounts {
		s.TopIssues = append(s.TopIssues, IssueCount{Issue: issue, Count: count})
	}
	sort.Slice(s.TopIssues, func(i, j int) bool {
		if s.TopIssues[i].Count != s.TopIssues[j].Count {
			return s.TopIssues[i].Count > s.TopIssues[j].Count
		}
		return s.TopIssues[i].Issue < s.TopIssues[j].Issue
	})
	if len(s.TopIssues) > maxTopIssues {
		s.TopIssues = s.TopIssues[:maxTopIssues]
	}

	for _, dc := range domainCounts {
		s.Domains = append(s.Domains, *dc)
	}
	sort.Slice(s.Domains, func(i, j int) bool {
		if s.Domains[i].Total != s.Domains[j].Total {
			return s.Domains[i].Total > s.Domains[j].Total
		}
		return s.Domains[i].Domain < s.Domains[j].Domain
	})

	return s
}

func bucket(score int) string {
	switch {
	case score < 25:
		return "0-24"
	case score < 50:
		return "25-49"
	case score < 75:
		return "50-74"
	default:
		return "75-100"
	}
}
