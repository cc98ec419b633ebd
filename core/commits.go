package core

import (
	"slices"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/schema"
)

// Layouts used for commit dates.
const (
	latestDateLayout = "02 Jan 2006"
	monthKeyLayout   = "2006-01"
)

// CommitSummary is the digest of a repository's recent history.
type CommitSummary struct {
	Contributors     int
	LatestCommitDate string
	Histogram        schema.CommitHistogram
}

// SummarizeCommits digests commits ordered newest first.
// Dates are bucketed in UTC so results do not depend on the host time zone.
func SummarizeCommits(commits []schema.Commit) CommitSummary {
	summary := CommitSummary{
		LatestCommitDate: schema.NotAvailable,
		Histogram:        schema.CommitHistogram{},
	}
	if len(commits) == 0 {
		return summary
	}
	summary.LatestCommitDate = commits[0].When.UTC().Format(latestDateLayout)

	authors := make(map[string]struct{})
	months := make(map[string]int)
	for _, c := range commits {
		authors[c.AuthorEmail] = struct{}{}
		months[c.When.UTC().Format(monthKeyLayout)]++
	}
	summary.Contributors = len(authors)

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if len(keys) > contract.MaxHistogramLen {
		keys = keys[len(keys)-contract.MaxHistogramLen:]
	}
	for _, k := range keys {
		summary.Histogram[k] = months[k]
	}
	return summary
}
