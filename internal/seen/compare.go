// Package seen tracks which ranked jobs a user has already reviewed, keyed
// by normalized title and company.
package seen

import (
	"strings"

	"github.com/MrJJimenez/jobscout/internal/models"
)

const keySeparator = "::"

// DiffStats captures stats for A-B unseen filtering.
type DiffStats struct {
	TotalNew    int
	TotalSeen   int
	InvalidNew  int
	InvalidSeen int
	Unseen      int
}

func (s DiffStats) InvalidSkipped() int {
	return s.InvalidNew + s.InvalidSeen
}

// MergeStats captures stats for seen history updates.
type MergeStats struct {
	TotalSeen    int
	TotalInput   int
	InvalidSeen  int
	InvalidInput int
	Added        int
	TotalOut     int
}

func (s MergeStats) InvalidSkipped() int {
	return s.InvalidSeen + s.InvalidInput
}

// Normalize lowercases value and collapses whitespace.
func Normalize(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// Key identifies a job across sources and searches. Listings without a real
// company fall back to their URL so unrelated placeholders never collide.
func Key(job models.ScoredJob) (string, bool) {
	title := Normalize(job.Title)
	if title == "" {
		return "", false
	}
	company := Normalize(job.Company)
	if company == "" || company == Normalize(models.UnknownCompany) {
		url := strings.TrimSpace(job.URL)
		if url == "" {
			return "", false
		}
		return title + keySeparator + url, true
	}
	return title + keySeparator + company, true
}

type keySet map[string]struct{}

// add reports whether key was new.
func (s keySet) add(key string) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}

// Diff returns the jobs of newJobs not present in seenJobs, in their
// original order and re-ranked from 1.
func Diff(newJobs, seenJobs []models.ScoredJob) ([]models.ScoredJob, DiffStats) {
	stats := DiffStats{TotalNew: len(newJobs), TotalSeen: len(seenJobs)}

	seenKeys := make(keySet, len(seenJobs))
	for _, job := range seenJobs {
		key, ok := Key(job)
		if !ok {
			stats.InvalidSeen++
			continue
		}
		seenKeys.add(key)
	}

	newKeys := make(keySet, len(newJobs))
	unseen := make([]models.ScoredJob, 0, len(newJobs))
	for _, job := range newJobs {
		key, ok := Key(job)
		if !ok {
			stats.InvalidNew++
			continue
		}
		if !newKeys.add(key) {
			continue
		}
		if _, ok := seenKeys[key]; ok {
			continue
		}
		job.Rank = len(unseen) + 1
		unseen = append(unseen, job)
	}

	stats.Unseen = len(unseen)
	return unseen, stats
}

// Merge appends unique input jobs to the seen history. Existing entries win
// collisions; invalid history entries are kept untouched.
func Merge(history, input []models.ScoredJob) ([]models.ScoredJob, MergeStats) {
	stats := MergeStats{TotalSeen: len(history), TotalInput: len(input)}

	keys := make(keySet, len(history)+len(input))
	out := make([]models.ScoredJob, 0, len(history)+len(input))
	for _, job := range history {
		key, ok := Key(job)
		if !ok {
			stats.InvalidSeen++
			out = append(out, job)
			continue
		}
		if keys.add(key) {
			out = append(out, job)
		}
	}

	for _, job := range input {
		key, ok := Key(job)
		if !ok {
			stats.InvalidInput++
			continue
		}
		if keys.add(key) {
			out = append(out, job)
			stats.Added++
		}
	}

	stats.TotalOut = len(out)
	return out, stats
}
