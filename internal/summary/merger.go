package summary

import (
	"time"

	"devtime/agent/internal/models"
)

// DefaultMergeGrace is the maximum gap between two summaries that still
// counts as continuous work on the same entity.
const DefaultMergeGrace = 5 * time.Minute

// mergeable reports whether two summaries describe the same concrete
// entity. Learning/other carry no identity and never merge.
func mergeable(a, b models.Entity) bool {
	return a.Type.HasIdentity() && a.SameIdentity(b)
}

// Merge coalesces chronologically ordered summaries. A summary folds into
// its predecessor when it starts within the grace gap of the predecessor's
// end and describes the same entity; the merged item keeps the later EndAt
// and sums the durations rather than recomputing from timestamps, because
// the merged span may contain gaps.
func Merge(items []models.SummaryItem, grace time.Duration) []models.SummaryItem {
	if grace <= 0 {
		grace = DefaultMergeGrace
	}

	var merged []models.SummaryItem
	for _, item := range items {
		if len(merged) == 0 {
			merged = append(merged, item)
			continue
		}

		last := &merged[len(merged)-1]
		if item.StartAt.After(last.EndAt.Add(grace)) {
			merged = append(merged, item)
			continue
		}

		if mergeable(item.Entity, last.Entity) {
			last.EndAt = item.EndAt
			last.Duration += item.Duration
		} else {
			merged = append(merged, item)
		}
	}

	return merged
}

// Continues reports whether next extends the work log saved by a previous
// run, applying the same grace-and-identity rule Merge uses within a run.
func Continues(prev models.SavedSummary, next models.SummaryItem, grace time.Duration) bool {
	if grace <= 0 {
		grace = DefaultMergeGrace
	}
	return !next.StartAt.After(prev.EndAt.Add(grace)) && mergeable(next.Entity, prev.Entity)
}
