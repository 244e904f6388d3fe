package models

import "time"

// SummaryItem is one classified span of work derived from a chunk of
// activity records. After merging, Duration is the sum of the merged
// members' durations, not EndAt minus StartAt, because merges span gaps.
type SummaryItem struct {
	Entity
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
	Duration int64     `json:"duration"` // seconds
}

// SavedSummary is the most recently upserted work log, carried across runs
// so the next run can extend it instead of inserting an overlapping record.
// Held in process memory only; losing it costs at most one run's worth of
// merge continuity, never the underlying records.
type SavedSummary struct {
	SummaryItem
	WorklogID int64 `json:"worklog_id"`
}
