package summary

import (
	"time"

	"devtime/agent/internal/models"
)

// DefaultThreshold is the minimum time share a group needs to qualify as a
// summarizer of its chunk.
const DefaultThreshold = 0.3

// Group is the accumulated activity of one (app, title) pair within a chunk.
type Group struct {
	App      string
	Title    string
	StartAt  time.Time
	EndAt    time.Time
	Duration int64 // seconds
}

// SummarizeOptions controls group selection. A zero Threshold means
// DefaultThreshold.
type SummarizeOptions struct {
	Threshold float64
}

// Summarize tallies a chunk's records by (app, title) pair and returns the
// groups whose share of the chunk's total time exceeds the threshold. When
// no group qualifies it falls back to the single longest group, so a
// non-empty chunk always yields at least one group. Groups come back in
// first-seen order, which keeps selection deterministic.
//
// Note the fallback runs before any upload-eligibility filtering: a chunk
// dominated by unclassifiable activity can still summarize to that activity.
func Summarize(chunk []models.ActivityRecord, opts SummarizeOptions) []Group {
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	var totalTime int64
	index := make(map[string]int)
	var groups []Group
	for _, record := range chunk {
		key := record.App + " " + record.Title
		duration := record.DurationSeconds()

		if i, ok := index[key]; ok {
			groups[i].EndAt = record.EndAt
			groups[i].Duration += duration
		} else {
			index[key] = len(groups)
			groups = append(groups, Group{
				App:      record.App,
				Title:    record.Title,
				StartAt:  record.BeginAt,
				EndAt:    record.EndAt,
				Duration: duration,
			})
		}

		totalTime += duration
	}

	var qualifying []Group
	var longest *Group
	for i := range groups {
		if totalTime > 0 && float64(groups[i].Duration)/float64(totalTime) > threshold {
			qualifying = append(qualifying, groups[i])
		}
		if longest == nil || groups[i].Duration > longest.Duration {
			longest = &groups[i]
		}
	}

	if len(qualifying) == 0 && longest != nil {
		return []Group{*longest}
	}

	return qualifying
}

// Dominant classifies each group and returns the entity with the best
// (lowest) priority. Ties keep the earlier group. The zero entity type
// "other" comes back for an empty group list.
func Dominant(catalog models.EntityCatalog, groups []Group) models.Entity {
	best := models.Entity{Type: models.EntityOther}
	bestPriority := best.Type.Priority() + 1
	for _, group := range groups {
		entity := Classify(catalog, []string{group.App, group.Title})
		if p := entity.Type.Priority(); p < bestPriority {
			best = entity
			bestPriority = p
		}
	}
	return best
}
