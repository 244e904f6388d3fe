package summary

import (
	"sort"
	"time"

	"devtime/agent/internal/models"
)

// DefaultChunkEvery bounds a chunk to roughly five minutes of activity.
const DefaultChunkEvery = 5 * time.Minute

// ChunkOptions controls chunking. Presorted skips the stable sort when the
// caller already fetched records in chronological order.
type ChunkOptions struct {
	ChunkEvery time.Duration
	Presorted  bool
}

// Chunk groups records into bounded-duration segments. A new segment starts
// whenever a record's end would put the segment past ChunkEvery from the
// segment's first record. A single record longer than ChunkEvery is never
// split; it occupies its own segment. Every input record lands in exactly
// one chunk and no chunk is empty.
func Chunk(records []models.ActivityRecord, opts ChunkOptions) [][]models.ActivityRecord {
	chunkEvery := opts.ChunkEvery
	if chunkEvery <= 0 {
		chunkEvery = DefaultChunkEvery
	}

	if !opts.Presorted {
		sorted := make([]models.ActivityRecord, len(records))
		copy(sorted, records)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].BeginAt.Before(sorted[j].BeginAt)
		})
		records = sorted
	}

	var chunks [][]models.ActivityRecord
	var segmentStart time.Time
	for _, record := range records {
		if len(chunks) == 0 {
			segmentStart = record.BeginAt
		}

		if len(chunks) > 0 && record.EndAt.Sub(segmentStart) <= chunkEvery {
			chunks[len(chunks)-1] = append(chunks[len(chunks)-1], record)
			continue
		}

		segmentStart = record.BeginAt
		chunks = append(chunks, []models.ActivityRecord{record})
	}

	return chunks
}
