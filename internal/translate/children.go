package translate

import (
	"github.com/kailas-cloud/metasearch/internal/db"
	"github.com/kailas-cloud/metasearch/internal/query"
)

// Granule status values counted in collection stats.
const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRunning   = "running"
)

// Stats counts the granules of one collection per status.
type Stats struct {
	Queued    int64
	Completed int64
	Failed    int64
	Running   int64
	Total     int64
}

// Record renders the stats object of a collection record.
func (s Stats) Record() map[string]any {
	return map[string]any{
		StatusQueued:    s.Queued,
		StatusCompleted: s.Completed,
		StatusFailed:    s.Failed,
		StatusRunning:   s.Running,
		"total":         s.Total,
	}
}

// GroupFiles indexes translated files by granule. Row order is kept.
func GroupFiles(rows []db.Row) map[int64][]Record {
	out := map[int64][]Record{}
	for _, row := range rows {
		id, ok := int64Value(row[query.ColGranuleCumulusID])
		if !ok {
			continue
		}
		out[id] = append(out[id], File(row))
	}
	return out
}

// LatestExecutions keeps the url of the first execution per granule.
// Rows arrive newest first within each granule. A newest execution without
// a url maps to "", so no older url is reported in its place.
func LatestExecutions(rows []db.Row) map[int64]string {
	out := map[int64]string{}
	for _, row := range rows {
		id, ok := int64Value(row[query.ColGranuleCumulusID])
		if !ok {
			continue
		}
		if _, seen := out[id]; seen {
			continue
		}
		url, _ := row[query.ColExecutionURL].(string)
		out[id] = url
	}
	return out
}

// CollectionStats folds grouped status counts into per-collection stats.
func CollectionStats(rows []db.Row) map[int64]Stats {
	out := map[int64]Stats{}
	for _, row := range rows {
		id, ok := int64Value(row[query.ColCollectionCumulusID])
		if !ok {
			continue
		}
		n, _ := int64Value(row[query.CountColumn])
		s := out[id]
		switch row[query.ColStatus] {
		case StatusQueued:
			s.Queued += n
		case StatusCompleted:
			s.Completed += n
		case StatusFailed:
			s.Failed += n
		case StatusRunning:
			s.Running += n
		}
		s.Total += n
		out[id] = s
	}
	return out
}
