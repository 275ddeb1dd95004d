package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ipotrack/models"
	"ipotrack/shared"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SnapshotService reads and writes the public KV snapshot: a single
// key holding the filtered, default-sorted JSON array of upcoming IPO
// rows that the listing path serves without touching the database.
type SnapshotService struct {
	rdb    *redis.Client
	sorter *Sorter
	config shared.SnapshotConfig
}

func NewSnapshotService(rdb *redis.Client, sorter *Sorter, config shared.SnapshotConfig) *SnapshotService {
	return &SnapshotService{rdb: rdb, sorter: sorter, config: config}
}

// Load fetches the current snapshot rows. A missing key is not an
// error: it returns an empty slice and the caller falls back to the
// database.
func (s *SnapshotService) Load(ctx context.Context) ([]models.RawRow, error) {
	payload, err := s.rdb.Get(ctx, s.config.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, shared.NewNetworkError("snapshot-service", "load", "failed to read KV snapshot", err)
	}

	var rows []models.RawRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, shared.NewUpstreamError("snapshot-service", "load", "malformed KV snapshot payload", err)
	}
	return rows, nil
}

// Build produces the snapshot row set from the full canonical list:
// only rows whose estimated date is unknown or strictly after today
// survive, ordered by the default compound sort and capped at the
// configured row limit.
func (s *SnapshotService) Build(records []models.IPO, today string) []models.IPO {
	upcoming := make([]models.IPO, 0, len(records))
	for _, record := range records {
		if record.EstimatedIPODate == "" || record.EstimatedIPODate > today {
			upcoming = append(upcoming, record)
		}
	}

	sorted := s.sorter.Sort(upcoming, SortState{})
	if len(sorted) > s.config.MaxRows {
		sorted = sorted[:s.config.MaxRows]
	}
	return sorted
}

// Store uploads the snapshot rows under the configured key and TTL.
func (s *SnapshotService) Store(ctx context.Context, records []models.IPO) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return shared.NewUpstreamError("snapshot-service", "store", "failed to encode snapshot rows", err)
	}

	if err := s.rdb.Set(ctx, s.config.Key, payload, s.config.TTL).Err(); err != nil {
		return shared.NewNetworkError("snapshot-service", "store", "failed to write KV snapshot", err)
	}

	logrus.WithFields(logrus.Fields{
		"key":  s.config.Key,
		"rows": len(records),
		"ttl":  s.config.TTL,
	}).Info("Uploaded IPO snapshot to KV")
	return nil
}

// Today returns the snapshot cutoff date in the ISO form the records
// use for comparison.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}
