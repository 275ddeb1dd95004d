package jobs

import (
	"context"
	"time"

	"ipotrack/services"

	"github.com/sirupsen/logrus"
)

// KVSyncJob pushes the filtered, default-sorted public IPO table from
// the database into the KV snapshot that the listing path serves from.
type KVSyncJob struct {
	IPOService      *services.IPOService
	SnapshotService *services.SnapshotService
}

func NewKVSyncJob(ipoService *services.IPOService, snapshotService *services.SnapshotService) *KVSyncJob {
	return &KVSyncJob{
		IPOService:      ipoService,
		SnapshotService: snapshotService,
	}
}

func (j *KVSyncJob) Run() {
	logrus.Info("Starting KV snapshot sync job")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	records, err := j.IPOService.AllRecords(ctx)
	if err != nil {
		logrus.WithError(err).Error("KV sync failed: could not load IPO rows")
		return
	}

	snapshot := j.SnapshotService.Build(records, services.Today())
	if err := j.SnapshotService.Store(ctx, snapshot); err != nil {
		logrus.WithError(err).Error("KV sync failed: could not store snapshot")
		return
	}

	logrus.WithFields(logrus.Fields{
		"total_rows":    len(records),
		"snapshot_rows": len(snapshot),
	}).Info("KV snapshot sync job completed")
}
