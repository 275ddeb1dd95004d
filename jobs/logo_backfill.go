package jobs

import (
	"context"
	"time"

	"ipotrack/services"

	"github.com/sirupsen/logrus"
)

// LogoBackfillJob fills in logo URLs for records still carrying the
// no-logo marker, a batch at a time.
type LogoBackfillJob struct {
	IPOService  *services.IPOService
	LogoService *services.LogoService
	BatchSize   int
}

func NewLogoBackfillJob(ipoService *services.IPOService, logoService *services.LogoService) *LogoBackfillJob {
	return &LogoBackfillJob{
		IPOService:  ipoService,
		LogoService: logoService,
		BatchSize:   25,
	}
}

func (j *LogoBackfillJob) Run() {
	logrus.Info("Starting logo backfill job")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	records, err := j.IPOService.RecordsMissingLogo(ctx, j.BatchSize)
	if err != nil {
		logrus.WithError(err).Error("Logo backfill failed: could not load candidates")
		return
	}
	if len(records) == 0 {
		logrus.Info("Logo backfill: nothing to do")
		return
	}

	found, missed := 0, 0
	for _, record := range records {
		logoURL := j.LogoService.FindLogo(record.CompanyName)
		if logoURL == "" {
			missed++
			continue
		}
		if err := j.IPOService.UpdateLogoURL(ctx, record.CIK, logoURL); err != nil {
			logrus.WithError(err).WithField("cik", record.CIK).Warn("Logo backfill update failed")
			missed++
			continue
		}
		found++
	}

	logrus.WithFields(logrus.Fields{
		"candidates": len(records),
		"found":      found,
		"missed":     missed,
	}).Info("Logo backfill job completed")
}
