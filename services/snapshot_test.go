package services

import (
	"fmt"
	"testing"

	"ipotrack/models"
	"ipotrack/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSnapshotService(maxRows int) *SnapshotService {
	config := shared.NewDefaultSnapshotConfig()
	config.MaxRows = maxRows
	return NewSnapshotService(nil, newTestSorter(), config)
}

func TestSnapshotBuildKeepsUpcomingAndUndatedRows(t *testing.T) {
	service := newTestSnapshotService(100)

	records := []models.IPO{
		{CIK: "past", EstimatedIPODate: "2026-01-01"},
		{CIK: "today", EstimatedIPODate: "2026-06-15"},
		{CIK: "future", EstimatedIPODate: "2026-07-01"},
		{CIK: "undated", EstimatedIPODate: ""},
	}

	snapshot := service.Build(records, "2026-06-15")

	require.Len(t, snapshot, 2)
	assert.Equal(t, "future", snapshot[0].CIK)
	assert.Equal(t, "undated", snapshot[1].CIK, "undated rows survive and sort last")
}

func TestSnapshotBuildAppliesRowCap(t *testing.T) {
	service := newTestSnapshotService(5)

	records := make([]models.IPO, 20)
	for i := range records {
		records[i] = models.IPO{
			CIK:              fmt.Sprintf("cik-%02d", i),
			EstimatedIPODate: fmt.Sprintf("2027-01-%02d", i+1),
		}
	}

	snapshot := service.Build(records, "2026-06-15")

	require.Len(t, snapshot, 5)
	// The cap keeps the soonest dates.
	assert.Equal(t, "cik-00", snapshot[0].CIK)
	assert.Equal(t, "cik-04", snapshot[4].CIK)
}

func TestSnapshotBuildRanksRows(t *testing.T) {
	service := newTestSnapshotService(100)

	snapshot := service.Build([]models.IPO{
		{CIK: "b", EstimatedIPODate: "2027-02-01"},
		{CIK: "a", EstimatedIPODate: "2027-01-01"},
	}, "2026-06-15")

	require.Len(t, snapshot, 2)
	assert.Equal(t, 1, snapshot[0].Rank)
	assert.Equal(t, 2, snapshot[1].Rank)
	assert.Equal(t, "a", snapshot[0].CIK)
}
