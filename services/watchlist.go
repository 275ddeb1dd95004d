package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"ipotrack/models"
	"ipotrack/shared"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrToggleInFlight is returned when a toggle for the same (user, cik)
// pair has not finished yet. Repeated clicks on the same star must not
// race the first persistence call.
var ErrToggleInFlight = errors.New("a toggle for this IPO is already in flight")

// WatchlistService owns the starred-IPO state for each user. Storage is
// the single source of truth: local state and responses only reflect a
// change after the persistence call succeeds, so a failed write never
// needs a rollback.
type WatchlistService struct {
	DB *sql.DB

	mutex    sync.Mutex
	inFlight map[string]bool

	metrics *shared.ServiceMetrics
}

func NewWatchlistService(db *sql.DB) *WatchlistService {
	return &WatchlistService{
		DB:       db,
		inFlight: make(map[string]bool),
		metrics:  shared.NewServiceMetrics("watchlist-service"),
	}
}

// StarredSet loads the full set of starred identifiers for a user.
// An empty user id yields an empty set without touching storage.
func (w *WatchlistService) StarredSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	starred := make(map[string]struct{})
	if userID == "" {
		return starred, nil
	}

	started := time.Now()
	rows, err := w.DB.QueryContext(ctx, `SELECT cik FROM watchlist WHERE user_id = $1`, userID)
	if err != nil {
		w.metrics.RecordOperation("starred_set", time.Since(started), false)
		return nil, shared.NewDatabaseError("watchlist-service", "starred_set", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cik string
		if err := rows.Scan(&cik); err != nil {
			w.metrics.RecordOperation("starred_set", time.Since(started), false)
			return nil, shared.NewDatabaseError("watchlist-service", "starred_set", err)
		}
		starred[cik] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		w.metrics.RecordOperation("starred_set", time.Since(started), false)
		return nil, shared.NewDatabaseError("watchlist-service", "starred_set", err)
	}

	w.metrics.RecordOperation("starred_set", time.Since(started), true)
	return starred, nil
}

// Add stars an IPO for a user. Repeating an add that already matches
// the stored state counts as success.
func (w *WatchlistService) Add(ctx context.Context, userID, cik string) error {
	_, err := w.DB.ExecContext(ctx,
		`INSERT INTO watchlist (id, user_id, cik) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, cik) DO NOTHING`,
		uuid.New(), userID, cik)
	if err != nil {
		return shared.NewDatabaseError("watchlist-service", "add", err)
	}
	return nil
}

// Remove unstars an IPO for a user. Removing an entry that does not
// exist counts as success.
func (w *WatchlistService) Remove(ctx context.Context, userID, cik string) error {
	_, err := w.DB.ExecContext(ctx,
		`DELETE FROM watchlist WHERE user_id = $1 AND cik = $2`, userID, cik)
	if err != nil {
		return shared.NewDatabaseError("watchlist-service", "remove", err)
	}
	return nil
}

// Toggle flips the starred state of one IPO and reports the new state.
// Only one toggle per (user, cik) may be in flight at a time; a second
// concurrent attempt fails fast with ErrToggleInFlight. Toggles on
// different identifiers are independent. On a persistence failure the
// stored state is untouched and the previous state stands.
func (w *WatchlistService) Toggle(ctx context.Context, userID, cik string) (bool, error) {
	if !w.beginToggle(userID, cik) {
		return false, ErrToggleInFlight
	}
	defer w.endToggle(userID, cik)

	started := time.Now()
	var starred bool
	err := w.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM watchlist WHERE user_id = $1 AND cik = $2)`,
		userID, cik).Scan(&starred)
	if err != nil {
		w.metrics.RecordOperation("toggle", time.Since(started), false)
		return false, shared.NewDatabaseError("watchlist-service", "toggle", err)
	}

	if starred {
		err = w.Remove(ctx, userID, cik)
	} else {
		err = w.Add(ctx, userID, cik)
	}
	if err != nil {
		w.metrics.RecordOperation("toggle", time.Since(started), false)
		return starred, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"cik":     cik,
		"starred": !starred,
	}).Debug("Watchlist toggle applied")

	w.metrics.RecordOperation("toggle", time.Since(started), true)
	return !starred, nil
}

func (w *WatchlistService) beginToggle(userID, cik string) bool {
	key := userID + "\x00" + cik
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.inFlight[key] {
		return false
	}
	w.inFlight[key] = true
	return true
}

func (w *WatchlistService) endToggle(userID, cik string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	delete(w.inFlight, userID+"\x00"+cik)
}

// LogMetricsSummary emits the service's operation counters.
func (w *WatchlistService) LogMetricsSummary() {
	w.metrics.LogSummary()
}

// MergeStarred annotates each record with membership in the starred
// set. Pure: the input slice is left untouched and a fresh slice is
// returned. It must be re-run whenever either the record list or the
// starred set changes.
func (w *WatchlistService) MergeStarred(records []models.IPO, starred map[string]struct{}) []models.IPO {
	out := make([]models.IPO, len(records))
	copy(out, records)
	for i := range out {
		_, out[i].IsStarred = starred[out[i].CIK]
	}
	return out
}
