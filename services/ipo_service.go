package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"ipotrack/models"
	"ipotrack/shared"

	"github.com/sirupsen/logrus"
)

// ListFilter carries the recognized listing query parameters.
type ListFilter struct {
	// All bypasses filtering defaults and pagination and returns the
	// complete set.
	All          bool
	Page         int
	PerPage      int
	Exchange     string
	MinMarketCap float64
	Search       string
	Sort         SortState
}

// IPOService serves the public listing data. The KV snapshot is the
// preferred source; the database backs it up when the snapshot is
// missing, stale, or does not contain what the caller asked for. Each
// response reports which sources contributed.
type IPOService struct {
	DB         *sql.DB
	Normalizer *NormalizerService
	Sorter     *Sorter
	Snapshot   *SnapshotService

	metrics *shared.ServiceMetrics
}

func NewIPOService(db *sql.DB, normalizer *NormalizerService, sorter *Sorter, snapshot *SnapshotService) *IPOService {
	return &IPOService{
		DB:         db,
		Normalizer: normalizer,
		Sorter:     sorter,
		Snapshot:   snapshot,
		metrics:    shared.NewServiceMetrics("ipo-service"),
	}
}

// List runs the full listing pipeline: load, filter, sort, paginate.
func (s *IPOService) List(ctx context.Context, filter ListFilter) (*models.ListResponse, error) {
	started := time.Now()

	records, source, err := s.loadRecords(ctx)
	if err != nil {
		s.metrics.RecordOperation("list", time.Since(started), false)
		return nil, err
	}

	filtered := s.applyFilter(records, filter)

	// A search that misses the snapshot may still hit rows the snapshot
	// cap dropped, so widen to the database before giving up.
	if len(filtered) == 0 && filter.Search != "" && source == models.SourceKV {
		dbRecords, dbErr := s.fetchFromDatabase(ctx)
		if dbErr != nil {
			s.metrics.RecordOperation("list", time.Since(started), false)
			return nil, dbErr
		}
		records = mergeByCIK(records, dbRecords)
		filtered = s.applyFilter(records, filter)
		source = models.SourceMerged
	}

	sorted := s.Sorter.Sort(filtered, filter.Sort)

	response := &models.ListResponse{Rows: sorted, Source: source}
	if !filter.All {
		paginator := NewPaginator()
		paginator.SetPageSize(filter.PerPage)
		paginator.ApplyResetTrigger(filter.Sort.Signature())
		paginator.SetTotalItems(len(sorted))
		paginator.GoToPage(filter.Page)

		response.Rows = paginator.Slice(sorted)
		response.Page = paginator.Page()
		response.PerPage = paginator.PageSize()
		response.Total = paginator.TotalItems()
		response.TotalPages = paginator.TotalPages()
	}

	s.metrics.RecordOperation("list", time.Since(started), true)
	return response, nil
}

// GetByCIK looks up a single record, snapshot first, database second.
// A miss returns (nil, source, nil); callers map that to a 404.
func (s *IPOService) GetByCIK(ctx context.Context, cik string) (*models.IPO, string, error) {
	records, source, err := s.loadRecords(ctx)
	if err != nil {
		return nil, "", err
	}

	for i := range records {
		if records[i].CIK == cik {
			return &records[i], source, nil
		}
	}

	if source != models.SourceKV {
		return nil, source, nil
	}

	// The snapshot is capped; the row may still exist in the database.
	record, err := s.fetchOneFromDatabase(ctx, cik)
	if err != nil {
		return nil, "", err
	}
	if record == nil {
		return nil, models.SourceKV, nil
	}
	return record, models.SourceMerged, nil
}

// AllRecords loads the complete canonical set straight from the
// database. The KV sync job uses this as its snapshot input.
func (s *IPOService) AllRecords(ctx context.Context) ([]models.IPO, error) {
	return s.fetchFromDatabase(ctx)
}

// loadRecords prefers the KV snapshot and falls back to the database.
// Snapshot read failures degrade to the database rather than failing
// the request.
func (s *IPOService) loadRecords(ctx context.Context) ([]models.IPO, string, error) {
	raws, err := s.Snapshot.Load(ctx)
	if err != nil {
		logrus.WithError(err).Warn("KV snapshot unavailable, falling back to database")
	}
	if len(raws) > 0 {
		return s.Normalizer.NormalizeRows(raws), models.SourceKV, nil
	}

	records, err := s.fetchFromDatabase(ctx)
	if err != nil {
		return nil, "", err
	}
	return records, models.SourceDatabase, nil
}

func (s *IPOService) applyFilter(records []models.IPO, filter ListFilter) []models.IPO {
	out := make([]models.IPO, 0, len(records))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, record := range records {
		if filter.Exchange != "" && !strings.EqualFold(record.Exchange, filter.Exchange) {
			continue
		}
		if filter.MinMarketCap > 0 && s.Normalizer.CoerceNumeric(record.MarketCap) < filter.MinMarketCap {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(record.CompanyName), search) &&
			!strings.Contains(strings.ToLower(record.Ticker), search) {
			continue
		}
		out = append(out, record)
	}
	return out
}

const ipoColumns = `cik, ticker, company_name, exchange, shares_offered, share_price,
	estimated_ipo_date, latest_filing_type, market_cap, logo_url`

func (s *IPOService) fetchFromDatabase(ctx context.Context) ([]models.IPO, error) {
	started := time.Now()
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+ipoColumns+` FROM ipo WHERE is_ipo = TRUE`)
	if err != nil {
		s.metrics.RecordOperation("fetch_db", time.Since(started), false)
		return nil, shared.NewDatabaseError("ipo-service", "fetch_db", err)
	}
	defer rows.Close()

	var records []models.IPO
	for rows.Next() {
		record, err := s.scanRecord(rows)
		if err != nil {
			s.metrics.RecordOperation("fetch_db", time.Since(started), false)
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		s.metrics.RecordOperation("fetch_db", time.Since(started), false)
		return nil, shared.NewDatabaseError("ipo-service", "fetch_db", err)
	}

	s.metrics.RecordOperation("fetch_db", time.Since(started), true)
	return records, nil
}

func (s *IPOService) fetchOneFromDatabase(ctx context.Context, cik string) (*models.IPO, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+ipoColumns+` FROM ipo WHERE is_ipo = TRUE AND cik = $1`, cik)

	record, err := s.scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one database row into a RawRow and normalizes it,
// so the database path and the snapshot path share one conversion.
func (s *IPOService) scanRecord(scanner rowScanner) (models.IPO, error) {
	var cik, companyName, exchange string
	var ticker, shares, price, date, filingType, marketCap, logoURL sql.NullString

	err := scanner.Scan(&cik, &ticker, &companyName, &exchange, &shares,
		&price, &date, &filingType, &marketCap, &logoURL)
	if err == sql.ErrNoRows {
		return models.IPO{}, err
	}
	if err != nil {
		return models.IPO{}, shared.NewDatabaseError("ipo-service", "scan", err)
	}

	raw := models.RawRow{
		"cik":                cik,
		"company_name":       companyName,
		"exchange":           exchange,
		"ticker":             nullable(ticker),
		"shares_offered":     nullable(shares),
		"share_price":        nullable(price),
		"estimated_ipo_date": nullable(date),
		"latest_filing_type": nullable(filingType),
		"market_cap":         nullable(marketCap),
		"logo_url":           nullable(logoURL),
	}
	return s.Normalizer.NormalizeRow(raw), nil
}

func nullable(v sql.NullString) any {
	if v.Valid {
		return v.String
	}
	return nil
}

// mergeByCIK unions two record sets, keeping the first occurrence of
// each identifier.
func mergeByCIK(primary, secondary []models.IPO) []models.IPO {
	seen := make(map[string]struct{}, len(primary))
	out := make([]models.IPO, 0, len(primary)+len(secondary))
	for _, record := range primary {
		seen[record.CIK] = struct{}{}
		out = append(out, record)
	}
	for _, record := range secondary {
		if _, dup := seen[record.CIK]; dup {
			continue
		}
		out = append(out, record)
	}
	return out
}

// LogMetricsSummary emits the service's operation counters.
func (s *IPOService) LogMetricsSummary() {
	s.metrics.LogSummary()
}

// EstimatedDateByCompany returns the stored estimated date for a
// company and whether the company exists at all.
func (s *IPOService) EstimatedDateByCompany(ctx context.Context, companyName string) (string, bool, error) {
	var date sql.NullString
	err := s.DB.QueryRowContext(ctx,
		`SELECT estimated_ipo_date FROM ipo WHERE company_name = $1 LIMIT 1`,
		companyName).Scan(&date)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, shared.NewDatabaseError("ipo-service", "estimated_date_by_company", err)
	}
	return date.String, true, nil
}

// UpdateEstimatedDate writes a new estimated date for a company.
func (s *IPOService) UpdateEstimatedDate(ctx context.Context, companyName, date string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE ipo SET estimated_ipo_date = $1, updated_at = CURRENT_TIMESTAMP
		 WHERE company_name = $2`, date, companyName)
	if err != nil {
		return shared.NewDatabaseError("ipo-service", "update_estimated_date", err)
	}
	return nil
}

// RecordsMissingLogo returns up to limit records that still carry no
// logo, for the backfill job.
func (s *IPOService) RecordsMissingLogo(ctx context.Context, limit int) ([]models.IPO, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+ipoColumns+` FROM ipo
		 WHERE is_ipo = TRUE AND (logo_url IS NULL OR logo_url = '' OR logo_url = $1)
		 ORDER BY updated_at ASC LIMIT $2`, models.NoLogoMarker, limit)
	if err != nil {
		return nil, shared.NewDatabaseError("ipo-service", "records_missing_logo", err)
	}
	defer rows.Close()

	var records []models.IPO
	for rows.Next() {
		record, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// UpdateLogoURL stores a discovered logo URL for a record.
func (s *IPOService) UpdateLogoURL(ctx context.Context, cik, logoURL string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE ipo SET logo_url = $1, updated_at = CURRENT_TIMESTAMP WHERE cik = $2`,
		logoURL, cik)
	if err != nil {
		return shared.NewDatabaseError("ipo-service", "update_logo_url", err)
	}
	return nil
}
