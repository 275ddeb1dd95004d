package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"ipotrack/services"
	"ipotrack/shared"

	"github.com/sirupsen/logrus"
)

var (
	usDatePattern  = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	spaceRuns      = regexp.MustCompile(`\s+`)
)

// EstimatedDateRefreshJob pulls the Nasdaq IPO calendar for the current
// month and upgrades stored estimated dates.
//
// Update rules: companies not already tracked are skipped; a missing
// date takes whatever the calendar has (including "TBD" or "Week of"
// text); vague text upgrades to a concrete date; a concrete date only
// changes to a different concrete date, never back to vague text.
type EstimatedDateRefreshJob struct {
	IPOService  *services.IPOService
	CalendarURL string

	clientFactory *shared.HTTPClientFactory
	limiter       *shared.RequestRateLimiter
	httpConfig    shared.HTTPConfig
}

func NewEstimatedDateRefreshJob(ipoService *services.IPOService, calendarURL string, httpConfig shared.HTTPConfig) *EstimatedDateRefreshJob {
	return &EstimatedDateRefreshJob{
		IPOService:    ipoService,
		CalendarURL:   calendarURL,
		clientFactory: shared.NewHTTPClientFactory(httpConfig.RequestTimeout),
		limiter:       shared.NewRequestRateLimiter(httpConfig.RequestRateLimit),
		httpConfig:    httpConfig,
	}
}

// calendarResponse mirrors the slice of the Nasdaq payload we consume.
type calendarResponse struct {
	Data struct {
		Upcoming struct {
			UpcomingTable struct {
				Rows []calendarRow `json:"rows"`
			} `json:"upcomingTable"`
		} `json:"upcoming"`
	} `json:"data"`
}

type calendarRow struct {
	CompanyName       string `json:"companyName"`
	ExpectedPriceDate string `json:"expectedPriceDate"`
}

func (j *EstimatedDateRefreshJob) Run() {
	logrus.Info("Starting estimated IPO date refresh job")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rows, err := j.fetchUpcoming(ctx)
	if err != nil {
		logrus.WithError(err).Error("Date refresh failed: could not fetch calendar")
		return
	}
	logrus.WithField("calendar_rows", len(rows)).Info("Fetched upcoming IPOs from calendar")

	updated, skipped := 0, 0
	for _, row := range rows {
		if row.CompanyName == "" {
			continue
		}
		newDate := NormalizeCalendarDate(row.ExpectedPriceDate)
		if newDate == "" {
			continue
		}

		currentDate, exists, err := j.IPOService.EstimatedDateByCompany(ctx, row.CompanyName)
		if err != nil {
			logrus.WithError(err).WithField("company", row.CompanyName).Warn("Date refresh lookup failed")
			continue
		}
		if !exists {
			skipped++
			continue
		}

		if !shouldUpdateDate(currentDate, newDate) {
			skipped++
			continue
		}

		if err := j.IPOService.UpdateEstimatedDate(ctx, row.CompanyName, newDate); err != nil {
			logrus.WithError(err).WithField("company", row.CompanyName).Warn("Date refresh update failed")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"company":  row.CompanyName,
			"old_date": currentDate,
			"new_date": newDate,
		}).Info("Updated estimated IPO date")
		updated++
	}

	logrus.WithFields(logrus.Fields{
		"updated": updated,
		"skipped": skipped,
	}).Info("Estimated IPO date refresh job completed")
}

func (j *EstimatedDateRefreshJob) fetchUpcoming(ctx context.Context) ([]calendarRow, error) {
	url := fmt.Sprintf("%s?date=%s", j.CalendarURL, time.Now().UTC().Format("2006-01"))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, shared.NewUpstreamError("date-refresh-job", "fetch_upcoming", "failed to build calendar request", err)
	}
	shared.SetBrowserLikeHeaders(request, "application/json, text/plain, */*")

	j.limiter.Wait()
	client := j.clientFactory.Client(j.httpConfig.RequestTimeout)
	response, err := shared.ExecuteHTTPRequestWithRetry(client, request, j.httpConfig.MaxRetryAttempts)
	if err != nil {
		return nil, shared.NewNetworkError("date-refresh-job", "fetch_upcoming", "calendar request failed", err)
	}
	defer response.Body.Close()

	var payload calendarResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, shared.NewUpstreamError("date-refresh-job", "fetch_upcoming", "calendar response is not valid JSON", err)
	}
	return payload.Data.Upcoming.UpcomingTable.Rows, nil
}

// NormalizeCalendarDate converts mm/dd/yyyy to ISO yyyy-mm-dd; vague
// values like "TBD" or "Week of ..." pass through unchanged.
func NormalizeCalendarDate(value string) string {
	value = strings.TrimSpace(spaceRuns.ReplaceAllString(value, " "))
	if value == "" {
		return ""
	}
	if usDatePattern.MatchString(value) {
		if t, err := time.Parse("1/2/2006", value); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return value
}

// IsConcreteDate reports whether the value is a specific ISO date
// rather than vague calendar text.
func IsConcreteDate(value string) bool {
	return isoDatePattern.MatchString(value)
}

// shouldUpdateDate implements the upgrade rules between the stored and
// incoming estimated dates.
func shouldUpdateDate(current, incoming string) bool {
	switch {
	case current == "":
		return true
	case !IsConcreteDate(current) && IsConcreteDate(incoming):
		return true
	case IsConcreteDate(current) && IsConcreteDate(incoming) && current != incoming:
		return true
	default:
		return false
	}
}
