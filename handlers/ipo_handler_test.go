package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"ipotrack/models"
	"ipotrack/services"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	response   *models.ListResponse
	record     *models.IPO
	err        error
	lastFilter services.ListFilter
	listCalls  int
}

func (f *fakeLister) List(_ context.Context, filter services.ListFilter) (*models.ListResponse, error) {
	f.listCalls++
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeLister) GetByCIK(_ context.Context, cik string) (*models.IPO, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if f.record != nil && f.record.CIK == cik {
		return f.record, models.SourceKV, nil
	}
	return nil, models.SourceKV, nil
}

type fakeWatchlist struct {
	starred     map[string]struct{}
	starredErr  error
	addCalls    int
	removeCalls int
	toggleCalls int
	toggleErr   error
	toggleState bool
}

func (f *fakeWatchlist) StarredSet(context.Context, string) (map[string]struct{}, error) {
	if f.starredErr != nil {
		return nil, f.starredErr
	}
	if f.starred == nil {
		return map[string]struct{}{}, nil
	}
	return f.starred, nil
}

func (f *fakeWatchlist) MergeStarred(records []models.IPO, starred map[string]struct{}) []models.IPO {
	out := make([]models.IPO, len(records))
	copy(out, records)
	for i := range out {
		_, out[i].IsStarred = starred[out[i].CIK]
	}
	return out
}

func (f *fakeWatchlist) Add(context.Context, string, string) error {
	f.addCalls++
	return nil
}

func (f *fakeWatchlist) Remove(context.Context, string, string) error {
	f.removeCalls++
	return nil
}

func (f *fakeWatchlist) Toggle(context.Context, string, string) (bool, error) {
	f.toggleCalls++
	if f.toggleErr != nil {
		return false, f.toggleErr
	}
	return f.toggleState, nil
}

func signTestToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newListingApp(lister *fakeLister, watchlist *fakeWatchlist, secret string) *fiber.App {
	app := fiber.New()
	auth := NewAuthMiddleware(secret)
	handler := NewIPOHandler(lister, watchlist)
	app.Get("/api/v1/ipos", auth.Optional(), handler.GetIPOs)
	app.Get("/api/v1/ipos/:cik", auth.Optional(), handler.GetIPOByCIK)
	return app
}

func TestGetIPOsReturnsListingEnvelope(t *testing.T) {
	lister := &fakeLister{response: &models.ListResponse{
		Rows:       []models.IPO{{CIK: "A", Rank: 1}, {CIK: "B", Rank: 2}},
		Source:     models.SourceKV,
		Page:       2,
		PerPage:    10,
		Total:      27,
		TotalPages: 3,
	}}
	app := newListingApp(lister, &fakeWatchlist{}, "")

	response, err := app.Test(httptest.NewRequest("GET", "/api/v1/ipos?page=2&per_page=10&sort=price&dir=desc&exchange=NASDAQ", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)

	var body models.ListResponse
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	assert.Equal(t, models.SourceKV, body.Source)
	assert.Len(t, body.Rows, 2)
	assert.Equal(t, 3, body.TotalPages)

	// The query parameters reach the service filter intact.
	assert.Equal(t, 2, lister.lastFilter.Page)
	assert.Equal(t, 10, lister.lastFilter.PerPage)
	assert.Equal(t, "NASDAQ", lister.lastFilter.Exchange)
	assert.Equal(t, services.SortState{Column: services.ColumnPrice, Direction: services.DirectionDesc}, lister.lastFilter.Sort)
}

func TestGetIPOsUnknownSortColumnFallsBackToDefaultOrder(t *testing.T) {
	lister := &fakeLister{response: &models.ListResponse{Source: models.SourceDatabase}}
	app := newListingApp(lister, &fakeWatchlist{}, "")

	_, err := app.Test(httptest.NewRequest("GET", "/api/v1/ipos?sort=bogus&dir=desc", nil))
	require.NoError(t, err)

	assert.True(t, lister.lastFilter.Sort.IsDefault())
}

func TestGetIPOsMergesStarredFlagsForAuthenticatedViewer(t *testing.T) {
	const secret = "test-secret"
	lister := &fakeLister{response: &models.ListResponse{
		Rows:   []models.IPO{{CIK: "A"}, {CIK: "B"}, {CIK: "C"}},
		Source: models.SourceKV,
	}}
	watchlist := &fakeWatchlist{starred: map[string]struct{}{"A": {}, "C": {}}}
	app := newListingApp(lister, watchlist, secret)

	request := httptest.NewRequest("GET", "/api/v1/ipos", nil)
	request.Header.Set("Authorization", "Bearer "+signTestToken(t, secret, "user-1"))

	response, err := app.Test(request)
	require.NoError(t, err)

	var body models.ListResponse
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	require.Len(t, body.Rows, 3)
	assert.True(t, body.Rows[0].IsStarred)
	assert.False(t, body.Rows[1].IsStarred)
	assert.True(t, body.Rows[2].IsStarred)
}

func TestGetIPOByCIKNotFound(t *testing.T) {
	app := newListingApp(&fakeLister{}, &fakeWatchlist{}, "")

	response, err := app.Test(httptest.NewRequest("GET", "/api/v1/ipos/0009999", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, response.StatusCode)

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	assert.Equal(t, "IPO not found", body.Error)
}

func TestGetIPOsSingleLookupByQueryParameter(t *testing.T) {
	record := models.IPO{CIK: "0001234", CompanyName: "Acme Robotics"}
	app := newListingApp(&fakeLister{record: &record}, &fakeWatchlist{}, "")

	response, err := app.Test(httptest.NewRequest("GET", "/api/v1/ipos?cik=0001234", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)

	var body models.IPO
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	assert.Equal(t, "Acme Robotics", body.CompanyName)
}
