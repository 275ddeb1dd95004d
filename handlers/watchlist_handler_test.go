package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"ipotrack/models"
	"ipotrack/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWatchlistApp(watchlist *fakeWatchlist, lister *fakeLister, secret string) *fiber.App {
	app := fiber.New()
	auth := NewAuthMiddleware(secret)
	handler := NewWatchlistHandler(watchlist, lister)

	group := app.Group("/api/v1/watchlist", auth.Required())
	group.Get("/", handler.GetWatchlist)
	group.Post("/", handler.AddStar)
	group.Delete("/:cik", handler.RemoveStar)
	group.Post("/:cik/toggle", handler.ToggleStar)
	return app
}

func TestUnauthenticatedStarShowsSignupPromptAndSkipsPersistence(t *testing.T) {
	watchlist := &fakeWatchlist{}
	app := newWatchlistApp(watchlist, &fakeLister{}, "test-secret")

	response, err := app.Test(httptest.NewRequest("POST", "/api/v1/watchlist/0001234/toggle", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, response.StatusCode)

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	assert.Equal(t, SignupPrompt, body.Error)

	// No persistence call happens for anonymous viewers.
	assert.Zero(t, watchlist.toggleCalls)
	assert.Zero(t, watchlist.addCalls)
}

func TestToggleStarReportsNewState(t *testing.T) {
	const secret = "test-secret"
	watchlist := &fakeWatchlist{toggleState: true}
	app := newWatchlistApp(watchlist, &fakeLister{}, secret)

	request := httptest.NewRequest("POST", "/api/v1/watchlist/0001234/toggle", nil)
	request.Header.Set("Authorization", "Bearer "+signTestToken(t, secret, "user-1"))

	response, err := app.Test(request)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	assert.Equal(t, "0001234", body["cik"])
	assert.Equal(t, true, body["starred"])
	assert.Equal(t, 1, watchlist.toggleCalls)
}

func TestToggleStarInFlightConflict(t *testing.T) {
	const secret = "test-secret"
	watchlist := &fakeWatchlist{toggleErr: services.ErrToggleInFlight}
	app := newWatchlistApp(watchlist, &fakeLister{}, secret)

	request := httptest.NewRequest("POST", "/api/v1/watchlist/0001234/toggle", nil)
	request.Header.Set("Authorization", "Bearer "+signTestToken(t, secret, "user-1"))

	response, err := app.Test(request)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, response.StatusCode)
}

func TestAddStarRequiresCIK(t *testing.T) {
	const secret = "test-secret"
	app := newWatchlistApp(&fakeWatchlist{}, &fakeLister{}, secret)

	request := httptest.NewRequest("POST", "/api/v1/watchlist/", strings.NewReader(`{}`))
	request.Header.Set("Authorization", "Bearer "+signTestToken(t, secret, "user-1"))
	request.Header.Set("Content-Type", "application/json")

	response, err := app.Test(request)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, response.StatusCode)
}

func TestAddStarPersistsPair(t *testing.T) {
	const secret = "test-secret"
	watchlist := &fakeWatchlist{}
	app := newWatchlistApp(watchlist, &fakeLister{}, secret)

	request := httptest.NewRequest("POST", "/api/v1/watchlist/", strings.NewReader(`{"cik":"0001234"}`))
	request.Header.Set("Authorization", "Bearer "+signTestToken(t, secret, "user-1"))
	request.Header.Set("Content-Type", "application/json")

	response, err := app.Test(request)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)
	assert.Equal(t, 1, watchlist.addCalls)
}

func TestGetWatchlistReturnsOnlyStarredRows(t *testing.T) {
	const secret = "test-secret"
	lister := &fakeLister{response: &models.ListResponse{
		Rows:   []models.IPO{{CIK: "A"}, {CIK: "B"}, {CIK: "C"}},
		Source: models.SourceKV,
	}}
	watchlist := &fakeWatchlist{starred: map[string]struct{}{"A": {}, "C": {}}}
	app := newWatchlistApp(watchlist, lister, secret)

	request := httptest.NewRequest("GET", "/api/v1/watchlist/", nil)
	request.Header.Set("Authorization", "Bearer "+signTestToken(t, secret, "user-1"))

	response, err := app.Test(request)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, response.StatusCode)

	var body models.ListResponse
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	require.Len(t, body.Rows, 2)
	assert.Equal(t, "A", body.Rows[0].CIK)
	assert.True(t, body.Rows[0].IsStarred)
	assert.Equal(t, "C", body.Rows[1].CIK)
	assert.True(t, body.Rows[1].IsStarred)

	// The watchlist view asks for the complete set, unpaginated.
	assert.True(t, lister.lastFilter.All)
}
