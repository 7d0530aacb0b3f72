package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/crewtrack/internal/realtime"
)

const testUserID int64 = 7

// newLocationApp arma una app Fiber con el handler y un usuario ya
// autenticado (el middleware real se testea aparte).
func newLocationApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hub := realtime.NewHub(nil, nil)
	h := NewLocationShareHandler(db, hub)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", testUserID)
		return c.Next()
	})
	app.Put("/api/productions/:id/location", h.UpdateLocation)
	app.Put("/api/productions/:id/location/sharing", h.ToggleSharing)
	app.Get("/api/productions/:id/locations", h.GetTeamLocations)

	return app, mock
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func expectMembership(mock sqlmock.Sqlmock, member bool) {
	q := mock.ExpectQuery(`SELECT 1 FROM user_productions`).
		WithArgs(testUserID, int64(42))
	if member {
		q.WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	} else {
		q.WillReturnError(sql.ErrNoRows)
	}
}

func TestUpdateLocationUpsertsWithGridReference(t *testing.T) {
	app, mock := newLocationApp(t)

	expectMembership(mock, true)
	// upsert de fila completa con grid derivado de (40.0, -74.0)
	mock.ExpectExec(`INSERT INTO location_shares`).
		WithArgs(testUserID, 42, 40.0, -74.0, "M:53").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := app.Test(jsonRequest("PUT", "/api/productions/42/location",
		fiber.Map{"latitude": 40.0, "longitude": -74.0}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"grid_reference":"M:53"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLocationRejectsInvalidCoordinates(t *testing.T) {
	app, mock := newLocationApp(t)

	cases := []fiber.Map{
		{"latitude": 91.0, "longitude": 0.0},
		{"latitude": 0.0, "longitude": -181.0},
	}
	for _, body := range cases {
		resp, err := app.Test(jsonRequest("PUT", "/api/productions/42/location", body), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	}
	// ninguna consulta debe llegar a la DB
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLocationRequiresMembership(t *testing.T) {
	app, mock := newLocationApp(t)

	expectMembership(mock, false)

	resp, err := app.Test(jsonRequest("PUT", "/api/productions/42/location",
		fiber.Map{"latitude": 10.0, "longitude": 10.0}), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLocationWriteFailureSurfacesError(t *testing.T) {
	app, mock := newLocationApp(t)

	expectMembership(mock, true)
	mock.ExpectExec(`INSERT INTO location_shares`).
		WillReturnError(sql.ErrConnDone)

	resp, err := app.Test(jsonRequest("PUT", "/api/productions/42/location",
		fiber.Map{"latitude": 10.0, "longitude": 10.0}), -1)
	require.NoError(t, err)
	// sin reintento: el error llega al cliente para revertir su estado local
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleSharingOffDoesNotTouchCoordinates(t *testing.T) {
	app, mock := newLocationApp(t)

	expectMembership(mock, true)
	// el UPDATE del upsert solo toca is_sharing y last_updated
	mock.ExpectExec(`ON DUPLICATE KEY UPDATE\s+is_sharing = VALUES\(is_sharing\),\s+last_updated = NOW\(\)`).
		WithArgs(testUserID, 42, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := app.Test(jsonRequest("PUT", "/api/productions/42/location/sharing",
		fiber.Map{"is_sharing": false}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Escenario: activar, registrar (40.0, -74.0), desactivar, reactivar sin fix
// nuevo. La última posición conocida sobrevive los dos toggles.
func TestSharingToggleCyclePreservesLastKnownPosition(t *testing.T) {
	app, mock := newLocationApp(t)

	// fix inicial
	expectMembership(mock, true)
	mock.ExpectExec(`INSERT INTO location_shares`).
		WithArgs(testUserID, 42, 40.0, -74.0, "M:53").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := app.Test(jsonRequest("PUT", "/api/productions/42/location",
		fiber.Map{"latitude": 40.0, "longitude": -74.0}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// toggle off y on: ninguno incluye coordenadas en sus argumentos
	for _, sharing := range []bool{false, true} {
		expectMembership(mock, true)
		mock.ExpectExec(`INSERT INTO location_shares`).
			WithArgs(testUserID, 42, sharing).
			WillReturnResult(sqlmock.NewResult(0, 1))

		resp, err := app.Test(jsonRequest("PUT", "/api/productions/42/location/sharing",
			fiber.Map{"is_sharing": sharing}), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	// la lectura posterior sigue viendo las coordenadas del fix original
	expectMembership(mock, true)
	mock.ExpectQuery(`SELECT\s+ls\.user_id`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "username", "name", "latitude", "longitude",
			"grid_reference", "is_sharing", "last_updated",
		}).AddRow(testUserID, "demo", "Demo", 40.0, -74.0, "M:53", true, time.Now()))

	resp, err = app.Test(httptest.NewRequest("GET", "/api/productions/42/locations", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"latitude":40`)
	assert.Contains(t, string(body), `"longitude":-74`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTeamLocationsDerivesPresence(t *testing.T) {
	app, mock := newLocationApp(t)

	now := time.Now()
	expectMembership(mock, true)
	mock.ExpectQuery(`SELECT\s+ls\.user_id`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "username", "name", "latitude", "longitude",
			"grid_reference", "is_sharing", "last_updated",
		}).
			AddRow(testUserID, "demo", "Demo", -33.44, -70.66, "N:17", true, now.Add(-2*time.Minute)).
			AddRow(int64(8), "sound", "Sonidista", -33.45, -70.67, "M:16", true, now.Add(-10*time.Minute)).
			AddRow(int64(9), "edit", "Editor", -33.46, -70.68, "L:15", true, now.Add(-45*time.Minute)).
			AddRow(int64(10), nil, nil, 0.0, 0.0, "", false, now))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/productions/42/locations", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var parsed struct {
		Locations []struct {
			UserID        int64   `json:"user_id"`
			Username      *string `json:"username"`
			Presence      string  `json:"presence"`
			PresenceColor string  `json:"presence_color"`
			IsSelf        bool    `json:"is_self"`
		} `json:"locations"`
		Count int `json:"count"`
	}
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.Equal(t, 4, parsed.Count)

	assert.Equal(t, "online", parsed.Locations[0].Presence)
	assert.Equal(t, "green", parsed.Locations[0].PresenceColor)
	assert.True(t, parsed.Locations[0].IsSelf)

	assert.Equal(t, "recently_active", parsed.Locations[1].Presence)
	assert.Equal(t, "offline", parsed.Locations[2].Presence)

	// not_sharing ignora el timestamp aunque sea reciente; perfil borrado
	// deja username en null
	assert.Equal(t, "not_sharing", parsed.Locations[3].Presence)
	assert.Nil(t, parsed.Locations[3].Username)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTeamLocationsReadFailureReturnsEmptySet(t *testing.T) {
	app, mock := newLocationApp(t)

	expectMembership(mock, true)
	mock.ExpectQuery(`SELECT\s+ls\.user_id`).
		WillReturnError(sql.ErrConnDone)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/productions/42/locations", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"locations":[]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
