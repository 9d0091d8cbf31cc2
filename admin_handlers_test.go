package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doAdminRequest(t *testing.T, app *App, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	app.buildRouter().ServeHTTP(w, req)
	return w
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	app := newTestApp(testDataset())

	w := doAdminRequest(t, app, http.MethodPost, "/api/admin/dataset/reload", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doAdminRequest(t, app, http.MethodGet, "/api/admin/dataset/status", "garbage.token.here")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminTokenRoundTrip(t *testing.T) {
	app := newTestApp(testDataset())

	token, err := app.createAdminToken("ops@example.com")
	require.NoError(t, err)

	email, err := app.verifyAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", email)
}

func TestAdminTokenSignedWithOtherSecretRejected(t *testing.T) {
	app := newTestApp(testDataset())
	other := newTestApp(testDataset())
	other.cfg.AppSigningSecret = "another-secret-entirely"

	token, err := other.createAdminToken("ops@example.com")
	require.NoError(t, err)

	_, err = app.verifyAdminToken(token)
	assert.Error(t, err)
}

func TestAdminDatasetStatus(t *testing.T) {
	app := newTestApp(testDataset())
	token, err := app.createAdminToken("ops@example.com")
	require.NoError(t, err)

	w := doAdminRequest(t, app, http.MethodGet, "/api/admin/dataset/status", token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status    string `json:"status"`
		Source    string `json:"source"`
		Provinces int    `json:"provinces"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "stub", resp.Source)
	assert.Equal(t, 2, resp.Provinces)
}

func TestAdminDatasetReload(t *testing.T) {
	app := newTestApp(testDataset())
	token, err := app.createAdminToken("ops@example.com")
	require.NoError(t, err)

	replacement := &RegionDataset{
		Provinces: []Province{{ID: 3, Name: "Banten"}},
		Regencies: []Regency{},
		Districts: []District{},
	}
	app.provider.(*stubProvider).set(replacement, nil)

	w := doAdminRequest(t, app, http.MethodPost, "/api/admin/dataset/reload", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, replacement, app.currentDataset())
}

func TestAdminDatasetReloadFailureKeepsServing(t *testing.T) {
	ds := testDataset()
	app := newTestApp(ds)
	token, err := app.createAdminToken("ops@example.com")
	require.NoError(t, err)

	app.provider.(*stubProvider).set(nil, &FetchError{Source: "stub", Err: errors.New("upstream down")})

	w := doAdminRequest(t, app, http.MethodPost, "/api/admin/dataset/reload", token)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// Selection keeps working against the previously loaded dataset.
	sel := doRequest(t, app, http.MethodGet, "/api/selection?province=1", nil)
	assert.Equal(t, http.StatusOK, sel.Code)
	assert.Equal(t, ds, app.currentDataset())
}
