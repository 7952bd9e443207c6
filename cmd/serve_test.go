package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insuremap/exclusion-registry/internal/model"
	"github.com/insuremap/exclusion-registry/internal/registry"
)

func seedStore(t *testing.T) *registry.Store {
	t.Helper()
	store := registry.NewStore(filepath.Join(t.TempDir(), "excluded.json"))

	reg := registry.New()
	reg.Put(model.CanonicalID("Sri Hospital", "411001", "Pune"), &model.Entity{
		Name: "Sri Hospital", Address: "12 MG Rd", City: "Pune", State: "MH", Pincode: "411001",
		ExcludedBy: []string{"Star"},
		Lat:        18.52043, Lng: 73.85674,
		Accuracy: model.AccuracyHigh,
	})
	require.NoError(t, store.Commit(reg))
	return store
}

func TestBuildRouter_Health(t *testing.T) {
	router := buildRouter(seedStore(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildRouter_Registry(t *testing.T) {
	router := buildRouter(seedStore(t))

	req := httptest.NewRequest(http.MethodGet, "/registry", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var entities []model.Entity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entities))
	require.Len(t, entities, 1)
	assert.Equal(t, "Sri Hospital", entities[0].Name)
	assert.Equal(t, model.AccuracyHigh, entities[0].Accuracy)
}

func TestBuildRouter_Stats(t *testing.T) {
	router := buildRouter(seedStore(t))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var stats registry.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByAccuracy["HIGH"])
	assert.Equal(t, 1, stats.BySource["Star"])
	assert.Zero(t, stats.Unresolved)
}

func TestBuildRouter_RegistryMissingFileIsEmpty(t *testing.T) {
	store := registry.NewStore(filepath.Join(t.TempDir(), "excluded.json"))
	router := buildRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/registry", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}
