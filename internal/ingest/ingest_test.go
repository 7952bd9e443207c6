package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insuremap/exclusion-registry/internal/model"
	"github.com/insuremap/exclusion-registry/internal/registry"
)

func writeSource(t *testing.T, dir, source string, records []model.SourceRecord) {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	path := filepath.Join(dir, source+SourceFileSuffix)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestRun_MergesSameHospitalAcrossSources(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "A", []model.SourceRecord{
		{Name: "Sri Hospital", Address: "12 MG Rd", City: "Pune", State: "MH", Pincode: "411001"},
	})
	writeSource(t, dir, "B", []model.SourceRecord{
		{Name: "SRI. HOSPITAL", Address: "", City: "Pune", State: "MH", Pincode: "411001"},
	})

	reg := registry.New()
	res, err := Run(dir, reg)
	require.NoError(t, err)

	assert.Equal(t, 2, res.SourcesRead)
	assert.Equal(t, 1, res.Added)
	require.Equal(t, 1, reg.Len())

	e := reg.Get(model.CanonicalID("Sri Hospital", "411001", "Pune"))
	require.NotNil(t, e)
	e.SortSources()
	assert.Equal(t, []string{"A", "B"}, e.ExcludedBy)
	assert.Equal(t, "12 MG Rd", e.Address, "empty address must not overwrite")
	assert.Equal(t, model.AccuracyPending, e.Accuracy)
	assert.True(t, e.NeedsResolution)
}

func TestRun_HighAccuracyTextIsSticky(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "B", []model.SourceRecord{
		{Name: "Sri Hospital", Address: "Completely Different Address 99", City: "Mumbai", State: "MH", Pincode: "411001"},
	})

	reg := registry.New()
	id := model.CanonicalID("Sri Hospital", "411001", "Pune")
	reg.Put(id, &model.Entity{
		Name: "Sri Hospital", Address: "12 MG Rd", City: "Pune", State: "MH", Pincode: "411001",
		ExcludedBy: []string{"A"},
		Lat:        18.52, Lng: 73.85,
		Accuracy: model.AccuracyHigh,
	})

	// The record computes the same id (same name + pin).
	_, err := Run(dir, reg)
	require.NoError(t, err)

	e := reg.Get(id)
	require.NotNil(t, e)
	assert.Equal(t, "12 MG Rd", e.Address)
	assert.Equal(t, "Pune", e.City)
	assert.False(t, e.NeedsResolution)
	e.SortSources()
	assert.Equal(t, []string{"A", "B"}, e.ExcludedBy)
}

func TestRun_AddressChangeQueuesReResolution(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "A", []model.SourceRecord{
		{Name: "Sri Hospital", Address: "New Address, Sector 5", City: "Pune", State: "MH", Pincode: "411001"},
	})

	reg := registry.New()
	id := model.CanonicalID("Sri Hospital", "411001", "Pune")
	reg.Put(id, &model.Entity{
		Name: "Sri Hospital", Address: "Old Address", City: "Pune", State: "MH", Pincode: "411001",
		ExcludedBy: []string{"A"},
		Lat:        18.52, Lng: 73.85,
		Accuracy: model.AccuracyLow,
	})

	res, err := Run(dir, reg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	e := reg.Get(id)
	assert.Equal(t, "New Address, Sector 5", e.Address)
	assert.True(t, e.NeedsResolution)
}

func TestRun_ShortAddressDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "A", []model.SourceRecord{
		{Name: "Sri Hospital", Address: "x", City: "Pune", State: "MH", Pincode: "411001"},
	})

	reg := registry.New()
	id := model.CanonicalID("Sri Hospital", "411001", "Pune")
	reg.Put(id, &model.Entity{
		Name: "Sri Hospital", Address: "12 MG Rd, Pune", City: "Pune", State: "MH", Pincode: "411001",
		ExcludedBy: []string{"A"},
		Accuracy:   model.AccuracyLow, Lat: 1, Lng: 1,
	})

	_, err := Run(dir, reg)
	require.NoError(t, err)

	e := reg.Get(id)
	assert.Equal(t, "12 MG Rd, Pune", e.Address)
	assert.False(t, e.NeedsResolution)
}

func TestRun_PrunesEntitiesNoLongerReported(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "A", []model.SourceRecord{
		{Name: "Kept Hospital", City: "Pune", Pincode: "411001"},
	})

	reg := registry.New()
	reg.Put(model.CanonicalID("Kept Hospital", "411001", "Pune"), &model.Entity{
		Name: "Kept Hospital", Pincode: "411001", ExcludedBy: []string{"A"}, Accuracy: model.AccuracyHigh, Lat: 1, Lng: 1,
	})
	reg.Put(model.CanonicalID("Gone Hospital", "560001", "Bangalore"), &model.Entity{
		Name: "Gone Hospital", Pincode: "560001", ExcludedBy: []string{"A"}, Accuracy: model.AccuracyHigh, Lat: 2, Lng: 2,
	})

	res, err := Run(dir, reg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pruned)
	assert.Equal(t, 1, reg.Len())
	assert.Nil(t, reg.Get(model.CanonicalID("Gone Hospital", "560001", "Bangalore")))
}

func TestRun_RetainsEntitiesWhenOnlyBackerFailed(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "A", []model.SourceRecord{
		{Name: "Kept Hospital", City: "Pune", Pincode: "411001"},
	})
	// Source B produced a corrupt file this run.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "B"+SourceFileSuffix), []byte("{broken"), 0o644))

	reg := registry.New()
	reg.Put(model.CanonicalID("Fragile Hospital", "560001", "Bangalore"), &model.Entity{
		Name: "Fragile Hospital", Pincode: "560001", ExcludedBy: []string{"B"}, Accuracy: model.AccuracyHigh, Lat: 2, Lng: 2,
	})

	res, err := Run(dir, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, res.SourcesFailed)
	assert.Zero(t, res.Pruned)
	assert.NotNil(t, reg.Get(model.CanonicalID("Fragile Hospital", "560001", "Bangalore")),
		"entity backed only by a failed source must survive the run")
}

func TestRun_MalformedSourceDoesNotAbortOthers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Bad"+SourceFileSuffix), []byte("not json"), 0o644))
	writeSource(t, dir, "Good", []model.SourceRecord{
		{Name: "Sri Hospital", City: "Pune", Pincode: "411001"},
	})

	reg := registry.New()
	res, err := Run(dir, reg)
	require.NoError(t, err)

	assert.Equal(t, 1, res.SourcesRead)
	assert.Equal(t, []string{"Bad"}, res.SourcesFailed)
	assert.Equal(t, 1, reg.Len())
}

func TestRun_SkipsHeaderArtifactsAndEmptyNames(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "A", []model.SourceRecord{
		{Name: "Hospital Name", City: "City"},
		{Name: ""},
		{Name: "nan"},
		{Name: "Real Hospital", City: "Pune", Pincode: "411001"},
	})

	reg := registry.New()
	res, err := Run(dir, reg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Records)
	assert.Equal(t, 1, reg.Len())
}

func TestRun_NoSourceFilesSkipsPruning(t *testing.T) {
	dir := t.TempDir()

	reg := registry.New()
	reg.Put("X", &model.Entity{Name: "X Hospital", ExcludedBy: []string{"A"}})

	res, err := Run(dir, reg)
	require.NoError(t, err)
	assert.Zero(t, res.Pruned)
	assert.Equal(t, 1, reg.Len())
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "Star Health", sourceName("/data/Star Health Excluded_Hospitals_List.json"))
}
