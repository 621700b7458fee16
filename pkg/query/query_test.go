package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefront-io/redalert-gateway/pkg/models"
	"github.com/homefront-io/redalert-gateway/pkg/store"
)

func seedRecord(t *testing.T, storage *store.MemoryStorage, districtID, areaID, categoryCode string, createdAtS, expiresAtS int64) {
	t.Helper()
	rec := models.ActiveAlertRecord{
		Alert: models.Alert{ID: "alert-" + districtID, CategoryID: "1"},
		District: models.District{
			ID:       districtID,
			AreaID:   areaID,
			AreaName: "Area " + areaID,
		},
		AlertCategory: models.AlertCategory{ID: 1, CodeName: categoryCode, Label: "Red Alert"},
		CreatedAtS:    createdAtS,
		ExpiresAtS:    expiresAtS,
		ReAlertAtS:    createdAtS + 120,
	}
	applied, err := storage.ConditionalPut(context.Background(), rec, createdAtS)
	require.NoError(t, err)
	require.True(t, applied)
}

func newServiceAt(storage store.Storage, pageSize int, nowS int64) *Service {
	svc := NewService(storage, pageSize)
	svc.nowFn = func() int64 { return nowS }
	return svc
}

func TestByAreaFiltersExpired(t *testing.T) {
	storage := store.NewMemoryStorage()
	seedRecord(t, storage, "d1", "area-1", "missiles", 0, 730)
	seedRecord(t, storage, "d2", "area-1", "missiles", 0, 600)

	// At t=700 only the record expiring at 730 is live.
	svc := newServiceAt(storage, 100, 700)
	records, err := Collect(svc.ByArea(context.Background(), "area-1"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "d1", records[0].District.ID)

	// At t=800 nothing is live, regardless of physical persistence.
	svc = newServiceAt(storage, 100, 800)
	records, err = Collect(svc.ByArea(context.Background(), "area-1"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestByAreaResumesPages(t *testing.T) {
	storage := store.NewMemoryStorage()
	storage.PageSize = 2 // force multiple pages

	districts := []string{"d1", "d2", "d3", "d4", "d5"}
	for _, id := range districts {
		seedRecord(t, storage, id, "area-1", "missiles", 0, 600)
	}
	seedRecord(t, storage, "d9", "area-2", "missiles", 0, 600)

	svc := newServiceAt(storage, 2, 10)
	records, err := Collect(svc.ByArea(context.Background(), "area-1"))
	require.NoError(t, err)

	// The caller sees one logical sequence across all pages.
	require.Len(t, records, 5)
	seen := make(map[string]bool)
	for _, rec := range records {
		seen[rec.District.ID] = true
	}
	for _, id := range districts {
		assert.True(t, seen[id], "district %s missing from paginated result", id)
	}
}

func TestByDistrictsUnion(t *testing.T) {
	storage := store.NewMemoryStorage()
	seedRecord(t, storage, "d1", "area-1", "missiles", 0, 600)
	seedRecord(t, storage, "d2", "area-1", "missiles", 0, 600)
	seedRecord(t, storage, "d3", "area-1", "missiles", 0, 600)

	svc := newServiceAt(storage, 100, 10)
	records, err := Collect(svc.ByDistricts(context.Background(), []string{"d1", "d3"}))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "d1", records[0].District.ID)
	assert.Equal(t, "d3", records[1].District.ID)
}

func TestAllSpansAreas(t *testing.T) {
	storage := store.NewMemoryStorage()
	storage.PageSize = 1

	seedRecord(t, storage, "d1", "area-1", "missiles", 0, 600)
	seedRecord(t, storage, "d2", "area-2", "missiles", 0, 600)
	seedRecord(t, storage, "d3", "area-3", "missiles", 0, 300)

	// d3 is already expired at t=400.
	svc := newServiceAt(storage, 1, 400)
	records, err := Collect(svc.All(context.Background()))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

// erroringStorage fails every read
type erroringStorage struct {
	*store.MemoryStorage
}

func (e *erroringStorage) QueryByArea(context.Context, string, string, int) (store.Page, error) {
	return store.Page{}, store.ErrStoreUnavailable
}

func TestIteratorSurfacesStorageError(t *testing.T) {
	storage := &erroringStorage{MemoryStorage: store.NewMemoryStorage()}
	svc := newServiceAt(storage, 100, 10)

	it := svc.ByArea(context.Background(), "area-1")
	assert.False(t, it.Next())
	assert.True(t, errors.Is(it.Err(), store.ErrStoreUnavailable))
}

func TestCollectEmptyStore(t *testing.T) {
	svc := newServiceAt(store.NewMemoryStorage(), 100, 10)
	records, err := Collect(svc.All(context.Background()))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
