package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefront-io/redalert-gateway/pkg/catalog"
	"github.com/homefront-io/redalert-gateway/pkg/models"
)

func fixedCatalogs() *catalog.Catalogs {
	districts := []models.District{
		{ID: "d1", AreaID: "area-1", HebrewName: "תל אביב", EnglishName: "Tel Aviv"},
		{ID: "d2", AreaID: "area-1", HebrewName: "חולון", EnglishName: "Holon"},
	}
	categories := []models.AlertCategory{
		{ID: 1, CodeName: "missiles", DurationMinutes: 10, Label: "Rocket fire"},
	}
	return catalog.New(districts, categories)
}

func TestResolve(t *testing.T) {
	alert := &models.Alert{
		ID:         "alert-1",
		CategoryID: "1",
		Locations:  []string{"תל אביב", "חולון"},
	}

	category, districts, err := Resolve(alert, fixedCatalogs())
	require.NoError(t, err)
	assert.Equal(t, "missiles", category.CodeName)
	require.Len(t, districts, 2)
	assert.Equal(t, "d1", districts[0].ID)
	assert.Equal(t, "d2", districts[1].ID)
}

func TestResolveUnknownCategory(t *testing.T) {
	alert := &models.Alert{ID: "alert-1", CategoryID: "99", Locations: []string{"תל אביב"}}

	_, _, err := Resolve(alert, fixedCatalogs())
	require.Error(t, err)

	var catErr *UnknownCategoryError
	require.True(t, errors.As(err, &catErr))
	assert.Equal(t, "99", catErr.CategoryID)
}

func TestResolveUnknownLocation(t *testing.T) {
	alert := &models.Alert{
		ID:         "alert-1",
		CategoryID: "1",
		Locations:  []string{"תל אביב", "nowhere"},
	}

	_, _, err := Resolve(alert, fixedCatalogs())
	require.Error(t, err)

	var locErr *UnknownLocationError
	require.True(t, errors.As(err, &locErr))
	assert.Equal(t, "nowhere", locErr.Location)
}

func TestResolveLenientSkipsUnknownLocations(t *testing.T) {
	alert := &models.Alert{
		ID:         "alert-1",
		CategoryID: "1",
		Locations:  []string{"תל אביב", "nowhere", "elsewhere"},
	}

	category, districts, unresolved, err := ResolveLenient(alert, fixedCatalogs())
	require.NoError(t, err)
	assert.Equal(t, "missiles", category.CodeName)

	require.Len(t, districts, 1)
	assert.Equal(t, "d1", districts[0].ID)

	require.Len(t, unresolved, 2)
	var locErr *UnknownLocationError
	require.True(t, errors.As(unresolved[0], &locErr))
	assert.Equal(t, "nowhere", locErr.Location)
}

func TestResolveLenientUnknownCategoryStillFatal(t *testing.T) {
	alert := &models.Alert{ID: "alert-1", CategoryID: "99", Locations: []string{"תל אביב"}}

	_, _, _, err := ResolveLenient(alert, fixedCatalogs())
	require.Error(t, err)

	var catErr *UnknownCategoryError
	assert.True(t, errors.As(err, &catErr))
}
