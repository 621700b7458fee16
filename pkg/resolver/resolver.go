package resolver

import (
	"fmt"

	"github.com/homefront-io/redalert-gateway/pkg/catalog"
	"github.com/homefront-io/redalert-gateway/pkg/models"
)

// UnknownCategoryError indicates the alert references a category that is not
// in the cached catalog, usually because the catalog is stale.
type UnknownCategoryError struct {
	CategoryID string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown alert category %q", e.CategoryID)
}

// UnknownLocationError indicates a reported location has no matching district
// in the cached catalog. It names the offending location so callers can
// decide whether to skip it or abort the whole alert.
type UnknownLocationError struct {
	Location string
}

func (e *UnknownLocationError) Error() string {
	return fmt.Sprintf("unknown location %q", e.Location)
}

// Resolve maps an incoming alert onto its category metadata and the concrete
// districts it affects. It is strict: the first unmapped location aborts
// resolution.
func Resolve(alert *models.Alert, catalogs *catalog.Catalogs) (models.AlertCategory, []models.District, error) {
	category, districts, unresolved, err := ResolveLenient(alert, catalogs)
	if err != nil {
		return models.AlertCategory{}, nil, err
	}
	if len(unresolved) > 0 {
		return models.AlertCategory{}, nil, unresolved[0]
	}
	return category, districts, nil
}

// ResolveLenient maps an incoming alert onto its category and districts,
// returning per-location resolution failures alongside the districts that
// did resolve. An unknown category is still fatal since expiry cannot be
// computed without it.
func ResolveLenient(alert *models.Alert, catalogs *catalog.Catalogs) (models.AlertCategory, []models.District, []error, error) {
	category, ok := catalogs.CategoryByID(alert.CategoryID)
	if !ok {
		return models.AlertCategory{}, nil, nil, &UnknownCategoryError{CategoryID: alert.CategoryID}
	}

	districts := make([]models.District, 0, len(alert.Locations))
	var unresolved []error
	for _, location := range alert.Locations {
		district, ok := catalogs.DistrictByName(location)
		if !ok {
			unresolved = append(unresolved, &UnknownLocationError{Location: location})
			continue
		}
		districts = append(districts, district)
	}

	return category, districts, unresolved, nil
}
