package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/homefront-io/redalert-gateway/pkg/models"
)

// Source supplies the reference catalogs the resolver needs.
type Source interface {
	FetchDistricts(ctx context.Context) ([]models.District, error)
	FetchCategories(ctx context.Context) ([]models.AlertCategory, error)
}

// Catalogs is an explicitly owned snapshot of the district and category
// reference data. It is loaded once, shared read-only for the lifetime of the
// process, and only refreshed by loading a new snapshot. Staleness between
// loads is an accepted tradeoff.
type Catalogs struct {
	districtsByHebrewName map[string]models.District
	categoriesByID        map[string]models.AlertCategory
}

// Load fetches both catalogs from the source and builds a snapshot. It blocks
// until both fetches complete.
func Load(ctx context.Context, src Source) (*Catalogs, error) {
	districts, err := src.FetchDistricts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading district catalog: %w", err)
	}

	categories, err := src.FetchCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading category catalog: %w", err)
	}

	c := New(districts, categories)
	logrus.Infof("Loaded catalogs: %d districts, %d alert categories",
		len(c.districtsByHebrewName), len(c.categoriesByID))
	return c, nil
}

// New builds a catalog snapshot from already-fetched reference data. Tests
// use it to inject fixed catalogs.
func New(districts []models.District, categories []models.AlertCategory) *Catalogs {
	c := &Catalogs{
		districtsByHebrewName: make(map[string]models.District, len(districts)),
		categoriesByID:        make(map[string]models.AlertCategory, len(categories)),
	}
	for _, d := range districts {
		c.districtsByHebrewName[d.HebrewName] = d
	}
	for _, cat := range categories {
		c.categoriesByID[strconv.Itoa(cat.ID)] = cat
	}
	return c
}

// DistrictByName looks up a district by the location name the source reports.
func (c *Catalogs) DistrictByName(name string) (models.District, bool) {
	d, ok := c.districtsByHebrewName[name]
	return d, ok
}

// CategoryByID looks up an alert category by its identifier.
func (c *Catalogs) CategoryByID(id string) (models.AlertCategory, bool) {
	cat, ok := c.categoriesByID[id]
	return cat, ok
}
