package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/homefront-io/redalert-gateway/pkg/models"
)

// keySeparator joins key parts in the in-memory index. The unit separator
// cannot appear in district or category identifiers.
const keySeparator = "\x1f"

// MemoryStorage is an in-memory Storage used by tests and local runs. It
// honors the same conditional-put and pagination contract as the Postgres
// backend, with a mutex standing in for the database's atomicity.
type MemoryStorage struct {
	mu      sync.Mutex
	records map[string]models.ActiveAlertRecord

	// PageSize bounds each returned page. Tests set a small value to
	// exercise pagination.
	PageSize int
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records:  make(map[string]models.ActiveAlertRecord),
		PageSize: 100,
	}
}

func recordKey(rec *models.ActiveAlertRecord) string {
	return strings.Join([]string{
		rec.District.AreaID,
		rec.District.ID,
		rec.AlertCategory.CodeName,
	}, keySeparator)
}

// ConditionalPut implements Storage
func (m *MemoryStorage) ConditionalPut(_ context.Context, rec models.ActiveAlertRecord, nowS int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(&rec)
	if existing, ok := m.records[key]; ok && existing.ReAlertAtS > nowS {
		return false, nil
	}
	m.records[key] = rec
	return true, nil
}

// QueryByArea implements Storage
func (m *MemoryStorage) QueryByArea(_ context.Context, areaID, pageToken string, limit int) (Page, error) {
	return m.page(pageToken, limit, func(rec *models.ActiveAlertRecord) bool {
		return rec.District.AreaID == areaID
	}), nil
}

// QueryByDistrict implements Storage
func (m *MemoryStorage) QueryByDistrict(_ context.Context, districtID, pageToken string, limit int) (Page, error) {
	return m.page(pageToken, limit, func(rec *models.ActiveAlertRecord) bool {
		return rec.District.ID == districtID
	}), nil
}

// ScanAll implements Storage
func (m *MemoryStorage) ScanAll(_ context.Context, pageToken string, limit int) (Page, error) {
	return m.page(pageToken, limit, func(*models.ActiveAlertRecord) bool {
		return true
	}), nil
}

// Len returns the number of physically stored records, live or expired
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Get returns the stored record for a key, if present
func (m *MemoryStorage) Get(areaID, districtID, categoryCode string) (models.ActiveAlertRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[strings.Join([]string{areaID, districtID, categoryCode}, keySeparator)]
	return rec, ok
}

// page returns one key-ordered page of matching records, resuming after the
// pageToken key.
func (m *MemoryStorage) page(pageToken string, limit int, match func(*models.ActiveAlertRecord) bool) Page {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > m.PageSize {
		limit = m.PageSize
	}

	keys := make([]string, 0, len(m.records))
	for key := range m.records {
		rec := m.records[key]
		if key > pageToken && match(&rec) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	page := Page{}
	for i, key := range keys {
		if i == limit {
			// More matches remain past this page; resume after the last
			// returned key.
			page.NextToken = keys[i-1]
			break
		}
		page.Records = append(page.Records, m.records[key])
	}
	return page
}
