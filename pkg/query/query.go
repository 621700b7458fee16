package query

import (
	"context"
	"time"

	"github.com/homefront-io/redalert-gateway/pkg/models"
	"github.com/homefront-io/redalert-gateway/pkg/store"
)

// Service is the read side of the alert state store. All queries return only
// live records, with liveness evaluated against the moment the iterator was
// created, and transparently resume paginated storage reads.
type Service struct {
	storage  store.Storage
	pageSize int
	nowFn    func() int64
}

// NewService creates a query service over the given storage backend
func NewService(storage store.Storage, pageSize int) *Service {
	return &Service{
		storage:  storage,
		pageSize: pageSize,
		nowFn:    func() int64 { return time.Now().Unix() },
	}
}

// fetchFunc produces the next batch of raw records. more is false once the
// underlying source has no further pages.
type fetchFunc func(ctx context.Context) (records []models.ActiveAlertRecord, more bool, err error)

// Iterator is a lazy sequence of live alert records. Usage follows the
// database rows pattern:
//
//	it := svc.ByArea(ctx, areaID)
//	for it.Next() {
//	    rec := it.Record()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	ctx   context.Context
	fetch fetchFunc
	nowS  int64

	buf  []models.ActiveAlertRecord
	idx  int
	more bool
	cur  models.ActiveAlertRecord
	err  error
}

// Next advances to the next live record, fetching further storage pages as
// needed. It returns false when the sequence is exhausted or a fetch failed.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}

	for {
		for it.idx < len(it.buf) {
			rec := it.buf[it.idx]
			it.idx++
			if rec.Live(it.nowS) {
				it.cur = rec
				return true
			}
		}

		if !it.more {
			return false
		}

		records, more, err := it.fetch(it.ctx)
		if err != nil {
			it.err = err
			return false
		}
		it.buf = records
		it.idx = 0
		it.more = more
	}
}

// Record returns the record the iterator currently points at. It is only
// valid after a true Next.
func (it *Iterator) Record() models.ActiveAlertRecord {
	return it.cur
}

// Err returns the first error encountered while fetching pages
func (it *Iterator) Err() error {
	return it.err
}

// ByArea returns all live records under one area
func (s *Service) ByArea(ctx context.Context, areaID string) *Iterator {
	token := ""
	return s.iterator(ctx, func(ctx context.Context) ([]models.ActiveAlertRecord, bool, error) {
		page, err := s.storage.QueryByArea(ctx, areaID, token, s.pageSize)
		if err != nil {
			return nil, false, err
		}
		token = page.NextToken
		return page.Records, page.NextToken != "", nil
	})
}

// ByDistricts returns live records across the given districts, in district
// order. Records are not deduplicated across districts: the caller may see
// one record per district for the same alert.
func (s *Service) ByDistricts(ctx context.Context, districtIDs []string) *Iterator {
	idx := 0
	token := ""
	return s.iterator(ctx, func(ctx context.Context) ([]models.ActiveAlertRecord, bool, error) {
		for idx < len(districtIDs) {
			page, err := s.storage.QueryByDistrict(ctx, districtIDs[idx], token, s.pageSize)
			if err != nil {
				return nil, false, err
			}
			token = page.NextToken
			if page.NextToken == "" {
				// This district is exhausted; move to the next one.
				idx++
			}
			more := page.NextToken != "" || idx < len(districtIDs)
			return page.Records, more, nil
		}
		return nil, false, nil
	})
}

// All returns every live record in the store
func (s *Service) All(ctx context.Context) *Iterator {
	token := ""
	return s.iterator(ctx, func(ctx context.Context) ([]models.ActiveAlertRecord, bool, error) {
		page, err := s.storage.ScanAll(ctx, token, s.pageSize)
		if err != nil {
			return nil, false, err
		}
		token = page.NextToken
		return page.Records, page.NextToken != "", nil
	})
}

func (s *Service) iterator(ctx context.Context, fetch fetchFunc) *Iterator {
	return &Iterator{
		ctx:   ctx,
		fetch: fetch,
		nowS:  s.nowFn(),
		more:  true,
	}
}

// Collect drains an iterator into a slice
func Collect(it *Iterator) ([]models.ActiveAlertRecord, error) {
	records := make([]models.ActiveAlertRecord, 0)
	for it.Next() {
		records = append(records, it.Record())
	}
	return records, it.Err()
}
