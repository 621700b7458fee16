package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/homefront-io/redalert-gateway/pkg/models"
)

// ErrStoreUnavailable indicates a transient storage failure. Writes are
// idempotent under the cooldown condition and queries have no side effects,
// so a full retry of the failed operation is always safe.
var ErrStoreUnavailable = errors.New("alert store unavailable")

// Outcome is the result of a state-store write. Suppressed is the designed
// dedup outcome, not an error.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeSuppressed Outcome = "suppressed"
)

// Page is one page of records from the storage backend. NextToken is empty
// when no further pages exist.
type Page struct {
	Records   []models.ActiveAlertRecord
	NextToken string
}

// Storage is the keyed backend behind the state store and the query service.
// ConditionalPut must be atomic with respect to the read-check-write
// sequence: of two writers racing for the same key, exactly one may observe
// the put as applied. All reads are strongly consistent and paginated.
type Storage interface {
	// ConditionalPut stores rec under its (area, district, category) key iff
	// no record exists for the key or the existing record's re-alert window
	// has passed. It reports whether the put was applied.
	ConditionalPut(ctx context.Context, rec models.ActiveAlertRecord, nowS int64) (bool, error)

	QueryByArea(ctx context.Context, areaID, pageToken string, limit int) (Page, error)
	QueryByDistrict(ctx context.Context, districtID, pageToken string, limit int) (Page, error)
	ScanAll(ctx context.Context, pageToken string, limit int) (Page, error)
}

// ChangeHandler consumes the change event emitted for every applied write.
type ChangeHandler func(ctx context.Context, rec models.ActiveAlertRecord) error

// Store is the dedup and idempotency engine. It owns the time-bounded mapping
// from (district, category) to the currently active alert, with a cooldown
// window suppressing duplicate writes for the same key.
type Store struct {
	storage   Storage
	cooldownS int64
	onChange  ChangeHandler
}

// NewStore creates a state store over the given storage backend. cooldownS is
// the minimum interval between accepted writes for the same key.
func NewStore(storage Storage, cooldownS int64) *Store {
	return &Store{
		storage:   storage,
		cooldownS: cooldownS,
	}
}

// OnChange registers the handler invoked once per applied write. A handler
// failure is surfaced to the writer but never rolls back the applied write.
func (s *Store) OnChange(h ChangeHandler) {
	s.onChange = h
}

// Write records one alert for one district. It returns OutcomeApplied and
// emits exactly one change event when the record was created or replaced, and
// OutcomeSuppressed when an unexpired record already holds the key.
func (s *Store) Write(ctx context.Context, alert models.Alert, district models.District, category models.AlertCategory, nowS int64) (Outcome, error) {
	rec := models.ActiveAlertRecord{
		Alert:         alert,
		District:      district,
		AlertCategory: category,
		CreatedAtS:    nowS,
		ExpiresAtS:    nowS + int64(category.DurationMinutes)*60,
		ReAlertAtS:    nowS + s.cooldownS,
	}

	applied, err := s.storage.ConditionalPut(ctx, rec, nowS)
	if err != nil {
		return "", fmt.Errorf("writing alert %s for district %s: %w", alert.ID, district.ID, err)
	}

	if !applied {
		logrus.Debugf("Suppressed duplicate alert %s for district %s (category %s)",
			alert.ID, district.ID, category.CodeName)
		return OutcomeSuppressed, nil
	}

	logrus.Infof("Recorded alert %s for district %s (category %s, expires at %d)",
		alert.ID, district.ID, category.CodeName, rec.ExpiresAtS)

	if s.onChange != nil {
		if err := s.onChange(ctx, rec); err != nil {
			// The write is the source of truth; notification is best-effort.
			return OutcomeApplied, err
		}
	}

	return OutcomeApplied, nil
}

// WriteAll records one alert across all its districts concurrently. Each
// district targets a distinct key, so no ordering is required between the
// writes. It returns the number of applied writes.
func (s *Store) WriteAll(ctx context.Context, alert models.Alert, districts []models.District, category models.AlertCategory, nowS int64) (int, error) {
	var applied atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for _, district := range districts {
		g.Go(func() error {
			outcome, err := s.Write(ctx, alert, district, category, nowS)
			if err != nil {
				return err
			}
			if outcome == OutcomeApplied {
				applied.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(applied.Load()), err
	}
	return int(applied.Load()), nil
}
