package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/homefront-io/redalert-gateway/pkg/catalog"
	"github.com/homefront-io/redalert-gateway/pkg/models"
	"github.com/homefront-io/redalert-gateway/pkg/resolver"
	"github.com/homefront-io/redalert-gateway/pkg/store"
)

// AlertSource supplies the current alert snapshot
type AlertSource interface {
	FetchCurrentAlert(ctx context.Context) (*models.Alert, error)
}

// Scanner drives one poll cycle: fetch the current alert, resolve it against
// the cached catalogs, and write one record per affected district. Each cycle
// is an independent unit of work; the store's conditional write is the only
// synchronization against concurrent scanners.
type Scanner struct {
	source   AlertSource
	catalogs *catalog.Catalogs
	store    *store.Store
}

// NewScanner creates a scanner over a loaded catalog snapshot
func NewScanner(source AlertSource, catalogs *catalog.Catalogs, st *store.Store) *Scanner {
	return &Scanner{
		source:   source,
		catalogs: catalogs,
		store:    st,
	}
}

// Cycle runs one poll cycle at the current time
func (s *Scanner) Cycle(ctx context.Context) error {
	return s.cycleAt(ctx, time.Now().Unix())
}

func (s *Scanner) cycleAt(ctx context.Context, nowS int64) error {
	alert, err := s.source.FetchCurrentAlert(ctx)
	if err != nil {
		return fmt.Errorf("fetching current alert: %w", err)
	}
	if alert == nil {
		logrus.Debug("No active alert")
		return nil
	}

	logrus.Infof("Alert %s received: %s (%d locations)", alert.ID, alert.Title, len(alert.Locations))

	category, districts, unresolved, err := resolver.ResolveLenient(alert, s.catalogs)
	if err != nil {
		return fmt.Errorf("resolving alert %s: %w", alert.ID, err)
	}

	// Locations missing from the cached catalog are skipped rather than
	// aborting the districts that did resolve.
	for _, locErr := range unresolved {
		logrus.Warnf("Skipping unresolvable location in alert %s: %v", alert.ID, locErr)
	}
	if len(districts) == 0 {
		logrus.Warnf("Alert %s resolved to no districts, nothing to record", alert.ID)
		return nil
	}

	applied, err := s.store.WriteAll(ctx, *alert, districts, category, nowS)
	if err != nil {
		return fmt.Errorf("recording alert %s: %w", alert.ID, err)
	}

	logrus.Infof("Scan cycle complete: %d districts, %d applied, %d suppressed",
		len(districts), applied, len(districts)-applied)
	return nil
}

// Run polls the source on the given interval until the context is canceled.
// A failed cycle is logged and skipped; the next tick retries naturally.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) {
	logrus.Infof("Scanner started, polling every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Scanner stopped")
			return
		case <-ticker.C:
			if err := s.Cycle(ctx); err != nil {
				logrus.Errorf("Scan cycle failed: %v", err)
			}
		}
	}
}
