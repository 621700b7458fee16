package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/homefront-io/redalert-gateway/pkg/config"
	"github.com/homefront-io/redalert-gateway/pkg/models"
)

// DB is the slice of the pgx pool API the storage uses. Both *pgxpool.Pool
// and pgxmock's pool satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStorage implements Storage on Postgres. The conditional put maps to
// a single INSERT ... ON CONFLICT DO UPDATE ... WHERE statement, which the
// database executes atomically; reads go to the primary and are therefore
// read-your-writes consistent.
type PostgresStorage struct {
	db       DB
	pageSize int
}

// NewPostgresStorage creates a storage over an existing database handle
func NewPostgresStorage(db DB, pageSize int) *PostgresStorage {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &PostgresStorage{db: db, pageSize: pageSize}
}

// NewPool creates a pgx connection pool from the database configuration and
// verifies connectivity.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		pgxCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pgxCfg.MinConns = cfg.MinConns
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, fmt.Errorf("creating database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logrus.Info("Connected to Postgres")
	return pool, nil
}

// EnsureSchema creates the active-alert table and index if missing
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, SchemaSQL()); err != nil {
		return fmt.Errorf("%w: creating schema: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// ConditionalPut implements Storage
func (p *PostgresStorage) ConditionalPut(ctx context.Context, rec models.ActiveAlertRecord, nowS int64) (bool, error) {
	alertJSON, err := json.Marshal(rec.Alert)
	if err != nil {
		return false, fmt.Errorf("encoding alert: %w", err)
	}
	districtJSON, err := json.Marshal(rec.District)
	if err != nil {
		return false, fmt.Errorf("encoding district: %w", err)
	}
	categoryJSON, err := json.Marshal(rec.AlertCategory)
	if err != nil {
		return false, fmt.Errorf("encoding alert category: %w", err)
	}

	tag, err := p.db.Exec(ctx, ConditionalPutSQL(),
		rec.District.AreaID, rec.District.ID, rec.AlertCategory.CodeName,
		rec.CreatedAtS, rec.ExpiresAtS, rec.ReAlertAtS,
		alertJSON, districtJSON, categoryJSON,
		nowS,
	)
	if err != nil {
		return false, fmt.Errorf("%w: conditional put: %v", ErrStoreUnavailable, err)
	}

	return tag.RowsAffected() == 1, nil
}

// QueryByArea implements Storage
func (p *PostgresStorage) QueryByArea(ctx context.Context, areaID, pageToken string, limit int) (Page, error) {
	after := decodeToken(pageToken, 2)
	return p.queryPage(ctx, QueryByAreaSQL(), limit, func(rec *models.ActiveAlertRecord) string {
		return encodeToken(rec.District.ID, rec.AlertCategory.CodeName)
	}, areaID, after[0], after[1])
}

// QueryByDistrict implements Storage
func (p *PostgresStorage) QueryByDistrict(ctx context.Context, districtID, pageToken string, limit int) (Page, error) {
	after := decodeToken(pageToken, 2)
	return p.queryPage(ctx, QueryByDistrictSQL(), limit, func(rec *models.ActiveAlertRecord) string {
		return encodeToken(rec.District.AreaID, rec.AlertCategory.CodeName)
	}, districtID, after[0], after[1])
}

// ScanAll implements Storage
func (p *PostgresStorage) ScanAll(ctx context.Context, pageToken string, limit int) (Page, error) {
	after := decodeToken(pageToken, 3)
	return p.queryPage(ctx, ScanAllSQL(), limit, func(rec *models.ActiveAlertRecord) string {
		return encodeToken(rec.District.AreaID, rec.District.ID, rec.AlertCategory.CodeName)
	}, after[0], after[1], after[2])
}

// queryPage runs one paginated read. It fetches limit+1 rows to decide
// whether a further page exists, and derives the resume token from the last
// returned record.
func (p *PostgresStorage) queryPage(ctx context.Context, sql string, limit int, token func(*models.ActiveAlertRecord) string, args ...any) (Page, error) {
	if limit <= 0 || limit > p.pageSize {
		limit = p.pageSize
	}
	args = append(args, limit+1)

	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return Page{}, fmt.Errorf("%w: query: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var page Page
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return Page{}, err
		}
		if len(page.Records) == limit {
			page.NextToken = token(&page.Records[limit-1])
			break
		}
		page.Records = append(page.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("%w: reading rows: %v", ErrStoreUnavailable, err)
	}

	return page, nil
}

func scanRecord(rows pgx.Rows) (models.ActiveAlertRecord, error) {
	var (
		rec                                   models.ActiveAlertRecord
		areaID, districtID, categoryCode      string
		alertJSON, districtJSON, categoryJSON []byte
	)

	err := rows.Scan(&areaID, &districtID, &categoryCode,
		&rec.CreatedAtS, &rec.ExpiresAtS, &rec.ReAlertAtS,
		&alertJSON, &districtJSON, &categoryJSON)
	if err != nil {
		return rec, fmt.Errorf("%w: scanning row: %v", ErrStoreUnavailable, err)
	}

	if err := json.Unmarshal(alertJSON, &rec.Alert); err != nil {
		return rec, fmt.Errorf("decoding alert for key (%s, %s, %s): %w", areaID, districtID, categoryCode, err)
	}
	if err := json.Unmarshal(districtJSON, &rec.District); err != nil {
		return rec, fmt.Errorf("decoding district for key (%s, %s, %s): %w", areaID, districtID, categoryCode, err)
	}
	if err := json.Unmarshal(categoryJSON, &rec.AlertCategory); err != nil {
		return rec, fmt.Errorf("decoding alert category for key (%s, %s, %s): %w", areaID, districtID, categoryCode, err)
	}

	return rec, nil
}

func encodeToken(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// decodeToken splits a resume token into n parts; an empty or malformed
// token yields zero values, which sort before every real key.
func decodeToken(token string, n int) []string {
	parts := strings.Split(token, keySeparator)
	if token == "" || len(parts) != n {
		return make([]string, n)
	}
	return parts
}
