package store

// SchemaSQL returns the DDL for the active-alert table. The primary key is
// the dedup key; the secondary index serves district-scoped queries.
func SchemaSQL() string {
	return `
CREATE TABLE IF NOT EXISTS active_alerts (
	area_id        TEXT   NOT NULL,
	district_id    TEXT   NOT NULL,
	category_code  TEXT   NOT NULL,
	created_at_s   BIGINT NOT NULL,
	expires_at_s   BIGINT NOT NULL,
	re_alert_at_s  BIGINT NOT NULL,
	alert          JSONB  NOT NULL,
	district       JSONB  NOT NULL,
	alert_category JSONB  NOT NULL,
	PRIMARY KEY (area_id, district_id, category_code)
);

CREATE INDEX IF NOT EXISTS active_alerts_district_idx
	ON active_alerts (district_id, category_code);
`
}

// ConditionalPutSQL returns the single-statement conditional replace. The
// ON CONFLICT ... WHERE clause makes the cooldown check and the write one
// atomic operation: the row is replaced only when its re-alert window has
// passed, and RowsAffected distinguishes applied from suppressed.
func ConditionalPutSQL() string {
	return `
INSERT INTO active_alerts (
	area_id, district_id, category_code,
	created_at_s, expires_at_s, re_alert_at_s,
	alert, district, alert_category
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (area_id, district_id, category_code) DO UPDATE SET
	created_at_s   = excluded.created_at_s,
	expires_at_s   = excluded.expires_at_s,
	re_alert_at_s  = excluded.re_alert_at_s,
	alert          = excluded.alert,
	district       = excluded.district,
	alert_category = excluded.alert_category
WHERE active_alerts.re_alert_at_s <= $10
`
}

const recordColumns = `area_id, district_id, category_code,
	created_at_s, expires_at_s, re_alert_at_s,
	alert, district, alert_category`

// QueryByAreaSQL returns the keyset-paginated partition read for one area.
func QueryByAreaSQL() string {
	return `
SELECT ` + recordColumns + `
FROM active_alerts
WHERE area_id = $1 AND (district_id, category_code) > ($2, $3)
ORDER BY district_id, category_code
LIMIT $4
`
}

// QueryByDistrictSQL returns the keyset-paginated secondary-key read for one
// district.
func QueryByDistrictSQL() string {
	return `
SELECT ` + recordColumns + `
FROM active_alerts
WHERE district_id = $1 AND (area_id, category_code) > ($2, $3)
ORDER BY area_id, category_code
LIMIT $4
`
}

// ScanAllSQL returns the keyset-paginated full scan.
func ScanAllSQL() string {
	return `
SELECT ` + recordColumns + `
FROM active_alerts
WHERE (area_id, district_id, category_code) > ($1, $2, $3)
ORDER BY area_id, district_id, category_code
LIMIT $4
`
}
