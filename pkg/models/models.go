package models

// District identifies the smallest addressable area an alert can target.
// Districts are immutable reference data refreshed from the public catalog;
// the gateway never creates them.
type District struct {
	ID          string `json:"district_id"`
	AreaID      string `json:"area_id"`
	AreaName    string `json:"area_name"`
	EnglishName string `json:"english_name"`
	HebrewName  string `json:"hebrew_name"`
	Code        string `json:"code"`
	MigunTimeS  int    `json:"migun_time_s"` // seconds to reach shelter after an alert
}

// AlertCategory identifies an alert type. DurationMinutes determines how long
// an alert of this category stays active once recorded.
type AlertCategory struct {
	ID              int    `json:"category_id"`
	CodeName        string `json:"code_name"`
	DurationMinutes int    `json:"duration_minutes"`
	Label           string `json:"label"`
	Description     string `json:"description"`
}

// Alert is one incoming alert event as reported by the source. Locations are
// raw location names, not yet resolved to districts. Alerts are transient and
// are never persisted directly.
type Alert struct {
	ID          string   `json:"alert_id"`
	CategoryID  string   `json:"alert_category_id"`
	Title       string   `json:"title"`
	Locations   []string `json:"locations"`
	Description string   `json:"description"`
}

// ActiveAlertRecord is the persisted unit of state: one currently-active
// alert for a (area, district, category) key. The field names are the wire
// contract shared with the query API and the fan-out notifier.
type ActiveAlertRecord struct {
	Alert         Alert         `json:"alert"`
	District      District      `json:"district"`
	AlertCategory AlertCategory `json:"alert_category"`
	CreatedAtS    int64         `json:"created_at_s"`
	ExpiresAtS    int64         `json:"expires_at_s"`
	ReAlertAtS    int64         `json:"re_alert_at_s"`
}

// Live reports whether the record is still active at the given epoch second.
// Liveness is evaluated at read time; expired records may physically persist
// until overwritten.
func (r *ActiveAlertRecord) Live(nowS int64) bool {
	return r.ExpiresAtS > nowS
}

// Notification is the flat fan-out message published to the distribution
// stream for every newly applied alert record. ID is assigned by the notifier
// so consumers can dedup redelivered messages.
type Notification struct {
	ID          string `json:"id"`
	CreatedAtS  int64  `json:"createdAtS"`
	Area        string `json:"area"`
	District    string `json:"district"`
	AreaID      string `json:"areaId"`
	DistrictID  string `json:"districtId"`
	Alert       string `json:"alert"`
	Description string `json:"description"`
	AlertID     string `json:"alertId"`
}
