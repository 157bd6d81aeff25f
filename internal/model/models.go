package model

import "time"

// ActivityType is the closed set of exercise kinds the calendar tracks.
type ActivityType string

const (
	TypeBasketball        ActivityType = "basketball"
	TypeYoga              ActivityType = "yoga"
	TypeOpenWaterSwimming ActivityType = "open_water_swimming"
	TypeWeightlifting     ActivityType = "weightlifting"
	TypeRunning           ActivityType = "running"
	TypeCycling           ActivityType = "cycling"
	TypeOther             ActivityType = "other"
)

// Source records where an activity came from.
type Source string

const (
	SourceManual   Source = "manual"
	SourceImported Source = "imported"
)

// Activity represents one exercise session.
// Date is the primary range-query key and is always "YYYY-MM-DD", so date
// comparisons are plain lexicographic string comparisons.
type Activity struct {
	ID              string            `json:"id"`
	Type            ActivityType      `json:"type"`
	Title           string            `json:"title"`
	Date            string            `json:"date"`
	StartTime       string            `json:"startTime,omitempty"` // "HH:MM:SS"; empty means unscheduled
	DurationMinutes float64           `json:"durationMinutes"`
	DistanceKm      *float64          `json:"distanceKm,omitempty"`
	Calories        *float64          `json:"calories,omitempty"`
	AvgHeartRate    *float64          `json:"avgHeartRate,omitempty"`
	MaxHeartRate    *float64          `json:"maxHeartRate,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Source          Source            `json:"source"`
	RawImportFields map[string]string `json:"rawImportFields,omitempty"` // original vendor row, opaque
}

// PainCategory is the closed set of body areas tracked in the pain log.
type PainCategory string

const (
	PainBack PainCategory = "back"
	PainKnee PainCategory = "knee"
)

// BodyLogEntry represents one pain observation.
// Date is the observed date ("YYYY-MM-DD"); CreatedAt is when the entry was
// recorded and is immutable.
type BodyLogEntry struct {
	ID        string       `json:"id"`
	Date      string       `json:"date"`
	Category  PainCategory `json:"category"`
	Severity  int          `json:"severity"` // 1 (mild) to 5 (severe)
	Notes     string       `json:"notes,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// BackupVersion is the current backup document format version.
const BackupVersion = 1

// BackupDocument is a versioned whole-store snapshot. It is used only for
// full transfer; there is no partial backup format.
type BackupDocument struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exportedAt"`
	Activities []Activity     `json:"activities"`
	BodyLogs   []BodyLogEntry `json:"bodyLogs"`
}
