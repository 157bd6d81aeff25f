package fitcal

import "fitcal/internal/model"

// Store provides durable, queryable storage for activities and body log
// entries, addressable by id and by inclusive date range. Date arguments are
// "YYYY-MM-DD" strings so range scans are lexicographic.
//
// All write methods are insert-or-replace by id: putting an existing id
// replaces the record and is not an error. Faults from the underlying
// storage engine surface as *StorageError.
type Store interface {
	// Activity operations

	// PutActivity inserts or replaces a single activity by id.
	PutActivity(a *model.Activity) error

	// PutActivities inserts or replaces a batch of activities in one
	// transaction. An empty batch is a no-op.
	PutActivities(as []*model.Activity) error

	// ActivitiesByDateRange returns activities with start <= date <= end.
	// Ordering is unspecified; callers re-sort if they need an order.
	ActivitiesByDateRange(start, end string) ([]*model.Activity, error)

	// AllActivities returns every stored activity.
	AllActivities() ([]*model.Activity, error)

	// DeleteActivity removes an activity by id. Deleting an absent id is a
	// no-op, not an error.
	DeleteActivity(id string) error

	// CountActivities returns the number of stored activities.
	CountActivities() (int64, error)

	// Body log operations

	PutBodyLog(e *model.BodyLogEntry) error
	BodyLogsByDateRange(start, end string) ([]*model.BodyLogEntry, error)
	AllBodyLogs() ([]*model.BodyLogEntry, error)
	DeleteBodyLog(id string) error
	CountBodyLogs() (int64, error)

	// ReplaceAll clears both collections and bulk-inserts the given records
	// within a single transaction. A failure partway leaves the store in its
	// prior state, never with only one collection cleared.
	ReplaceAll(activities []*model.Activity, logs []*model.BodyLogEntry) error

	// Close closes the store.
	Close() error
}
