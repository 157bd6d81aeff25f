package fitcal

import (
	"strconv"
	"strings"

	"fitcal/internal/model"
)

// Fingerprint derives the duplicate-detection identity of an activity:
// date, type, duration and start time. Title, id and metrics are deliberately
// excluded because vendor re-exports may vary them for the same session.
func Fingerprint(a *model.Activity) string {
	return strings.Join([]string{
		a.Date,
		string(a.Type),
		strconv.FormatFloat(a.DurationMinutes, 'f', -1, 64),
		a.StartTime,
	}, "|")
}

// ImportResult reports how an import batch was partitioned.
type ImportResult struct {
	Added   int
	Skipped int
}

// ImportActivities admits only genuinely new activities from a batch of
// parsed candidates. Candidates whose fingerprint matches an already-stored
// activity in the batch's [min date, max date] window are skipped; the rest
// are bulk-inserted.
//
// Two candidates within the same batch that collide with each other (but not
// with storage) are both inserted — dedup is only against persisted state.
func (s *Service) ImportActivities(batch []*model.Activity) (*ImportResult, error) {
	if len(batch) == 0 {
		return &ImportResult{}, nil
	}

	minDate, maxDate := batch[0].Date, batch[0].Date
	for _, a := range batch[1:] {
		if a.Date < minDate {
			minDate = a.Date
		}
		if a.Date > maxDate {
			maxDate = a.Date
		}
	}

	// One range query bounds the dedup lookup; fetching the whole store
	// would not scale with years of history.
	existing, err := s.store.ActivitiesByDateRange(minDate, maxDate)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		seen[Fingerprint(a)] = struct{}{}
	}

	fresh := make([]*model.Activity, 0, len(batch))
	for _, a := range batch {
		if _, dup := seen[Fingerprint(a)]; dup {
			continue
		}
		fresh = append(fresh, a)
	}

	if len(fresh) > 0 {
		if err := s.store.PutActivities(fresh); err != nil {
			return nil, err
		}
	}

	result := &ImportResult{Added: len(fresh), Skipped: len(batch) - len(fresh)}
	s.logger.Info("import complete", "added", result.Added, "skipped", result.Skipped)
	return result, nil
}
