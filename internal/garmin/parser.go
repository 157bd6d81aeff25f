// Package garmin converts raw vendor CSV exports into activity candidates.
// The parser is best-effort by design: the failure unit is the row, not the
// file. Malformed rows are skipped and counted; only input that is not
// delimited text at all aborts the parse.
package garmin

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"fitcal/internal/fitcal"
	"fitcal/internal/model"
)

// FatalError reports input that is not well-formed delimited text at all.
// Row-level problems never produce a FatalError.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("import file unreadable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("import file unreadable: %s", e.Reason)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Result is the outcome of parsing one export file. Every data row lands in
// exactly one of Activities or Skipped; Warnings carry per-row diagnostics
// and never affect the counts.
type Result struct {
	Activities []*model.Activity
	Skipped    int
	Warnings   []string
}

// Column synonym lists per logical field, tried in priority order. Vendor
// export versions disagree on header names; first match wins.
var (
	typeColumns     = []string{"Activity Type", "Type"}
	dateColumns     = []string{"Date", "Start Time", "Begin Timestamp"}
	titleColumns    = []string{"Title", "Activity Name", "Name"}
	durationColumns = []string{"Time", "Duration", "Elapsed Time", "Moving Time"}
	distanceColumns = []string{"Distance"}
	caloriesColumns = []string{"Calories"}
	avgHRColumns    = []string{"Avg HR", "Average Heart Rate (bpm)"}
	maxHRColumns    = []string{"Max HR", "Max Heart Rate (bpm)"}
)

// Date layouts accepted across export versions. Layouts carrying a clock
// time also yield the activity's start time.
var (
	dateTimeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05"}
	dateOnlyLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006"}
)

// Parser converts raw delimited text into normalized activity candidates.
type Parser struct {
	idgen fitcal.IDGenerator
}

// NewParser creates a Parser that assigns each accepted row a fresh id from
// the generator.
func NewParser(idgen fitcal.IDGenerator) *Parser {
	return &Parser{idgen: idgen}
}

// Parse reads a vendor CSV export (header row + data rows) and returns the
// normalized candidates. A file with zero parseable rows is still a success,
// with every row counted in Skipped.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &FatalError{Reason: "reading input", Err: err}
	}
	if !utf8.Valid(data) {
		return nil, &FatalError{Reason: "input is not valid UTF-8"}
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Result{}, nil // empty file: nothing to import
		}
		return nil, &FatalError{Reason: "reading header row", Err: err}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	result := &Result{}
	rowNum := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Skipped++
				result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v", rowNum, parseErr.Err))
				continue
			}
			return nil, &FatalError{Reason: fmt.Sprintf("reading row %d", rowNum), Err: err}
		}

		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
			}
		}

		a, reason := p.resolveRow(row)
		if a == nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %s", rowNum, reason))
			continue
		}
		result.Activities = append(result.Activities, a)
	}

	return result, nil
}

// resolveRow converts one raw row into an activity candidate, or returns a
// skip reason.
func (p *Parser) resolveRow(row map[string]string) (*model.Activity, string) {
	rawType := lookup(row, typeColumns)
	rawDate := lookup(row, dateColumns)

	date, startTime, ok := parseDate(rawDate)
	if !ok {
		return nil, fmt.Sprintf("unparseable date %q", rawDate)
	}

	duration := parseDuration(lookup(row, durationColumns))
	if duration <= 0 {
		return nil, fmt.Sprintf("non-positive duration %q", lookup(row, durationColumns))
	}

	title := lookup(row, titleColumns)
	if title == "" {
		title = strings.TrimSpace(rawType)
	}
	if title == "" {
		title = "Untitled Activity"
	}

	return &model.Activity{
		ID:              p.idgen.New(),
		Type:            model.ResolveActivityType(rawType),
		Title:           title,
		Date:            date,
		StartTime:       startTime,
		DurationMinutes: duration,
		DistanceKm:      parseNumber(lookup(row, distanceColumns)),
		Calories:        parseNumber(lookup(row, caloriesColumns)),
		AvgHeartRate:    parseNumber(lookup(row, avgHRColumns)),
		MaxHeartRate:    parseNumber(lookup(row, maxHRColumns)),
		Source:          model.SourceImported,
		RawImportFields: row,
	}, ""
}

// lookup returns the value of the first candidate column present in the row.
// Presence wins over content: an empty cell in a higher-priority column is
// returned as-is rather than falling through to a lower-priority column, so
// each logical field is read from exactly one export column per file.
func lookup(row map[string]string, columns []string) string {
	for _, c := range columns {
		if v, ok := row[c]; ok {
			return v
		}
	}
	return ""
}

// parseDate resolves a raw date value to the canonical "YYYY-MM-DD" key.
// When the value embeds a clock time it is returned separately as the start
// time.
func parseDate(raw string) (date, startTime string, ok bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02"), t.Format("15:04:05"), true
		}
	}
	for _, layout := range dateOnlyLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02"), "", true
		}
	}
	return "", "", false
}

// parseDuration normalizes "HH:MM:SS", "MM:SS" or a bare number of minutes
// to minutes, rounded to two decimal places. Unparseable input yields 0,
// which callers treat as a skip.
func parseDuration(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}

	parts := strings.Split(trimmed, ":")
	switch len(parts) {
	case 3:
		h, err1 := strconv.ParseFloat(parts[0], 64)
		m, err2 := strconv.ParseFloat(parts[1], 64)
		s, err3 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return 0
		}
		return round2(h*60 + m + s/60)
	case 2:
		m, err1 := strconv.ParseFloat(parts[0], 64)
		s, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return 0
		}
		return round2(m + s/60)
	}

	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}
	return round2(n)
}

// parseNumber parses an optional numeric metric, tolerating thousands
// separators. Absent or unparseable values stay absent, never zero.
func parseNumber(raw string) *float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &n
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
