package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultLimit = 3

// Engine computes free appointment slots from recurring availability rules
// and existing bookings.
type Engine struct {
	repo   Repository
	logger *zap.Logger
}

func NewEngine(repo Repository, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{repo: repo, logger: logger}
}

// NextSlots walks calendar days from `from` through `from + daysAhead`
// (inclusive) and returns up to `limit` free windows for the provider,
// sized by the appointment type's duration.
//
// Within one day, slots from all of that day's rules are merged and sorted
// by start time before the limit is applied, so the result is globally
// time-ordered. Generation stops as soon as the limit is reached.
func (e *Engine) NextSlots(ctx context.Context, clinicID, providerID, typeID uuid.UUID, from time.Time, daysAhead, limit int) ([]Slot, error) {
	apptType, err := e.repo.GetAppointmentType(ctx, clinicID, typeID)
	if err != nil {
		return nil, fmt.Errorf("load appointment type: %w", err)
	}

	duration := time.Duration(apptType.DurationMinutes) * time.Minute
	if limit <= 0 {
		limit = defaultLimit
	}
	if daysAhead < 0 {
		daysAhead = 0
	}

	loc := from.Location()
	var results []Slot

	for d := 0; d <= daysAhead; d++ {
		day := from.AddDate(0, 0, d)
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		dayEnd := dayStart.AddDate(0, 0, 1)

		rules, err := e.repo.ListRulesForDay(ctx, providerID, mondayIndexed(dayStart.Weekday()))
		if err != nil {
			return nil, fmt.Errorf("load availability rules: %w", err)
		}
		if len(rules) == 0 {
			continue
		}

		busy, err := e.repo.ListBusyIntervals(ctx, providerID, dayStart, dayEnd)
		if err != nil {
			return nil, fmt.Errorf("load busy intervals: %w", err)
		}

		daySlots := e.walkRules(rules, dayStart, from, duration, busy)

		sort.Slice(daySlots, func(i, j int) bool {
			return daySlots[i].Start.Before(daySlots[j].Start)
		})

		for _, s := range daySlots {
			// Overlapping rules can generate the same window twice.
			if n := len(results); n > 0 && results[n-1].Start.Equal(s.Start) && results[n-1].End.Equal(s.End) {
				continue
			}
			results = append(results, s)
			if len(results) >= limit {
				return results, nil
			}
		}
	}

	return results, nil
}

// walkRules advances a cursor through each rule's window in slot-granularity
// steps, keeping candidates that start at or after `from`, fit before the
// rule's end, and do not intersect a busy interval.
func (e *Engine) walkRules(rules []AvailabilityRule, dayStart, from time.Time, duration time.Duration, busy []Interval) []Slot {
	var slots []Slot

	for _, rule := range rules {
		startOfs, err := parseHHMM(rule.StartHHMM)
		if err != nil {
			e.logger.Warn("skipping availability rule with bad start time",
				zap.String("rule_id", rule.ID.String()), zap.Error(err))
			continue
		}
		endOfs, err := parseHHMM(rule.EndHHMM)
		if err != nil {
			e.logger.Warn("skipping availability rule with bad end time",
				zap.String("rule_id", rule.ID.String()), zap.Error(err))
			continue
		}
		if rule.SlotMinutes <= 0 || endOfs <= startOfs {
			e.logger.Warn("skipping malformed availability rule",
				zap.String("rule_id", rule.ID.String()))
			continue
		}

		cursor := dayStart.Add(startOfs)
		ruleEnd := dayStart.Add(endOfs)
		step := time.Duration(rule.SlotMinutes) * time.Minute

		for !cursor.Add(duration).After(ruleEnd) {
			if cursor.Before(from) {
				cursor = cursor.Add(step)
				continue
			}

			slotEnd := cursor.Add(duration)
			if !overlapsAny(cursor, slotEnd, busy) {
				slots = append(slots, Slot{Start: cursor, End: slotEnd})
			}

			cursor = cursor.Add(step)
		}
	}

	return slots
}

// overlapsAny is the half-open interval test: [start, end) intersects
// [b.Start, b.End) iff start < b.End && end > b.Start.
func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if start.Before(b.End) && end.After(b.Start) {
			return true
		}
	}
	return false
}

// mondayIndexed converts Go's Sunday-first weekday to the Monday-first
// numbering used by availability rules.
func mondayIndexed(w time.Weekday) int {
	return (int(w) + 6) % 7
}

func parseHHMM(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse hh:mm %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
