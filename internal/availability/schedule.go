package availability

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

// Weekdays lists the accepted availability keys, Sunday first like time.Weekday.
var Weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// FieldErrors maps an input path to a human readable problem.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "invalid availability: " + strings.Join(parts, "; ")
}

// Schedule is a compiled weekly availability keyed by weekday name.
type Schedule map[string][]Interval

// Compile converts stored availability into minute intervals. Malformed entries are skipped
// so that a single bad row cannot hide the rest of a professional's week.
func Compile(weekly models.WeeklyAvailability) Schedule {
	out := make(Schedule, len(weekly))
	for day, windows := range weekly {
		key := strings.ToLower(strings.TrimSpace(day))
		for _, w := range windows {
			start, err := ParseClock(w.Start)
			if err != nil {
				continue
			}
			end, err := ParseClock(w.End)
			if err != nil || end <= start {
				continue
			}
			out[key] = append(out[key], Interval{Start: start, End: end})
		}
	}
	return out
}

// Contains reports whether minute t on weekday falls inside any interval.
func (s Schedule) Contains(weekday string, t int) bool {
	for _, iv := range s[weekday] {
		if iv.Contains(t) {
			return true
		}
	}
	return false
}

// Covers reports whether the whole of want lies inside a single merged interval of weekday.
func (s Schedule) Covers(weekday string, want Interval) bool {
	for _, iv := range NormalizeIntervals(s[weekday]) {
		if iv.Start <= want.Start && want.End <= iv.End {
			return true
		}
	}
	return false
}

// NormalizeIntervals sorts intervals and merges overlapping or touching ones.
func NormalizeIntervals(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]Interval, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})
	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// NormalizeWeekly validates availability at the data-entry boundary and returns a canonical copy:
// keys lowercased, intervals sorted and merged, empty days dropped.
func NormalizeWeekly(weekly models.WeeklyAvailability) (models.WeeklyAvailability, error) {
	known := make(map[string]struct{}, len(Weekdays))
	for _, d := range Weekdays {
		known[d] = struct{}{}
	}

	problems := FieldErrors{}
	byDay := map[string][]Interval{}
	for day, windows := range weekly {
		key := strings.ToLower(strings.TrimSpace(day))
		if _, ok := known[key]; !ok {
			problems["availability."+day] = "unknown weekday"
			continue
		}
		for i, w := range windows {
			path := fmt.Sprintf("availability.%s[%d]", key, i)
			start, err := ParseClock(w.Start)
			if err != nil {
				problems[path+".start"] = err.Error()
				continue
			}
			end, err := ParseClock(w.End)
			if err != nil {
				problems[path+".end"] = err.Error()
				continue
			}
			if start >= end {
				problems[path] = "start must be before end"
				continue
			}
			byDay[key] = append(byDay[key], Interval{Start: start, End: end})
		}
	}
	if len(problems) > 0 {
		return nil, problems
	}

	out := models.WeeklyAvailability{}
	for day, intervals := range byDay {
		merged := NormalizeIntervals(intervals)
		windows := make([]models.TimeInterval, len(merged))
		for i, iv := range merged {
			windows[i] = models.TimeInterval{Start: FormatClock(iv.Start), End: FormatClock(iv.End)}
		}
		out[day] = windows
	}
	return out, nil
}
