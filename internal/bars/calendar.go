package bars

import (
	"sort"
	"time"
)

// series is one symbol's bars reindexed onto the shared calendar. offset is
// the calendar index of the symbol's first raw observation; the symbol has no
// value before it (leading gaps are skipped, never fabricated).
type series struct {
	bars   []Bar
	offset int
}

// buildCalendar returns the sorted union of every symbol's raw timestamps.
func buildCalendar(raw map[string][]Bar) []time.Time {
	seen := make(map[int64]struct{})
	var calendar []time.Time
	for _, rows := range raw {
		for _, b := range rows {
			key := b.Timestamp.UnixNano()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			calendar = append(calendar, b.Timestamp)
		}
	}
	sort.Slice(calendar, func(i, j int) bool { return calendar[i].Before(calendar[j]) })
	return calendar
}

// reindex forward-fills one symbol's raw rows onto the calendar. A calendar
// timestamp with no raw observation inherits the most recent prior row, with
// its Timestamp rewritten to the calendar timestamp.
func reindex(raw []Bar, calendar []time.Time) series {
	if len(raw) == 0 || len(calendar) == 0 {
		return series{}
	}
	sort.Slice(raw, func(i, j int) bool { return raw[i].Timestamp.Before(raw[j].Timestamp) })

	offset := sort.Search(len(calendar), func(i int) bool {
		return !calendar[i].Before(raw[0].Timestamp)
	})

	out := make([]Bar, 0, len(calendar)-offset)
	next := 0
	var last Bar
	for _, ts := range calendar[offset:] {
		for next < len(raw) && !raw[next].Timestamp.After(ts) {
			last = raw[next]
			next++
		}
		filled := last
		filled.Timestamp = ts
		out = append(out, filled)
	}
	return series{bars: out, offset: offset}
}
