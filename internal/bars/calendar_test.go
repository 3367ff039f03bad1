package bars

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2020, time.January, d, 0, 0, 0, 0, time.UTC)
}

func rawBar(symbol string, ts time.Time, close float64) Bar {
	return Bar{Symbol: symbol, Timestamp: ts, Open: close, High: close, Low: close, Close: close, Volume: 1}
}

func TestBuildCalendarUnion(t *testing.T) {
	raw := map[string][]Bar{
		"ABC": {rawBar("ABC", day(2), 1), rawBar("ABC", day(4), 2)},
		"XYZ": {rawBar("XYZ", day(2), 3), rawBar("XYZ", day(3), 4)},
	}
	calendar := buildCalendar(raw)
	want := []time.Time{day(2), day(3), day(4)}
	if len(calendar) != len(want) {
		t.Fatalf("calendar length: got %d want %d", len(calendar), len(want))
	}
	for i := range want {
		if !calendar[i].Equal(want[i]) {
			t.Fatalf("calendar[%d]: got %s want %s", i, calendar[i], want[i])
		}
	}
}

func TestReindexForwardFill(t *testing.T) {
	calendar := []time.Time{day(2), day(3), day(4)}

	// {01/02, 01/04}: the 01/03 gap inherits the 01/02 row, never the later one.
	first := reindex([]Bar{rawBar("ABC", day(2), 10), rawBar("ABC", day(4), 20)}, calendar)
	if first.offset != 0 {
		t.Fatalf("offset: got %d want 0", first.offset)
	}
	if got := first.bars[1].Close; got != 10 {
		t.Fatalf("gap value: got %v want forward-filled 10", got)
	}
	if !first.bars[1].Timestamp.Equal(day(3)) {
		t.Fatalf("gap timestamp: got %s want %s", first.bars[1].Timestamp, day(3))
	}
	if got := first.bars[2].Close; got != 20 {
		t.Fatalf("raw value: got %v want 20", got)
	}

	// {01/02, 01/03}: the trailing 01/04 slot carries the 01/03 value forward.
	second := reindex([]Bar{rawBar("XYZ", day(2), 30), rawBar("XYZ", day(3), 40)}, calendar)
	if got := second.bars[2].Close; got != 40 {
		t.Fatalf("trailing fill: got %v want 40", got)
	}
}

func TestReindexLeadingGapSkipped(t *testing.T) {
	calendar := []time.Time{day(2), day(3), day(4)}
	late := reindex([]Bar{rawBar("XYZ", day(3), 7)}, calendar)
	if late.offset != 1 {
		t.Fatalf("offset: got %d want 1", late.offset)
	}
	if len(late.bars) != 2 {
		t.Fatalf("series length: got %d want 2 (no fabricated leading rows)", len(late.bars))
	}
	if !late.bars[0].Timestamp.Equal(day(3)) {
		t.Fatalf("first aligned row: got %s want %s", late.bars[0].Timestamp, day(3))
	}
}

func TestBookAdvanceMonotonic(t *testing.T) {
	raw := map[string][]Bar{
		"ABC": {rawBar("ABC", day(2), 1), rawBar("ABC", day(3), 2)},
		"XYZ": {rawBar("XYZ", day(3), 3)},
	}
	b := newBook([]string{"ABC", "XYZ"}, raw, time.Time{})

	if b.advanceTick() != Advanced {
		t.Fatal("first tick should advance")
	}
	if got := b.delivered("XYZ"); got != 0 {
		t.Fatalf("XYZ inside leading gap should stay empty, got %d bars", got)
	}
	if b.advanceTick() != Advanced {
		t.Fatal("second tick should advance")
	}
	if got := b.delivered("ABC"); got != 2 {
		t.Fatalf("ABC delivered: got %d want 2", got)
	}
	if got := b.delivered("XYZ"); got != 1 {
		t.Fatalf("XYZ delivered: got %d want 1", got)
	}
	if b.advanceTick() != Exhausted {
		t.Fatal("calendar consumed, expected Exhausted")
	}
	// Terminal: further ticks change nothing.
	if b.advanceTick() != Exhausted {
		t.Fatal("Exhausted must be terminal")
	}
	if got := b.delivered("ABC"); got != 2 {
		t.Fatalf("delivered count moved after exhaustion: %d", got)
	}
}

func TestBookSeekStart(t *testing.T) {
	raw := map[string][]Bar{
		"ABC": {rawBar("ABC", day(2), 10), rawBar("ABC", day(3), 20), rawBar("ABC", day(6), 30)},
	}
	b := newBook([]string{"ABC"}, raw, day(4))
	if len(b.calendar) != 1 {
		t.Fatalf("calendar after seek: got %d entries want 1", len(b.calendar))
	}
	if b.advanceTick() != Advanced {
		t.Fatal("seeked book should still advance")
	}
	tail, _ := b.tail("ABC", 1)
	// First retained row is 01/06; fill already ran against the full calendar.
	if got := tail[0].Close; got != 30 {
		t.Fatalf("first bar after seek: got close %v want 30", got)
	}
}

func TestBookSeekStartEmptySeries(t *testing.T) {
	raw := map[string][]Bar{
		"ABC":  {rawBar("ABC", day(2), 10), rawBar("ABC", day(4), 20)},
		"NONE": {},
	}
	b := newBook([]string{"ABC", "NONE"}, raw, day(3))
	if len(b.calendar) != 1 {
		t.Fatalf("calendar after seek: got %d entries want 1", len(b.calendar))
	}
	if b.advanceTick() != Advanced {
		t.Fatal("seeked book should still advance")
	}
	tail, _ := b.tail("ABC", 1)
	if got := tail[0].Close; got != 20 {
		t.Fatalf("ABC bar after seek: got close %v want 20", got)
	}
	if got := b.delivered("NONE"); got != 0 {
		t.Fatalf("empty symbol delivered %d bars, want 0", got)
	}
	if b.advanceTick() != Exhausted {
		t.Fatal("calendar consumed, expected Exhausted")
	}

	// A start past the whole calendar leaves nothing to replay.
	late := newBook([]string{"ABC", "NONE"}, raw, day(10))
	if late.advanceTick() != Exhausted {
		t.Fatal("start past the calendar should exhaust immediately")
	}
}

func TestTailIsPureRead(t *testing.T) {
	raw := map[string][]Bar{
		"ABC": {rawBar("ABC", day(2), 1), rawBar("ABC", day(3), 2)},
	}
	b := newBook([]string{"ABC"}, raw, time.Time{})
	b.advanceTick()

	before := b.tick
	if out, ok := b.tail("ABC", 5); !ok || len(out) != 1 {
		t.Fatalf("tail(5) on 1 delivered bar: got %d bars ok=%v", len(out), ok)
	}
	if out, ok := b.tail("ABC", 0); !ok || len(out) != 0 {
		t.Fatalf("tail(0): got %d bars ok=%v, want empty", len(out), ok)
	}
	if b.tick != before {
		t.Fatal("tail mutated the cursor")
	}
}
