package market

import (
	"fmt"
	"sort"
	"time"
)

// Frame is a time-aligned view over several BarSeries joined on the union
// of their calendars. Instruments need not share trading days: a snapshot
// reports a missing bar explicitly rather than a zero-valued one.
type Frame struct {
	instruments []string
	dates       []time.Time
	// rows[i][j] is instrument j's bar on date i, or nil when that
	// instrument did not trade that day.
	rows [][]*Bar
}

// Align joins the series on the union calendar, preserving chronological
// order. Duplicate instruments are an error.
func Align(series ...*BarSeries) (*Frame, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: align: no series", ErrData)
	}

	byInstr := make(map[string]*BarSeries, len(series))
	instruments := make([]string, 0, len(series))
	for _, s := range series {
		if _, dup := byInstr[s.Instrument()]; dup {
			return nil, fmt.Errorf("%w: align: duplicate instrument %q", ErrData, s.Instrument())
		}
		byInstr[s.Instrument()] = s
		instruments = append(instruments, s.Instrument())
	}

	// Union calendar.
	seen := make(map[string]time.Time)
	for _, s := range series {
		for i := 0; i < s.Len(); i++ {
			b := s.At(i)
			seen[b.DateKey()] = b.Date
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	dateIdx := make(map[string]int, len(dates))
	for i, d := range dates {
		dateIdx[d.UTC().Format("2006-01-02")] = i
	}

	rows := make([][]*Bar, len(dates))
	for i := range rows {
		rows[i] = make([]*Bar, len(instruments))
	}
	for j, instr := range instruments {
		s := byInstr[instr]
		for i := 0; i < s.Len(); i++ {
			b := s.At(i)
			row := dateIdx[b.DateKey()]
			bar := b
			rows[row][j] = &bar
		}
	}

	return &Frame{instruments: instruments, dates: dates, rows: rows}, nil
}

func (f *Frame) Len() int { return len(f.dates) }

func (f *Frame) Date(i int) time.Time { return f.dates[i] }

// Instruments returns the subscribed instruments in alignment order.
func (f *Frame) Instruments() []string {
	out := make([]string, len(f.instruments))
	copy(out, f.instruments)
	return out
}

// Snapshot is the "current bars" view for one replay index. An absent
// instrument means no bar traded that day; strategies must treat that as
// "no signal available", never as a zero price.
type Snapshot struct {
	Index int
	Date  time.Time
	bars  map[string]*Bar
}

// Snapshot builds the view for index i.
func (f *Frame) Snapshot(i int) Snapshot {
	bars := make(map[string]*Bar, len(f.instruments))
	for j, instr := range f.instruments {
		if b := f.rows[i][j]; b != nil {
			bars[instr] = b
		}
	}
	return Snapshot{Index: i, Date: f.dates[i], bars: bars}
}

// Bar returns the instrument's bar for this snapshot, reporting absence
// explicitly.
func (s Snapshot) Bar(instrument string) (Bar, bool) {
	b, ok := s.bars[instrument]
	if !ok {
		return Bar{}, false
	}
	return *b, true
}
