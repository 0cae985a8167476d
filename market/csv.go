package market

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// ReadCSV loads Yahoo-format daily bars for one instrument:
//
//	Date,Open,High,Low,Close,Adj Close,Volume
//
// Files ending in .gz, .xz or .lzma are decompressed transparently, so
// archived datasets can be replayed without unpacking first. The returned
// series has been validated by LoadSeries.
func ReadCSV(path, instrument string) (*BarSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open bars: %w", err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open bars: %w", err)
		}
		r = xr
	case strings.HasSuffix(path, ".lzma"):
		lr, err := lzma.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open bars: %w", err)
		}
		r = lr
	}

	bars, err := ParseCSV(r, instrument)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return LoadSeries(instrument, bars)
}

// ParseCSV reads Yahoo-format rows. A header row is skipped when present.
func ParseCSV(r io.Reader, instrument string) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	var bars []Bar
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %v", ErrData, err)
		}
		line++

		if len(rec) < 7 {
			return nil, fmt.Errorf("%w: csv line %d: want 7 fields, got %d", ErrData, line, len(rec))
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			continue
		}

		date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(rec[0]), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: bad date %q", ErrData, line, rec[0])
		}

		vals := make([]float64, 6)
		for i := 0; i < 6; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: csv line %d: bad number %q", ErrData, line, rec[i+1])
			}
			vals[i] = v
		}

		bars = append(bars, Bar{
			Instrument: instrument,
			Date:       date,
			Open:       vals[0],
			High:       vals[1],
			Low:        vals[2],
			Close:      vals[3],
			AdjClose:   vals[4],
			Volume:     vals[5],
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: csv: no data rows", ErrData)
	}
	return bars, nil
}
