// Package market holds the bar-level data model: OHLCV bars, validated
// per-instrument series, and the time-aligned multi-instrument frame that
// drives a replay.
package market

import "time"

// Bar is one period's OHLCV quote for an instrument. Bars are immutable
// once loaded into a BarSeries; prices are in account currency.
type Bar struct {
	Instrument string
	Date       time.Time // UTC, truncated to the bar interval (midnight for daily)
	Open       float64
	High       float64
	Low        float64
	Close      float64
	AdjClose   float64
	Volume     float64
}

// DateKey returns the bar's date as an ISO string, the form used for
// calendar lookups and journal rows.
func (b Bar) DateKey() string {
	return b.Date.UTC().Format("2006-01-02")
}
