package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignUnionCalendar(t *testing.T) {
	spy, err := LoadSeries("SPY", []Bar{
		bar(t, "2021-01-04", 10),
		bar(t, "2021-01-05", 11),
		bar(t, "2021-01-07", 12),
	})
	require.NoError(t, err)

	// VIX misses the 5th but trades the 6th.
	vix, err := LoadSeries("VIX", []Bar{
		bar(t, "2021-01-04", 20),
		bar(t, "2021-01-06", 22),
		bar(t, "2021-01-07", 21),
	})
	require.NoError(t, err)

	f, err := Align(spy, vix)
	require.NoError(t, err)

	require.Equal(t, 4, f.Len()) // union, not intersection
	assert.Equal(t, []string{"SPY", "VIX"}, f.Instruments())
	assert.Equal(t, "2021-01-04", f.Date(0).Format("2006-01-02"))
	assert.Equal(t, "2021-01-07", f.Date(3).Format("2006-01-02"))

	// 2021-01-05: SPY present, VIX absent.
	snap := f.Snapshot(1)
	b, ok := snap.Bar("SPY")
	require.True(t, ok)
	assert.Equal(t, 11.0, b.Close)
	_, ok = snap.Bar("VIX")
	assert.False(t, ok, "missing bar must be reported absent, not zero")

	// 2021-01-06: VIX only.
	snap = f.Snapshot(2)
	_, ok = snap.Bar("SPY")
	assert.False(t, ok)
	b, ok = snap.Bar("VIX")
	require.True(t, ok)
	assert.Equal(t, 22.0, b.Close)
}

func TestAlignRejectsDuplicateInstrument(t *testing.T) {
	spy, err := LoadSeries("SPY", []Bar{bar(t, "2021-01-04", 10)})
	require.NoError(t, err)
	_, err = Align(spy, spy)
	require.ErrorIs(t, err, ErrData)
}

func TestAlignRejectsEmpty(t *testing.T) {
	_, err := Align()
	require.ErrorIs(t, err, ErrData)
}
