package backtest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func drain(t *testing.T, f BarFeed) []Bar {
	t.Helper()
	var out []Bar
	for {
		b, ok, err := f.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, b)
	}
}

func TestCSVBarFeedReadsRows(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "bars.csv", `time,instrument,open,high,low,close
2026-03-02T09:00:00Z,EUR_USD,1.0990,1.1010,1.0985,1.1000
2026-03-02 10:00:00,EUR_USD,1.1000,1.1060,1.0995,1.1050
`)

	f, err := NewCSVBarFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer f.Close()

	bars := drain(t, f)
	require.Len(t, bars, 2)

	assert.Equal(t, "EUR_USD", bars[0].Instrument)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), bars[0].Time)
	assert.InDelta(t, 1.1000, bars[0].Close, 1e-9)

	// the space-separated form is read as UTC
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), bars[1].Time)
	assert.InDelta(t, 1.1060, bars[1].High, 1e-9)
}

func TestCSVBarFeedNoHeader(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "bars.csv",
		"2026-03-02T09:00:00Z,EUR_USD,1.0990,1.1010,1.0985,1.1000\n")

	f, err := NewCSVBarFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer f.Close()

	assert.Len(t, drain(t, f), 1)
}

func TestCSVBarFeedRange(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "bars.csv", `time,instrument,open,high,low,close
2026-03-02T09:00:00Z,EUR_USD,1.1,1.1,1.1,1.1
2026-03-02T10:00:00Z,EUR_USD,1.1,1.1,1.1,1.1
2026-03-02T11:00:00Z,EUR_USD,1.1,1.1,1.1,1.1
2026-03-02T12:00:00Z,EUR_USD,1.1,1.1,1.1,1.1
`)

	from := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	f, err := NewCSVBarFeed(path, from, to)
	require.NoError(t, err)
	defer f.Close()

	bars := drain(t, f)
	// [from, to): 10:00 and 11:00 pass, 09:00 and 12:00 do not
	require.Len(t, bars, 2)
	assert.Equal(t, from, bars[0].Time)
	assert.Equal(t, from.Add(time.Hour), bars[1].Time)
}

func TestCSVBarFeedSkipsJunkRows(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "bars.csv", `time,instrument,open,high,low,close
2026-03-02T09:00:00Z,EUR_USD,1.0990,1.1010,1.0985,1.1000

2026-03-02T10:00:00Z,EUR_USD,1.1
,EUR_USD,1.1,1.1,1.1,1.1
2026-03-02T11:00:00Z,,1.1,1.1,1.1,1.1
2026-03-02T12:00:00Z,EUR_USD,1.1000,1.1060,1.0995,1.1050
`)

	f, err := NewCSVBarFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer f.Close()

	bars := drain(t, f)
	require.Len(t, bars, 2)
	assert.InDelta(t, 1.1000, bars[0].Close, 1e-9)
	assert.InDelta(t, 1.1050, bars[1].Close, 1e-9)
}

func TestCSVBarFeedBadValue(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "bars.csv",
		"2026-03-02T09:00:00Z,EUR_USD,oops,1.1010,1.0985,1.1000\n")

	f, err := NewCSVBarFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer f.Close()

	_, _, err = f.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad open")
}

func TestCSVBarFeedBadTime(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "bars.csv",
		"yesterday,EUR_USD,1.0990,1.1010,1.0985,1.1000\n")

	f, err := NewCSVBarFeed(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer f.Close()

	_, _, err = f.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad time")
}

func TestCSVBarFeedMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewCSVBarFeed(filepath.Join(t.TempDir(), "nope.csv"), time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestSliceFeed(t *testing.T) {
	t.Parallel()

	in := []Bar{
		{Time: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), Instrument: "EUR_USD", Close: 1.10},
		{Time: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), Instrument: "EUR_USD", Close: 1.11},
	}

	f := NewSliceFeed(in)
	out := drain(t, f)
	assert.Equal(t, in, out)

	// once drained it stays drained
	_, ok, err := f.Next()
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.NoError(t, f.Close())
}
