package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeColumn(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"14:00:00", 840, false},
		{"09:30", 570, false},
		{"10:00:xx", 0, true},
		{"10:00:5", 0, true},
		{"10:00:30", 600, false},
		{"10:00:60", 0, true},
		{"10:00:00:00", 0, true},
		{"25:00:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeColumn(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"09:00", 540, false},
		{"17:30", 1050, false},
		{"14:00:00", 0, true},
		{"10:00:xx", 0, true},
		{"10:0a", 0, true},
		{"-1:00", 0, true},
		{"+9:00", 0, true},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:00", 0, true},
		{"09:60", 0, true},
		{"0900", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockFormatsZeroPadded(t *testing.T) {
	assert.Equal(t, "09:05", Clock(545).String())
	assert.Equal(t, "00:00", Clock(0).String())

	data, err := json.Marshal(Clock(1020))
	require.NoError(t, err)
	assert.JSONEq(t, `"17:00"`, string(data))
}

func TestWeekdayOf(t *testing.T) {
	// 2025-01-06 是星期一
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Monday, WeekdayOf(monday))
	assert.Equal(t, Sunday, WeekdayOf(monday.AddDate(0, 0, 6)))
	assert.Equal(t, Saturday, WeekdayOf(monday.AddDate(0, 0, 5)))
}

func TestParseWorkingHours(t *testing.T) {
	raw := []byte(`{
		"monday": {"start": "09:00", "end": "17:00", "isWorking": true},
		"sunday": {"start": "00:00", "end": "00:00", "isWorking": false},
		"saturday": {"isWorking": false}
	}`)

	wh, err := ParseWorkingHours(raw)
	require.NoError(t, err)

	monday, ok := wh.Day(Monday)
	require.True(t, ok)
	assert.Equal(t, WorkingDay{Start: 540, End: 1020, IsWorking: true}, monday)

	sunday, ok := wh.Day(Sunday)
	require.True(t, ok)
	assert.False(t, sunday.IsWorking)

	_, ok = wh.Day(Tuesday)
	assert.False(t, ok)
}

func TestParseWorkingHoursEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		wh, err := ParseWorkingHours([]byte(raw))
		require.NoError(t, err)
		assert.Nil(t, wh)
	}
}

func TestParseWorkingHoursInvalid(t *testing.T) {
	tests := map[string]string{
		"legacy range string": `"09:00-18:00"`,
		"unknown weekday":     `{"funday": {"start": "09:00", "end": "17:00", "isWorking": true}}`,
		"missing end":         `{"monday": {"start": "09:00", "isWorking": true}}`,
		"missing isWorking":   `{"monday": {"start": "09:00", "end": "17:00"}}`,
		"bad clock":           `{"monday": {"start": "9am", "end": "17:00", "isWorking": true}}`,
		"start after end":     `{"monday": {"start": "18:00", "end": "09:00", "isWorking": true}}`,
		"null day":            `{"monday": null}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseWorkingHours([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalidWorkingHours)
		})
	}
}

func TestWorkingHoursRoundTrip(t *testing.T) {
	wh := WorkingHours{
		Friday: {Start: 600, End: 1140, IsWorking: true},
	}

	data, err := json.Marshal(wh)
	require.NoError(t, err)
	assert.JSONEq(t, `{"friday":{"start":"10:00","end":"19:00","isWorking":true}}`, string(data))

	parsed, err := ParseWorkingHours(data)
	require.NoError(t, err)
	assert.Equal(t, wh, parsed)
}
