package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00:00", 0, false},
		{"22:00:00", 22 * 3600, false},
		{"06:30", 6*3600 + 30*60, false},
		{"23:59:59", 86399, false},
		{"24:00:00", 0, true},
		{"12:60:00", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ParseTimeOfDay(c.in)
		if c.wantErr {
			assert.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestTimeOfDayInWindowWraparound(t *testing.T) {
	start, end := MustTimeOfDay("22:00:00"), MustTimeOfDay("06:00:00")
	assert.True(t, MustTimeOfDay("23:30:00").InWindow(start, end))
	assert.True(t, MustTimeOfDay("01:00:00").InWindow(start, end))
	assert.True(t, MustTimeOfDay("06:00:00").InWindow(start, end))
	assert.False(t, MustTimeOfDay("12:00:00").InWindow(start, end))

	day := MustTimeOfDay("09:00:00")
	assert.True(t, day.InWindow(MustTimeOfDay("09:00:00"), MustTimeOfDay("18:00:00")))
	assert.False(t, MustTimeOfDay("18:00:01").InWindow(MustTimeOfDay("09:00:00"), MustTimeOfDay("18:00:00")))
}

func TestTimeOfDayEncoding(t *testing.T) {
	var r struct {
		Start *TimeOfDay `json:"start" yaml:"start"`
		End   *TimeOfDay `json:"end" yaml:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"07:15:00","end":null}`), &r))
	require.NotNil(t, r.Start)
	assert.Equal(t, "07:15:00", r.Start.String())
	assert.Nil(t, r.End)

	out, err := json.Marshal(r.Start)
	require.NoError(t, err)
	assert.Equal(t, `"07:15:00"`, string(out))

	require.NoError(t, yaml.Unmarshal([]byte("start: \"21:00\"\n"), &r))
	assert.Equal(t, 21, r.Start.Hour())
}

func TestISOWeekday(t *testing.T) {
	sunday := time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)
	monday := sunday.AddDate(0, 0, 1)
	assert.Equal(t, 7, ISOWeekday(sunday))
	assert.Equal(t, 1, ISOWeekday(monday))
	assert.True(t, IsWeekend(sunday))
	assert.False(t, IsWeekend(monday))
}

func TestTimeOfDayOn(t *testing.T) {
	loc := time.FixedZone("BISH", 6*3600)
	ref := time.Date(2024, 6, 3, 15, 4, 5, 0, loc)
	got := MustTimeOfDay("18:00:00").On(ref)
	assert.Equal(t, time.Date(2024, 6, 3, 18, 0, 0, 0, loc), got)
}
