package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evtariff/core/pricing"
)

func sampleSchedule() pricing.Schedule {
	return pricing.Schedule{
		StationID: "EVI-0001",
		Slots: []pricing.Slot{
			{Time: "00:00", Label: "Night (00:00)", Rate: 5, Currency: "KGS", ActiveRule: "Night"},
			{Time: "12:00", Label: "Day (12:00)", Rate: 10, Currency: "KGS", ActiveRule: "Day"},
			{Time: "18:00", Label: "Evening (18:00)", Rate: 15, Currency: "KGS", ActiveRule: "Peak, evening"},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleSchedule()))

	var doc struct {
		StationID string          `json:"station_id"`
		Slots     []pricing.Slot  `json:"slots"`
		Summary   pricing.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "EVI-0001", doc.StationID)
	assert.Len(t, doc.Slots, 3)
	assert.Equal(t, 10.0, doc.Summary.Mean)
	assert.Equal(t, 5.0, doc.Summary.Min)
	assert.Equal(t, 15.0, doc.Summary.Max)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSchedule()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"station_id", "time", "label", "rate_per_kwh", "currency", "active_rule"}, rows[0])
	assert.Equal(t, []string{"EVI-0001", "18:00", "Evening (18:00)", "15", "KGS", "Peak, evening"}, rows[3])
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleSchedule()))
	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Tariff schedule EVI-0001")
	assert.Contains(t, out, "Night (00:00)")
}

func TestWriteFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "csv", sampleSchedule()))
	assert.Contains(t, buf.String(), "rate_per_kwh")
	assert.Error(t, Write(&buf, "xml", sampleSchedule()))
}
