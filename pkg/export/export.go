// Package export renders day-ahead tariff schedules as JSON, CSV or an
// HTML line chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/evtariff/core/pricing"
)

type scheduleDoc struct {
	pricing.Schedule
	Summary pricing.Summary `json:"summary"`
}

// WriteJSON writes the schedule and its summary to w in JSON format.
func WriteJSON(w io.Writer, s pricing.Schedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(scheduleDoc{Schedule: s, Summary: s.Summary()})
}

// WriteCSV writes one row per slot.
func WriteCSV(w io.Writer, s pricing.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"station_id", "time", "label", "rate_per_kwh", "currency", "active_rule"}); err != nil {
		return err
	}
	for _, sl := range s.Slots {
		rec := []string{
			s.StationID,
			sl.Time,
			sl.Label,
			strconv.FormatFloat(sl.Rate, 'f', -1, 64),
			sl.Currency,
			sl.ActiveRule,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHTML renders the schedule as a stepped line chart.
func WriteHTML(w io.Writer, s pricing.Schedule) error {
	currency := ""
	if len(s.Slots) > 0 {
		currency = s.Slots[0].Currency
	}
	sum := s.Summary()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Tariff schedule %s", s.StationID),
			Subtitle: fmt.Sprintf("min %.2f / max %.2f / mean %.2f %s", sum.Min, sum.Max, sum.Mean, currency),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("Rate (%s/kWh)", currency)}),
	)

	xAxis := make([]string, 0, len(s.Slots))
	yAxis := make([]opts.LineData, 0, len(s.Slots))
	for _, sl := range s.Slots {
		xAxis = append(xAxis, sl.Label)
		yAxis = append(yAxis, opts.LineData{Value: sl.Rate, Name: sl.ActiveRule})
	}
	line.SetXAxis(xAxis).AddSeries("Rate", yAxis)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// Write dispatches to the writer named by format: json, csv or html.
func Write(w io.Writer, format string, s pricing.Schedule) error {
	switch format {
	case "json", "":
		return WriteJSON(w, s)
	case "csv":
		return WriteCSV(w, s)
	case "html":
		return WriteHTML(w, s)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
