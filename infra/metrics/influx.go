package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/evtariff/core/events"
	coremetrics "github.com/kilianp07/evtariff/core/metrics"
	"github.com/kilianp07/evtariff/infra/logger"
)

// InfluxConfig locates an InfluxDB v2 bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes tariff events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordResolution writes a tariff_resolution point.
func (s *InfluxSink) RecordResolution(ev events.ResolutionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, resolutionPoint(ev))
}

func resolutionPoint(ev events.ResolutionEvent) *write.Point {
	p := write.NewPointWithMeasurement("tariff_resolution")
	if ev.ConnectorType != "" {
		p.AddTag("connector_type", ev.ConnectorType)
	}
	if ev.Currency != "" {
		p.AddTag("currency", ev.Currency)
	}
	p.AddTag("degraded", strconv.FormatBool(ev.Degraded)).
		AddTag("source", ev.Source)
	if ev.StationID != "" {
		p.AddTag("station_id", ev.StationID)
	}
	p.AddField("latency_ms", round3(float64(ev.Latency)/float64(time.Millisecond))).
		AddField("rate_per_kwh", round3(ev.RatePerKWh))
	if ev.RuleID != "" {
		p.AddField("rule_id", ev.RuleID)
	}
	return p.SetTime(ev.Time)
}

// RecordCacheEvent writes a tariff_cache point.
func (s *InfluxSink) RecordCacheEvent(ev events.CacheEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("tariff_cache").
		AddTag("outcome", ev.Outcome).
		AddTag("partition", ev.Partition).
		AddTag("tier", ev.Tier).
		AddField("count", 1).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordInvalidation writes a tariff_invalidation point.
func (s *InfluxSink) RecordInvalidation(ev events.InvalidationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("tariff_invalidation").
		AddTag("origin", ev.Origin)
	if ev.StationID != "" {
		p.AddTag("station_id", ev.StationID)
	}
	p.AddField("removed", ev.Removed).SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

var (
	_ coremetrics.CacheRecorder        = (*InfluxSink)(nil)
	_ coremetrics.InvalidationRecorder = (*InfluxSink)(nil)
)
