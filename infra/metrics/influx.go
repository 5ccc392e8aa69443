package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/dayplan/core/metrics"
	"github.com/kilianp07/dayplan/infra/logger"
)

// InfluxSink writes scheduling passes to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
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

// RecordPass writes one plan_pass point.
func (s *InfluxSink) RecordPass(ev coremetrics.PassEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, passPoint(ev))
}

// RecordPassError writes one plan_pass_error point.
func (s *InfluxSink) RecordPassError(ev coremetrics.PassErrorEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, passErrorPoint(ev))
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func passPoint(ev coremetrics.PassEvent) *write.Point {
	return write.NewPointWithMeasurement("plan_pass").
		AddTag("source", ev.Source).
		AddTag("plan", ev.Plan).
		AddTag("changed", strconv.FormatBool(ev.Changed)).
		AddField("activities", ev.Activities).
		AddField("fixed", ev.Fixed).
		AddField("rigid", ev.Rigid).
		AddField("span_minutes", ev.SpanMinutes).
		AddField("duration_ms", float64(ev.Duration.Microseconds())/1000).
		SetTime(ev.Time)
}

func passErrorPoint(ev coremetrics.PassErrorEvent) *write.Point {
	return write.NewPointWithMeasurement("plan_pass_error").
		AddTag("source", ev.Source).
		AddTag("plan", ev.Plan).
		AddTag("stage", ev.Stage).
		AddField("error", ev.Err).
		SetTime(ev.Time)
}
