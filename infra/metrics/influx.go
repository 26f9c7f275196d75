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

	coremetrics "github.com/kilianp07/featserve/core/metrics"
	"github.com/kilianp07/featserve/infra/logger"
)

// InfluxSink writes configuration and registry events to an InfluxDB instance
// using the official client.
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

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
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

// RecordConfigLoaded writes the startup configuration summary.
func (s *InfluxSink) RecordConfigLoaded(info coremetrics.ConfigInfo) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("config_loaded").
		AddTag("active_store", info.ActiveStore).
		AddTag("store_type", info.StoreType).
		AddTag("version", info.Version).
		AddField("stores", info.Stores).
		AddField("registry", info.Registry).
		SetTime(info.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRegistryRefresh writes one point per refresh attempt.
func (s *InfluxSink) RecordRegistryRefresh(ev coremetrics.RefreshEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("registry_refresh").
		AddTag("changed", strconv.FormatBool(ev.Changed)).
		AddTag("component", "registry_refresher").
		AddTag("success", strconv.FormatBool(ev.Success())).
		AddField("refresh_id", ev.ID).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		AddField("bytes", ev.Size)
	if ev.Checksum != "" {
		p = p.AddField("checksum", ev.Checksum)
	}
	if ev.Err != nil {
		p = p.AddField("error", ev.Err.Error())
	}
	p = p.SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
