package websocket

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "seafoodpulse.websocket"

// hubMetrics records connection and broadcast counters on the global meter
type hubMetrics struct {
	connections metric.Int64Counter
	active      metric.Int64UpDownCounter
	duration    metric.Float64Histogram
	messages    metric.Int64Counter
	bytes       metric.Int64Counter
	dropped     metric.Int64Counter
}

func newHubMetrics() (*hubMetrics, error) {
	meter := otel.Meter(meterName)
	var m hubMetrics
	var err error

	if m.connections, err = meter.Int64Counter("websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections")); err != nil {
		return nil, err
	}
	if m.active, err = meter.Int64UpDownCounter("websocket_connections_active",
		metric.WithDescription("Number of active WebSocket connections")); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("websocket_connection_duration_seconds",
		metric.WithDescription("Duration of WebSocket connections"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.messages, err = meter.Int64Counter("websocket_messages_total",
		metric.WithDescription("WebSocket messages delivered to clients")); err != nil {
		return nil, err
	}
	if m.bytes, err = meter.Int64Counter("websocket_message_bytes_total",
		metric.WithDescription("Bytes written to WebSocket clients"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if m.dropped, err = meter.Int64Counter("websocket_dropped_messages_total",
		metric.WithDescription("Messages dropped because a queue was full")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *hubMetrics) connected(ctx context.Context) {
	if m == nil {
		return
	}
	m.connections.Add(ctx, 1)
	m.active.Add(ctx, 1)
}

func (m *hubMetrics) disconnected(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.active.Add(ctx, -1)
	m.duration.Record(ctx, d.Seconds())
}

func (m *hubMetrics) sent(ctx context.Context, msgType string, size int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("message_type", msgType))
	m.messages.Add(ctx, 1, attrs)
	m.bytes.Add(ctx, int64(size), attrs)
}

func (m *hubMetrics) drop(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
