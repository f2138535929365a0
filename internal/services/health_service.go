package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"seafoodpulse/internal/infrastructure"
	ws "seafoodpulse/internal/websocket"
	"seafoodpulse/pkg/contracts"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HubStatsReporter reports WebSocket hub counters
type HubStatsReporter interface {
	Stats() ws.HubStats
}

// HealthStatus is the body of /healthz and /readyz
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Process   *infrastructure.ProcessStats `json:"process,omitempty"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
	WebSocket *ws.HubStats                 `json:"websocket,omitempty"`
}

// ServiceHealth is the readiness of one dependency
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	statusOK       = "ok"
	statusReady    = "ready"
	statusNotReady = "not_ready"
)

// HealthService provides liveness and readiness checks
type HealthService struct {
	store     Pinger
	hub       HubStatsReporter
	dataDir   string
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service. store and hub may be nil.
func NewHealthService(store Pinger, hub HubStatsReporter, dataDir string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		store:     store,
		hub:       hub,
		dataDir:   dataDir,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck reports liveness with a process snapshot
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.CollectProcessStats(ctx, hs.startTime)
	return HealthStatus{
		Status:    statusOK,
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Process:   &stats,
	}
}

// ReadinessCheck verifies the store and the data directory and attaches
// the hub counters
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	var hubStats *ws.HubStats
	if hs.hub != nil {
		st := hs.hub.Stats()
		hubStats = &st
	}
	status := HealthStatus{
		Status:    statusReady,
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Services: map[string]ServiceHealth{
			"store":     hs.checkStore(ctx),
			"data":      hs.checkDataDir(),
			"websocket": checkWebSocket(hubStats),
		},
		WebSocket: hubStats,
	}

	for name, svc := range status.Services {
		if svc.Status != statusReady {
			status.Status = statusNotReady
			hs.logger.WarnContext(ctx, "dependency not ready",
				slog.String("dependency", name),
				slog.String("message", svc.Message))
		}
	}
	return status
}

// Ready reports whether every dependency is ready
func (s HealthStatus) Ready() bool {
	return s.Status == statusReady
}

func (hs *HealthService) checkStore(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: statusNotReady, Message: "store not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := hs.store.Ping(ctx); err != nil {
		return ServiceHealth{Status: statusNotReady, Message: err.Error()}
	}
	return ServiceHealth{Status: statusReady}
}

func (hs *HealthService) checkDataDir() ServiceHealth {
	info, err := os.Stat(hs.dataDir)
	if err != nil {
		return ServiceHealth{Status: statusNotReady, Message: fmt.Sprintf("data directory: %v", err)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: statusNotReady, Message: hs.dataDir + " is not a directory"}
	}
	return ServiceHealth{Status: statusReady}
}

func checkWebSocket(stats *ws.HubStats) ServiceHealth {
	if stats == nil {
		return ServiceHealth{Status: statusReady, Message: "disabled"}
	}
	return ServiceHealth{Status: statusReady, Message: fmt.Sprintf("%d clients", stats.ActiveClients)}
}
