package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/joeyyy09/clinical-flow/internal/config"
	"github.com/joeyyy09/clinical-flow/internal/infrastructure"
	"github.com/joeyyy09/clinical-flow/internal/storage"
)

// Component states
const (
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// RecordCounter reports how many records the store holds
type RecordCounter interface {
	Counts(ctx context.Context) (storage.Counts, error)
}

// StatusService reports whether the store and data directory are usable
type StatusService struct {
	version   string
	driver    string
	paths     *config.Paths
	store     RecordCounter
	startTime time.Time
	logger    *slog.Logger
}

// SystemStatus is the result of a status check
type SystemStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Driver    string                   `json:"driver"`
	Runtime   map[string]interface{}   `json:"runtime"`
	Services  map[string]ServiceHealth `json:"services"`
	Records   *storage.Counts          `json:"records,omitempty"`
}

// ServiceHealth represents individual component health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewStatusService creates a status service
func NewStatusService(version, driver string, paths *config.Paths, store RecordCounter, logger *slog.Logger) *StatusService {
	return &StatusService{
		version:   version,
		driver:    driver,
		paths:     paths,
		store:     store,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "status_service"),
	}
}

// Check inspects every component. The overall status is ready only when all
// of them are.
func (s *StatusService) Check(ctx context.Context) SystemStatus {
	status := SystemStatus{
		Status:    StatusReady,
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Driver:    s.driver,
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"uptime":     time.Since(s.startTime).Seconds(),
		},
		Services: make(map[string]ServiceHealth),
	}

	counts, storeHealth := s.checkStore(ctx)
	status.Services["store"] = storeHealth
	if storeHealth.Status == StatusReady {
		status.Records = &counts
	}
	status.Services["data"] = s.checkDataDir()

	for _, svc := range status.Services {
		if svc.Status != StatusReady {
			status.Status = StatusNotReady
			break
		}
	}

	s.logger.DebugContext(ctx, "Status check completed",
		slog.String("status", status.Status))
	return status
}

func (s *StatusService) checkStore(ctx context.Context) (storage.Counts, ServiceHealth) {
	if s.store == nil {
		return storage.Counts{}, ServiceHealth{Status: StatusNotReady, Message: "store not initialized"}
	}
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return storage.Counts{}, ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("store error: %v", err),
		}
	}
	return counts, ServiceHealth{Status: StatusReady, Message: fmt.Sprintf("%s store is reachable", s.driver)}
}

func (s *StatusService) checkDataDir() ServiceHealth {
	if s.paths == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "paths not resolved"}
	}
	info, err := os.Stat(s.paths.DataDir)
	if err != nil {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("data directory not found: %s", s.paths.DataDir),
		}
	}
	if !info.IsDir() {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("data path is not a directory: %s", s.paths.DataDir),
		}
	}
	return ServiceHealth{Status: StatusReady}
}
