package observability

import (
	"context"
	"time"
)

// HealthStatus represents the health state of a component or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes one collaborator of a diarization run.
type Health struct {
	Name      string            `json:"name" yaml:"name"`
	Status    HealthStatus      `json:"status" yaml:"status"`
	Message   string            `json:"message,omitempty" yaml:"message,omitempty"`
	LatencyMS int64             `json:"latency_ms,omitempty" yaml:"latency_ms,omitempty"`
	Details   map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// ServiceHealth aggregates component results into one status.
type ServiceHealth struct {
	Service    string       `json:"service" yaml:"service"`
	Status     HealthStatus `json:"status" yaml:"status"`
	Version    string       `json:"version,omitempty" yaml:"version,omitempty"`
	Components []Health     `json:"components,omitempty" yaml:"components,omitempty"`
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// Probe runs check and turns its outcome into a Health with the measured
// latency. A nil error is up.
func Probe(ctx context.Context, name string, check func(ctx context.Context) error) Health {
	start := time.Now()
	err := check(ctx)
	h := Health{Name: name, Status: HealthStatusUp, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		h.Status = HealthStatusDown
		h.Message = err.Error()
	}
	return h
}

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent records a component the service cannot run without.
// Down takes the whole service down.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)
	sh.escalate(ch.Status)
}

// AddOptional records a component whose loss only degrades the service,
// such as the result cache.
func (sh *ServiceHealth) AddOptional(ch Health) {
	sh.Components = append(sh.Components, ch)
	if ch.Status == HealthStatusDown {
		sh.escalate(HealthStatusDegraded)
		return
	}
	sh.escalate(ch.Status)
}

// Healthy reports whether the service can take work.
func (sh *ServiceHealth) Healthy() bool {
	return sh.Status != HealthStatusDown
}

func (sh *ServiceHealth) escalate(status HealthStatus) {
	switch status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}
