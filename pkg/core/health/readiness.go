package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ComponentStatus struct {
	Name      string    `json:"name"`
	Ready     bool      `json:"ready"`
	StartedAt time.Time `json:"started_at"`
	ReadyAt   time.Time `json:"ready_at,omitempty"`
}

type ReadinessStatus struct {
	Ready      bool              `json:"ready"`
	Components []ComponentStatus `json:"components"`
	ReadyAt    time.Time         `json:"ready_at,omitempty"`
}

// Readiness tracks startup components. Long-running workers register
// themselves and mark ready once their connections are up; the readiness
// probe and the kafka readers gate on the aggregate state.
type Readiness interface {
	AddComponent(name string)
	MarkReady(name string)
	IsReady() bool
	GetStatus() ReadinessStatus
	WaitReady(ctx context.Context) error
}

type component struct {
	name      string
	ready     bool
	startedAt time.Time
	readyAt   time.Time
}

type readiness struct {
	mu         sync.RWMutex
	components map[string]*component
	readyChan  chan struct{}
	readyOnce  sync.Once
	logger     *zap.Logger
}

func NewReadiness(logger *zap.Logger) Readiness {
	return &readiness{
		components: make(map[string]*component),
		readyChan:  make(chan struct{}),
		logger:     logger,
	}
}

func NewReadinessModule() fx.Option {
	return fx.Provide(NewReadiness)
}

func (r *readiness) AddComponent(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[name]; !exists {
		r.components[name] = &component{
			name:      name,
			startedAt: time.Now(),
		}
	}
}

func (r *readiness) MarkReady(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	comp, exists := r.components[name]
	if !exists || comp.ready {
		return
	}
	comp.ready = true
	comp.readyAt = time.Now()

	allReady := len(r.components) > 0
	for _, c := range r.components {
		if !c.ready {
			allReady = false
			break
		}
	}

	if allReady {
		r.readyOnce.Do(func() {
			close(r.readyChan)
			r.logger.Info("All components are ready",
				zap.Int("component_count", len(r.components)),
				zap.Time("ready_at", time.Now()),
			)
		})
	}
}

func (r *readiness) IsReady() bool {
	select {
	case <-r.readyChan:
		return true
	default:
		return false
	}
}

func (r *readiness) GetStatus() ReadinessStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ready := r.IsReady()
	var readyAt time.Time
	if ready {
		for _, comp := range r.components {
			if comp.readyAt.After(readyAt) {
				readyAt = comp.readyAt
			}
		}
	}

	status := ReadinessStatus{
		Ready:      ready,
		Components: make([]ComponentStatus, 0, len(r.components)),
		ReadyAt:    readyAt,
	}

	for _, comp := range r.components {
		status.Components = append(status.Components, ComponentStatus{
			Name:      comp.name,
			Ready:     comp.ready,
			StartedAt: comp.startedAt,
			ReadyAt:   comp.readyAt,
		})
	}

	return status
}

// WaitReady blocks until all components are ready or context is cancelled.
func (r *readiness) WaitReady(ctx context.Context) error {
	select {
	case <-r.readyChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
