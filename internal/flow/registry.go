// internal/flow/registry.go
package flow

import (
	"sync"

	"go.uber.org/zap"
)

// Registry holds one Controller per console session so that repeat
// submissions from the same operator reuse the same state machine.
type Registry struct {
	guard     SessionGuard
	evaluator Evaluator
	logger    *zap.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewRegistry(guard SessionGuard, evaluator Evaluator, logger *zap.Logger) *Registry {
	return &Registry{
		guard:       guard,
		evaluator:   evaluator,
		logger:      logger,
		controllers: make(map[string]*Controller),
	}
}

// Get returns the controller for a session, creating it on first use.
func (r *Registry) Get(sessionID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[sessionID]; ok {
		return c
	}

	c := NewController(sessionID, r.guard, r.evaluator, r.logger)
	r.controllers[sessionID] = c
	return c
}

// Drop removes a session's controller, e.g. after logout.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.controllers, sessionID)
}
