package operations

import (
	"fmt"
	"sync"
)

// Registry holds the registered steps in registration order, which is
// also the execution order of the full pipeline.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register adds a step. Dependencies must already be registered.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return fmt.Errorf("step %s already registered", id)
	}
	for _, dep := range step.Dependencies() {
		if _, ok := r.steps[dep]; !ok {
			return fmt.Errorf("step %s depends on unregistered step %s", id, dep)
		}
	}

	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get returns the step with id
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, ok := r.steps[id]
	if !ok {
		return nil, fmt.Errorf("step %s not found", id)
	}
	return step, nil
}

// List returns the steps in registration order
func (r *Registry) List() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make([]Step, 0, len(r.order))
	for _, id := range r.order {
		steps = append(steps, r.steps[id])
	}
	return steps
}

// IDs returns the step IDs in registration order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Types describes the registered steps for API clients
func (r *Registry) Types() []OperationType {
	steps := r.List()
	types := make([]OperationType, 0, len(steps))
	for _, s := range steps {
		t := OperationType{
			ID:           s.ID(),
			Name:         s.Name(),
			Description:  s.Description(),
			Dependencies: s.Dependencies(),
			Parameters:   []ParameterDefinition{},
		}
		if o, ok := s.(interface{ Optional() bool }); ok {
			t.Optional = o.Optional()
		}
		if p, ok := s.(interface{ Parameters() []ParameterDefinition }); ok {
			t.Parameters = p.Parameters()
		}
		types = append(types, t)
	}
	return types
}
