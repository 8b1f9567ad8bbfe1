package envelope

import "sync"

// ToolRegistry maps tool names to their default side-effect classification.
// An unregistered tool resolves to none, the least disruptive classification,
// until it is explicitly registered.
type ToolRegistry struct {
	mu    sync.RWMutex
	sides map[string]SideEffect
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{sides: make(map[string]SideEffect)}
}

// Register records the side effect for a tool name, overwriting any prior
// entry.
func (r *ToolRegistry) Register(toolName string, sideEffect SideEffect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sides[toolName] = sideEffect
}

// RegisterDefaults seeds the registry with the conventional classification
// for the common file and shell tools, if not already present. Calling it
// more than once is a no-op for tools already registered.
func (r *ToolRegistry) RegisterDefaults() {
	defaults := map[string]SideEffect{
		"Read":  SideEffectNone,
		"Glob":  SideEffectNone,
		"Grep":  SideEffectNone,
		"Write": SideEffectIdempotent,
		"Edit":  SideEffectIdempotent,
		"Bash":  SideEffectIrreversible,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, se := range defaults {
		if _, exists := r.sides[name]; !exists {
			r.sides[name] = se
		}
	}
}

// SideEffectFor returns the registered side effect for toolName, defaulting
// to SideEffectNone for unknown tools.
func (r *ToolRegistry) SideEffectFor(toolName string) SideEffect {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if se, ok := r.sides[toolName]; ok {
		return se
	}
	return SideEffectNone
}
