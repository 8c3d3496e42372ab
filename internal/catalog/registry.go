package catalog

import (
	"fmt"
	"sync"

	"evcal/internal/model"
)

// MemoryRegistry is an in-memory Registry indexed by route and token.
type MemoryRegistry struct {
	mu      sync.RWMutex
	byRoute map[string]model.Occurrence
	byToken map[string][]string // token -> routes
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byRoute: make(map[string]model.Occurrence),
		byToken: make(map[string][]string),
	}
}

// Register stores occ under its route. Registering the same route twice
// keeps the first occurrence.
func (r *MemoryRegistry) Register(occ model.Occurrence) error {
	if occ.Route == "" || occ.Token == "" {
		return fmt.Errorf("register: occurrence of %s has no route or token", occ.TemplateID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byRoute[occ.Route]; exists {
		return nil
	}
	r.byRoute[occ.Route] = occ
	r.byToken[occ.Token] = append(r.byToken[occ.Token], occ.Route)
	return nil
}

// ByRoute looks up one occurrence by its full route.
func (r *MemoryRegistry) ByRoute(route string) (model.Occurrence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	occ, ok := r.byRoute[route]
	return occ, ok
}

// ByToken returns every occurrence carrying token. More than one result
// means a token collision between templates.
func (r *MemoryRegistry) ByToken(token string) []model.Occurrence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := r.byToken[token]
	out := make([]model.Occurrence, 0, len(routes))
	for _, route := range routes {
		out = append(out, r.byRoute[route])
	}
	SortByStart(out)
	return out
}

// All returns every registered occurrence ordered by start.
func (r *MemoryRegistry) All() []model.Occurrence {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Occurrence, 0, len(r.byRoute))
	for _, occ := range r.byRoute {
		out = append(out, occ)
	}
	SortByStart(out)
	return out
}

func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byRoute)
}
