package game

import (
	"fmt"
	"sync"
)

// Registry manages game registration and lookup.
// It provides a thread-safe way to register and retrieve games by code.
type Registry struct {
	games map[string]Rules
	mu    sync.RWMutex
}

// NewRegistry creates a new game registry.
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[string]Rules),
	}
}

// Register adds a game to the registry.
// If a game with the same code already exists, it will be replaced.
func (r *Registry) Register(g Rules) error {
	if g == nil {
		return fmt.Errorf("cannot register nil game")
	}
	if g.Code() == "" {
		return fmt.Errorf("game code cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.Code()] = g
	return nil
}

// Get retrieves a game by its code.
// Returns the game and true if found, nil and false otherwise.
func (r *Registry) Get(code string) (Rules, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[code]
	return g, ok
}

// Codes returns the registered game codes.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.games))
	for code := range r.games {
		codes = append(codes, code)
	}
	return codes
}

// Count returns the number of registered games.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
