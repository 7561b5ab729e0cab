package resume

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State tracks the routes finished in a run so an interrupted run can pick
// up where it stopped. A state belongs to one trusted/testing origin pair.
type State struct {
	RunID           string    `json:"run_id"`
	Trusted         string    `json:"trusted"`
	Testing         string    `json:"testing"`
	StartedAt       time.Time `json:"started_at"`
	CompletedRoutes []string  `json:"completed_routes"`
	TotalRoutes     int       `json:"total_routes"`

	mu   sync.Mutex
	path string
	done map[string]struct{}
}

// New creates a new empty resume state that will be saved to the given path.
func New(path, trusted, testing string, totalRoutes int) *State {
	return &State{
		RunID:       uuid.NewString(),
		Trusted:     trusted,
		Testing:     testing,
		StartedAt:   time.Now().UTC(),
		TotalRoutes: totalRoutes,
		path:        path,
		done:        make(map[string]struct{}),
	}
}

// Load reads an existing resume state from disk. Returns nil if the file
// does not exist.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading resume file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing resume file: %w", err)
	}

	s.path = path
	s.done = make(map[string]struct{}, len(s.CompletedRoutes))
	for _, r := range s.CompletedRoutes {
		s.done[r] = struct{}{}
	}

	return &s, nil
}

// Matches reports whether the state was recorded for this origin pair.
func (s *State) Matches(trusted, testing string) bool {
	return s.Trusted == trusted && s.Testing == testing
}

// IsCompleted returns true if the given route was already tested.
func (s *State) IsCompleted(route string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.done[route]
	return ok
}

// MarkCompleted records a route as done.
func (s *State) MarkCompleted(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.done[route]; !ok {
		s.done[route] = struct{}{}
		s.CompletedRoutes = append(s.CompletedRoutes, route)
	}
}

// Save writes the current state to disk.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing resume state: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// FilterRemaining returns only routes that haven't been completed yet.
func (s *State) FilterRemaining(routes []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var remaining []string
	for _, r := range routes {
		if _, ok := s.done[r]; !ok {
			remaining = append(remaining, r)
		}
	}
	return remaining
}

// Remove deletes the resume file (called on successful completion).
func (s *State) Remove() error {
	return os.Remove(s.path)
}
