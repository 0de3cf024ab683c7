package handlers

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"renovationcost/services"
)

// Workspace is the state of one browser session: the uploaded survey and
// price list, the selection and the budget. Handlers hold mu while reading
// or changing it.
type Workspace struct {
	mu sync.Mutex

	ID         string
	SurveyName string
	Extraction services.Extraction
	Catalog    *services.Catalog
	Selection  *services.Session
	Budget     services.Budget
	LastSeen   time.Time // guarded by SessionStore.mu
}

// hasSurvey reports whether a survey export has been uploaded.
func (ws *Workspace) hasSurvey() bool {
	return ws.Extraction.Rooms != nil
}

// SessionStore keeps workspaces in memory, keyed by session id. Workspaces
// not seen for longer than idle are dropped; idle <= 0 keeps them forever.
type SessionStore struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace
	idle       time.Duration
	now        func() time.Time

	catalog *services.Catalog
	budget  services.Budget
}

// NewSessionStore creates a store whose new workspaces start with catalog
// and budget.
func NewSessionStore(catalog *services.Catalog, budget services.Budget, idle time.Duration) *SessionStore {
	return &SessionStore{
		workspaces: make(map[string]*Workspace),
		idle:       idle,
		now:        time.Now,
		catalog:    catalog,
		budget:     budget,
	}
}

// Get returns the workspace for id. An expired workspace is removed and
// reported as missing.
func (s *SessionStore) Get(id string) (*Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.workspaces[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(ws, now) {
		delete(s.workspaces, id)
		return nil, false
	}
	ws.LastSeen = now
	return ws, true
}

// Create starts a new workspace with a fresh session id. Expired workspaces
// are swept first.
func (s *SessionStore) Create() *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, ws := range s.workspaces {
		if s.expired(ws, now) {
			delete(s.workspaces, id)
		}
	}

	ws := &Workspace{
		ID:        uuid.NewString(),
		Catalog:   s.catalog,
		Selection: services.NewSession(services.Extraction{}),
		Budget:    s.budget,
		LastSeen:  now,
	}
	s.workspaces[ws.ID] = ws
	return ws
}

func (s *SessionStore) expired(ws *Workspace, now time.Time) bool {
	return s.idle > 0 && now.Sub(ws.LastSeen) > s.idle
}

// Len returns the number of live workspaces.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}
