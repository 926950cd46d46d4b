package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/AngelCh415/crm-dashboard/internal/models"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusLive    Status = "live"
	StatusError   Status = "error"
)

// State is what the presentation layer polls: the latest snapshot plus
// whether the last refresh worked.
type State struct {
	Status      Status           `json:"status"`
	Error       string           `json:"error,omitempty"`
	LastSuccess time.Time        `json:"lastSuccess,omitempty"`
	Generation  uint64           `json:"generation"`
	Snapshot    *models.Snapshot `json:"snapshot"`
}

// MemoryStore keeps the dashboard session state. Each refresh takes a
// generation from Begin; with discardStale set, completions older than the
// newest stored one are dropped, otherwise the last write wins.
type MemoryStore struct {
	mu           sync.RWMutex
	discardStale bool

	issued  uint64
	stored  uint64
	snap    *models.Snapshot
	status  Status
	lastErr string
	lastOK  time.Time

	filter models.DateFilter
	roles  map[string]models.Role
	goals  *models.Goals
}

func NewMemoryStore(discardStale bool) *MemoryStore {
	return &MemoryStore{
		discardStale: discardStale,
		status:       StatusLoading,
		filter:       models.DateFilter{Preset: models.PresetMonth},
		roles:        make(map[string]models.Role),
	}
}

// Begin issues the generation for a new refresh.
func (s *MemoryStore) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

func (s *MemoryStore) stale(gen uint64) bool {
	return s.discardStale && gen < s.stored
}

// Save stores snap as the current snapshot. It reports false when the
// completion was discarded as stale.
func (s *MemoryStore) Save(gen uint64, snap *models.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen) {
		return false
	}
	s.stored = gen
	s.snap = snap
	s.status = StatusLive
	s.lastErr = ""
	s.lastOK = snap.LastUpdated
	s.filter = snap.Filter
	return true
}

// Fail records a failed refresh. The previous snapshot stays available.
func (s *MemoryStore) Fail(gen uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen) {
		return false
	}
	s.stored = gen
	s.status = StatusError
	s.lastErr = err.Error()
	return true
}

func (s *MemoryStore) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *MemoryStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Status:      s.status,
		Error:       s.lastErr,
		LastSuccess: s.lastOK,
		Generation:  s.stored,
		Snapshot:    s.snap,
	}
}

func (s *MemoryStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap != nil
}

func (s *MemoryStore) Filter() models.DateFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *MemoryStore) SetFilter(f models.DateFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// SetRole records a role edit. It applies to every later run and, right
// away, to the stored snapshot.
func (s *MemoryStore) SetRole(memberID string, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[memberID] = role
	if s.snap == nil {
		return nil
	}
	next := *s.snap
	next.Team = append([]models.TeamMember(nil), s.snap.Team...)
	for i := range next.Team {
		if next.Team[i].ID == memberID {
			next.Team[i].Role = role
		}
	}
	s.snap = &next
	return nil
}

func (s *MemoryStore) RoleOverrides() map[string]models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Role, len(s.roles))
	for k, v := range s.roles {
		out[k] = v
	}
	return out
}

func (s *MemoryStore) SetGoals(g models.Goals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = &g
}

// Goals returns the goals edited at runtime, if any.
func (s *MemoryStore) Goals() (models.Goals, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.goals == nil {
		return models.Goals{}, false
	}
	return *s.goals, true
}
