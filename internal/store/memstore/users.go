package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"roster/internal/apperr"
	"roster/internal/model"
)

// Users is an in-memory account store.
type Users struct {
	mu   sync.RWMutex
	byID map[string]model.User
}

func NewUsers() *Users {
	return &Users{byID: make(map[string]model.User)}
}

func (s *Users) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.byID {
		if strings.EqualFold(other.Username, u.Username) || strings.EqualFold(other.Email, u.Email) {
			return apperr.AlreadyExists("user")
		}
	}
	s.byID[u.ID] = *u
	return nil
}

func (s *Users) UserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// UserByLogin matches either the username or the email.
func (s *Users) UserByLogin(ctx context.Context, login string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.byID {
		if u.Username == login || strings.EqualFold(u.Email, login) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Users) UserExists(ctx context.Context, username, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.byID {
		if strings.EqualFold(u.Username, username) || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Users) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return apperr.NotFound("user")
	}
	u.LastLogin = &at
	u.UpdatedAt = at
	s.byID[id] = u
	return nil
}

// Audit collects audit entries in memory.
type Audit struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func NewAudit() *Audit { return &Audit{} }

func (a *Audit) Record(ctx context.Context, e model.AuditEntry) error {
	a.mu.Lock()
	a.entries = append(a.entries, e)
	a.mu.Unlock()
	return nil
}

// Entries returns a copy of everything recorded so far.
func (a *Audit) Entries() []model.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.AuditEntry(nil), a.entries...)
}
