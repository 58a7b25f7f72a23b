package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
)

// Memory is a Directory kept in process memory. A single RWMutex serializes
// writers; readers share the lock.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	projects map[string]domain.Account
	now      func() time.Time
}

// NewMemory creates an empty in-memory directory
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]domain.User),
		projects: make(map[string]domain.Account),
		now:      time.Now,
	}
}

func (m *Memory) AddUser(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return domain.ErrUserExists
	}
	for _, u := range m.users {
		if user.AccessKey != "" && u.AccessKey == user.AccessKey {
			return domain.ErrUserExists
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = m.now()
	}
	m.users[user.ID] = user
	return nil
}

func (m *Memory) LookupUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	for _, p := range m.projects {
		if p.Manager == id {
			return domain.ErrManagerInUse
		}
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) CreateProject(_ context.Context, id, manager, description string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[manager]; !ok {
		return nil, domain.ErrBadManager
	}
	if _, ok := m.projects[id]; ok {
		return nil, domain.ErrConflict
	}

	now := m.now()
	p := domain.Account{
		ID:          id,
		Name:        id,
		Description: description,
		Manager:     manager,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.projects[id] = p
	return &p, nil
}

func (m *Memory) GetProject(_ context.Context, id string) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.projects, id)
	return nil
}

func (m *Memory) ModifyProject(_ context.Context, id string, manager, description *string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if manager != nil {
		if _, ok := m.users[*manager]; !ok {
			return nil, domain.ErrBadManager
		}
		p.Manager = *manager
	}
	if description != nil {
		p.Description = *description
	}
	p.UpdatedAt = m.now()
	m.projects[id] = p
	return &p, nil
}

func (m *Memory) ListProjects(_ context.Context) ([]domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Account, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
