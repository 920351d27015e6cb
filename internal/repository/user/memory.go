package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Memory keeps users in process.
type Memory struct {
	mu   sync.RWMutex
	byID map[string]domain.User
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]domain.User)}
}

func (m *Memory) Create(_ context.Context, u domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	if m.emailTaken(u.Email, "") {
		return nil, domain.ErrAlreadyExists
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	m.byID[u.ID] = u
	return &u, nil
}

func (m *Memory) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) Update(_ context.Context, u domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[u.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	email := strings.ToLower(u.Email)
	if m.emailTaken(email, u.ID) {
		return nil, domain.ErrAlreadyExists
	}
	cur.Name = u.Name
	cur.Email = email
	cur.Address = u.Address
	m.byID[u.ID] = cur
	return &cur, nil
}

func (m *Memory) SetPasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	m.byID[id] = u
	return nil
}

func (m *Memory) emailTaken(email, exceptID string) bool {
	for id, u := range m.byID {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
