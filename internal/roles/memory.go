package roles

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepository is an in-memory Repository used in tests.
type MemoryRepository struct {
	mu    sync.Mutex
	byKey map[string]Role
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byKey: make(map[string]Role)}
}

func (m *MemoryRepository) Insert(_ context.Context, role *Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(role.Name)
	if _, ok := m.byKey[key]; ok {
		return ErrDuplicate
	}
	m.byKey[key] = *role
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, role *Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(role.Name)
	if _, ok := m.byKey[key]; !ok {
		return ErrNotFound
	}
	m.byKey[key] = *role
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, name string) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.byKey[strings.ToLower(name)]
	if !ok {
		return nil, ErrNotFound
	}
	out := role
	return &out, nil
}

func (m *MemoryRepository) List(_ context.Context) ([]Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Role, 0, len(m.byKey))
	for _, role := range m.byKey {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := m.byKey[key]; !ok {
		return ErrNotFound
	}
	delete(m.byKey, key)
	return nil
}
