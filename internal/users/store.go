package users

import (
	"context"
	"sort"
	"sync"
)

// Store persists users.
type Store interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id int64) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id int64) error
}

// MemoryStore is an in-process Store. Ids are assigned sequentially from 1.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: Get, Update and Delete return *NotFoundError for unknown ids.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]User
	nextID int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]User), nextID: 1}
}

func (s *MemoryStore) Create(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, &NotFoundError{ID: id}
	}
	return u, nil
}

// List returns users ordered by id.
func (s *MemoryStore) List(_ context.Context) ([]User, error) {
	s.mu.RLock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return User{}, &NotFoundError{ID: u.ID}
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return &NotFoundError{ID: id}
	}
	delete(s.users, id)
	return nil
}

// SeedUsers are the users loaded by Seed.
var SeedUsers = []User{
	{FirstName: "John", LastName: "Doe", Email: "john.doe@example.com", Age: 30, Password: "password123"},
	{FirstName: "Jane", LastName: "Smith", Email: "jane.smith@example.com", Age: 25, Password: "securepass"},
	{FirstName: "Michael", LastName: "Johnson", Email: "michael.johnson@example.com", Age: 35, Password: "mypassword"},
}

// Seed creates SeedUsers in s.
func Seed(ctx context.Context, s Store) error {
	for _, u := range SeedUsers {
		if _, err := s.Create(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
