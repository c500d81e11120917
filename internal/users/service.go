package users

import "context"

// Service implements user operations over a Store. Passwords are accepted
// on create but never returned.
type Service struct {
	store Store
}

// NewService creates a Service. A nil store uses a fresh MemoryStore.
func NewService(store Store) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, u User) (User, error) {
	u.ID = 0
	created, err := s.store.Create(ctx, u)
	if err != nil {
		return User{}, err
	}
	return toOutput(created), nil
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	return toOutput(u), nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = toOutput(list[i])
	}
	return list, nil
}

// Update replaces the name, email and age of user id. The stored password
// is kept.
func (s *Service) Update(ctx context.Context, id int64, u User) (User, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	existing.FirstName = u.FirstName
	existing.LastName = u.LastName
	existing.Email = u.Email
	existing.Age = u.Age

	updated, err := s.store.Update(ctx, existing)
	if err != nil {
		return User{}, err
	}
	return toOutput(updated), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func toOutput(u User) User {
	u.Password = ""
	return u
}
