package testutil

import (
	"context"
	"sync"

	"fitstream/internal/models"

	"github.com/google/uuid"
)

// ProfileRepoStub is an in-memory profile repository for tests.
// GetErr, when set, is returned by GetByID instead of a lookup.
type ProfileRepoStub struct {
	mu        sync.Mutex
	items     map[uuid.UUID]models.Profile
	GetErr    error
	CreateErr error
	gets      map[uuid.UUID]int
}

// NewProfileRepoStub creates an empty stub seeded with profiles.
func NewProfileRepoStub(profiles ...models.Profile) *ProfileRepoStub {
	s := &ProfileRepoStub{
		items: make(map[uuid.UUID]models.Profile),
		gets:  make(map[uuid.UUID]int),
	}
	for _, p := range profiles {
		s.items[p.ID] = p
	}
	return s
}

// GetByID returns a copy of the stored profile or NOT_FOUND.
func (s *ProfileRepoStub) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gets[id]++
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	p, ok := s.items[id]
	if !ok {
		return nil, models.NewNotFoundError("Profile", id)
	}
	return &p, nil
}

// CreateIfMissing stores profile unless the id is already known.
func (s *ProfileRepoStub) CreateIfMissing(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, ok := s.items[profile.ID]; !ok {
		s.items[profile.ID] = *profile
	}
	return nil
}

// Upsert stores profile, replacing any previous value.
func (s *ProfileRepoStub) Upsert(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[profile.ID] = *profile
	return nil
}

// Gets reports how many lookups reached the stub for id.
func (s *ProfileRepoStub) Gets(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets[id]
}

// Has reports whether a profile is stored for id.
func (s *ProfileRepoStub) Has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok
}
