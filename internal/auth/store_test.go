package auth

import (
	"context"
	"sync"

	"visiverse/internal/models"
	"visiverse/internal/repository"
)

// memStore is an in-memory Store with injectable failures.
type memStore struct {
	mu      sync.Mutex
	users   map[string]models.User
	updates int

	fetchErr  error
	insertErr error
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]models.User)}
}

func (s *memStore) FetchUser(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	u, ok := s.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *memStore) InsertUser(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.users[u.Username]; ok {
		return repository.ErrDuplicateKey
	}
	s.users[u.Username] = u
	return nil
}

func (s *memStore) UpdateUserFields(_ context.Context, username string, f models.UserFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	u, ok := s.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	if f.PasswordHash != nil {
		u.PasswordHash = *f.PasswordHash
	}
	if f.DisplayName != nil {
		u.DisplayName = *f.DisplayName
	}
	if f.Description != nil {
		u.Description = *f.Description
	}
	s.users[username] = u
	s.updates++
	return nil
}

func (s *memStore) hashOf(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[username].PasswordHash
}

func (s *memStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

func (s *memStore) put(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Username] = u
}
