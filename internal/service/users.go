// Package service provides the business-logic layer between HTTP
// handlers and the persistence repositories.
package service

import "github.com/odizinne/gtacompta-storage/internal/models"

// UserRepository defines the persistence operations required by the
// user service.
type UserRepository interface {
	// Authenticate reports whether the username/password pair is valid.
	Authenticate(username, password string) bool
	// IsReadOnly returns the read-only flag; unknown users are read-only.
	IsReadOnly(username string) bool
	// Add creates an account; returns false if the name is taken.
	Add(username, password string, readonly bool) bool
	// Delete removes an account; returns false if unknown.
	Delete(username string) bool
	// List returns all accounts.
	List() []models.User
}

// UserService implements account operations by delegating to a
// UserRepository.
type UserService struct {
	repo UserRepository
}

// NewUserService constructs a UserService using the provided repository.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Authenticate checks a username/password pair against the store.
func (s *UserService) Authenticate(username, password string) bool {
	return s.repo.Authenticate(username, password)
}

// IsReadOnly reports whether the user may only load collections.
func (s *UserService) IsReadOnly(username string) bool {
	return s.repo.IsReadOnly(username)
}

// Add creates a new account.
func (s *UserService) Add(username, password string, readonly bool) bool {
	return s.repo.Add(username, password, readonly)
}

// Delete removes an account.
func (s *UserService) Delete(username string) bool {
	return s.repo.Delete(username)
}

// List returns all accounts.
func (s *UserService) List() []models.User {
	return s.repo.List()
}
