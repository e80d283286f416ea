// Package repository provides persistence implementations for users and
// collections, backed by JSON files in a data directory or by PostgreSQL.
package repository

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/odizinne/gtacompta-storage/internal/models"
	"go.uber.org/zap"
)

const usersFileName = "users.json"

// FileUserStore holds the user accounts of the server, persisted as a
// JSON array in <dataDir>/users.json. Every mutation rewrites the file.
type FileUserStore struct {
	path string
	log  *zap.Logger

	mu    sync.Mutex
	users []models.User
}

// NewFileUserStore loads the user store from dataDir. If the users file
// is missing or unreadable, it bootstraps the default accounts
// (admin with full access, guest read-only) and persists them.
func NewFileUserStore(dataDir string, log *zap.Logger) (*FileUserStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &FileUserStore{
		path: filepath.Join(dataDir, usersFileName),
		log:  log,
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("failed to read users file", zap.String("path", s.path), zap.Error(err))
		}
		return s, s.bootstrapDefaults()
	}

	if err := json.Unmarshal(data, &s.users); err != nil {
		log.Warn("users file is corrupted, recreating defaults", zap.Error(err))
		return s, s.bootstrapDefaults()
	}

	log.Info("loaded users", zap.Int("count", len(s.users)))
	return s, nil
}

// Authenticate reports whether the username/password pair matches a
// stored account. Lookup is exact and case-sensitive.
func (s *FileUserStore) Authenticate(username, password string) bool {
	hash := HashPassword(password)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == username &&
			subtle.ConstantTimeCompare([]byte(u.PasswordHash), []byte(hash)) == 1 {
			return true
		}
	}
	return false
}

// IsReadOnly returns the stored read-only flag for the user. Unknown
// users are treated as read-only, the fail-safe default.
func (s *FileUserStore) IsReadOnly(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == username {
			return u.ReadOnly
		}
	}
	return true
}

// Add creates a new account and persists the store. It returns false if
// the username is already taken or the store cannot be written.
func (s *FileUserStore) Add(username, password string, readonly bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Name == username {
			return false
		}
	}

	s.users = append(s.users, models.User{
		Name:         username,
		PasswordHash: HashPassword(password),
		ReadOnly:     readonly,
	})
	if err := s.persist(); err != nil {
		s.log.Error("failed to persist users", zap.Error(err))
		s.users = s.users[:len(s.users)-1]
		return false
	}
	return true
}

// Delete removes an account and persists the store. It returns false if
// the username is unknown. Password changes are delete followed by add.
func (s *FileUserStore) Delete(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, u := range s.users {
		if u.Name == username {
			s.users = append(s.users[:i], s.users[i+1:]...)
			if err := s.persist(); err != nil {
				s.log.Error("failed to persist users", zap.Error(err))
			}
			return true
		}
	}
	return false
}

// List returns a copy of all accounts.
func (s *FileUserStore) List() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *FileUserStore) bootstrapDefaults() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = []models.User{
		{Name: "admin", PasswordHash: HashPassword("admin"), ReadOnly: false},
		{Name: "guest", PasswordHash: HashPassword("guest"), ReadOnly: true},
	}
	if err := s.persist(); err != nil {
		return fmt.Errorf("persist default users: %w", err)
	}
	s.log.Info("created default users", zap.String("path", s.path))
	return nil
}

// persist rewrites the whole users file. Callers must hold s.mu.
func (s *FileUserStore) persist() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// HashPassword returns the hex-encoded SHA-256 digest of a password,
// the on-disk and wire format for all stored credentials.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
