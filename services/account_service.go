// services/account_service.go
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/moonvale/werewolf-server/models"
	"github.com/moonvale/werewolf-server/persistence"
)

var (
	ErrMissingCredentials = errors.New("missing username or password")
	ErrUsernameTooLong    = errors.New("username must be 1-49 characters")
)

// AccountService handles registration and login against the user store.
type AccountService struct {
	db persistence.Database
}

func NewAccountService(db persistence.Database) *AccountService {
	return &AccountService{db: db}
}

// HashPassword returns the hex-encoded SHA-256 digest. The stored format is
// shared with pre-existing account rows, so the scheme cannot change here.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Register creates a new account and returns its user id.
func (s *AccountService) Register(username, password string) (int64, error) {
	if username == "" || password == "" {
		return 0, ErrMissingCredentials
	}
	if len(username) >= 50 {
		return 0, ErrUsernameTooLong
	}
	return s.db.CreateUser(username, HashPassword(password))
}

// Login verifies credentials and returns the account's user id.
func (s *AccountService) Login(username, password string) (int64, error) {
	if username == "" || password == "" {
		return 0, ErrMissingCredentials
	}
	return s.db.FindUser(username, HashPassword(password))
}

// Stats returns the aggregate win/loss record for an account.
func (s *AccountService) Stats(userID int64) (*models.PlayerStats, error) {
	return s.db.GetPlayerStats(userID)
}
