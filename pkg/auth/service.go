package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ticketmesh/ticketmesh/pkg/log"
	"github.com/ticketmesh/ticketmesh/pkg/types"
	"golang.org/x/crypto/bcrypt"
)

// The administrator account is ensured at startup and always maps to
// types.AdminUserID. Registration can never claim or overwrite it.
const (
	AdminEmail           = "admin@ticketmesh.local"
	DefaultAdminPassword = "admin"
)

// A common, deliberately permissive email pattern; the point is catching
// obvious garbage, not RFC 5322 compliance.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type userRecord struct {
	UserID       string `json:"user_id"`
	PasswordHash string `json:"password_hash"`
}

type persistedState struct {
	Users    map[string]userRecord `json:"users"`    // email -> record
	Sessions map[string]string     `json:"sessions"` // token -> user id
}

// Service is the auth facade: user registration, login, and session
// validation. Users and sessions live in one JSON file rewritten after
// every mutation and read once at startup.
type Service struct {
	mu       sync.Mutex
	path     string
	users    map[string]userRecord
	sessions map[string]string
	logger   zerolog.Logger
}

// NewService loads (or creates) the user/session file and ensures the
// administrator account exists.
func NewService(path string, adminPassword string) (*Service, error) {
	s := &Service{
		path:     path,
		users:    make(map[string]userRecord),
		sessions: make(map[string]string),
		logger:   log.WithComponent("auth"),
	}

	if data, err := os.ReadFile(path); err == nil {
		var state persistedState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("failed to parse auth state file %s: %w", path, err)
		}
		if state.Users != nil {
			s.users = state.Users
		}
		if state.Sessions != nil {
			s.sessions = state.Sessions
		}
		s.logger.Info().Int("users", len(s.users)).Int("sessions", len(s.sessions)).Msg("loaded auth state")
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read auth state file %s: %w", path, err)
	}

	if adminPassword == "" {
		adminPassword = DefaultAdminPassword
	}
	if err := s.ensureAdmin(adminPassword); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) ensureAdmin(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[AdminEmail]; ok && existing.UserID == types.AdminUserID {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	s.users[AdminEmail] = userRecord{
		UserID:       types.AdminUserID,
		PasswordHash: string(hash),
	}
	if err := s.persistLocked(); err != nil {
		return err
	}
	s.logger.Info().Str("email", AdminEmail).Msg("administrator account ensured")
	return nil
}

// Register creates a new user. It returns ok=false with a client-facing
// message for validation failures and existing accounts.
func (s *Service) Register(email, password string) (bool, string) {
	if email == "" || password == "" {
		return false, "Email and password are required."
	}
	if !emailRegex.MatchString(email) {
		s.logger.Warn().Str("email", email).Msg("registration rejected: invalid email format")
		return false, "Invalid email format. Please use a standard email address (e.g., user@example.com)."
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[email]; exists {
		return false, "User already exists."
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return false, "Internal error during registration."
	}
	s.users[email] = userRecord{
		UserID:       uuid.New().String(),
		PasswordHash: string(hash),
	}
	if err := s.persistLocked(); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist users")
		delete(s.users, email)
		return false, "Internal error during registration."
	}

	s.logger.Info().Str("email", email).Msg("new user registered")
	return true, "Registration successful. Please log in."
}

// Login checks credentials and issues a new opaque session token.
func (s *Service) Login(email, password string) (*types.Session, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.users[email]
	if !ok || bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return nil, "Invalid email or password."
	}

	token := uuid.New().String()
	s.sessions[token] = record.UserID
	if err := s.persistLocked(); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist sessions")
		delete(s.sessions, token)
		return nil, "Internal error during login."
	}

	s.logger.Info().Str("user_id", record.UserID).Msg("user logged in")
	return &types.Session{Token: token, UserID: record.UserID}, "Login successful."
}

// ValidateSession resolves a session token to a user id.
func (s *Service) ValidateSession(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.sessions[token]
	return userID, ok
}

// persistLocked rewrites the state file. Callers must hold mu.
func (s *Service) persistLocked() error {
	state := persistedState{Users: s.users, Sessions: s.sessions}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode auth state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write auth state file: %w", err)
	}
	return nil
}
