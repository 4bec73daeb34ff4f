package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_auth_service.go -package=mocks kyschat/internal/service AuthService

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kyschat/internal/contextutil"
	"kyschat/internal/storage"
)

// Roles a staff account can have.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Roles lists the accepted roles.
var Roles = []string{RoleAdmin, RoleManager, RoleStaff}

// DefaultSessionTTL is used when NewAuthService gets a non-positive TTL.
const DefaultSessionTTL = 12 * time.Hour

const minPasswordLength = 6

// UserInfo is a user without credentials.
type UserInfo struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// IsAdmin reports whether the user has the admin role.
func (u UserInfo) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is an issued bearer token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

// CreateUserRequest holds the fields for a new account.
type CreateUserRequest struct {
	Username string
	Password string
	Role     string
	FullName string
	Email    string
}

// AuthService handles staff logins and sessions.
type AuthService interface {
	// Login checks credentials and opens a session.
	Login(ctx context.Context, username, password string) (*Session, error)
	// Authenticate resolves a session token to its user.
	Authenticate(ctx context.Context, token string) (*UserInfo, error)
	// Logout ends a session. Unknown tokens are not an error.
	Logout(ctx context.Context, token string) error
	// CreateUser adds an account with a bcrypt password hash.
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserInfo, error)
	// DisableUser deactivates an account.
	DisableUser(ctx context.Context, username string) error
	// SeedDefaultUsers creates the default accounts that do not exist yet.
	SeedDefaultUsers(ctx context.Context) error
}

type authService struct {
	users    storage.UserStore
	sessions storage.SessionStore
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users storage.UserStore, sessions storage.SessionStore, ttl time.Duration) AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &authService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// Login verifies the password. Legacy SHA-256 hashes are replaced with bcrypt on success.
func (s *authService) Login(ctx context.Context, username, password string) (*Session, error) {
	logger := contextutil.LoggerFromContext(ctx)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, &ValidationError{Field: "username", Message: "username and password are required"}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		logger.WarnContext(ctx, "login for unknown or disabled user", "username", username)
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, WrapError(err, "failed to load user")
	}

	ok, legacy := checkPassword(user.PasswordHash, password)
	if !ok {
		logger.WarnContext(ctx, "login with wrong password", "username", username)
		return nil, ErrUnauthorized
	}

	if legacy {
		if hash, err := HashPassword(password); err != nil {
			logger.ErrorContext(ctx, "failed to hash password for upgrade", "error", err)
		} else if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			logger.ErrorContext(ctx, "failed to upgrade legacy password hash", "username", username, "error", err)
		} else {
			logger.InfoContext(ctx, "upgraded legacy password hash", "username", username)
		}
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.WarnContext(ctx, "failed to update last login", "username", username, "error", err)
	}
	if n, err := s.sessions.DeleteExpired(ctx); err != nil {
		logger.WarnContext(ctx, "failed to delete expired sessions", "error", err)
	} else if n > 0 {
		logger.DebugContext(ctx, "deleted expired sessions", "count", n)
	}

	now := s.now()
	session := storage.Session{
		Token:     s.newToken(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, WrapError(err, "failed to create session")
	}

	logger.InfoContext(ctx, "user logged in", "username", username, "role", user.Role)
	return &Session{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      toUserInfo(*user),
	}, nil
}

// Authenticate returns the session's user if the session is live and the user active.
func (s *authService) Authenticate(ctx context.Context, token string) (*UserInfo, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, WrapError(err, "failed to load session")
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, WrapError(err, "failed to load user")
	}

	info := toUserInfo(*user)
	return &info, nil
}

// Logout deletes the session.
func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return WrapError(err, "failed to delete session")
	}
	return nil
}

// CreateUser validates and stores a new account.
func (s *authService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserInfo, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, &ValidationError{Field: "username", Message: "cannot be empty"}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	role := req.Role
	if role == "" {
		role = RoleStaff
	}
	if !slices.Contains(Roles, role) {
		return nil, &ValidationError{Field: "role", Message: fmt.Sprintf("must be one of %s", strings.Join(Roles, ", "))}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &storage.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.TrimSpace(req.Email),
		CreatedAt:    s.now(),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, &ValidationError{Field: "username", Message: "already exists"}
		}
		return nil, WrapError(err, "failed to create user")
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "user created", "username", username, "role", role)
	info := toUserInfo(*user)
	return &info, nil
}

// DisableUser deactivates an account. Existing sessions stop authenticating.
func (s *authService) DisableUser(ctx context.Context, username string) error {
	if err := s.users.SetActive(ctx, username, false); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("user %s: %w", username, ErrNotFound)
		}
		return WrapError(err, "failed to disable user")
	}
	return nil
}

// defaultUsers are the accounts shipped with the first admin dashboard.
var defaultUsers = []CreateUserRequest{
	{Username: "admin", Password: "password", Role: RoleAdmin, FullName: "ผู้ดูแลระบบ", Email: "admin@company.com"},
	{Username: "manager", Password: "secret123", Role: RoleManager, FullName: "ผู้จัดการ", Email: "manager@company.com"},
	{Username: "staff", Password: "secret", Role: RoleStaff, FullName: "เจ้าหน้าที่", Email: "staff@company.com"},
}

// SeedDefaultUsers creates missing default accounts. Existing usernames, active or not, are left alone.
func (s *authService) SeedDefaultUsers(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)
	for _, u := range defaultUsers {
		_, err := s.CreateUser(ctx, u)
		var validationErr *ValidationError
		if errors.As(err, &validationErr) && validationErr.Field == "username" {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
		logger.WarnContext(ctx, "seeded default user, change its password", "username", u.Username)
	}
	return nil
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// checkPassword compares password with a bcrypt or legacy unsalted SHA-256 hex hash.
func checkPassword(hash, password string) (ok, legacy bool) {
	if isBcryptHash(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, false
	}
	sum := sha256.Sum256([]byte(password))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(hash)), []byte(want)) == 1, true
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func toUserInfo(u storage.User) UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		FullName:  u.FullName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
		IsActive:  u.IsActive,
	}
}
