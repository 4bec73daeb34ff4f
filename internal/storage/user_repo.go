package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_user_store.go -package=mocks kyschat/internal/storage UserStore,SessionStore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// UserStore defines staff account persistence.
type UserStore interface {
	// Create inserts a user and returns its ID. Returns ErrDuplicate if the username is taken.
	Create(ctx context.Context, u *User) (int64, error)
	// GetByUsername returns an active user. Returns ErrNotFound for unknown or disabled users.
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByID returns an active user. Returns ErrNotFound for unknown or disabled users.
	GetByID(ctx context.Context, id int64) (*User, error)
	// List returns all users ordered by ID.
	List(ctx context.Context) ([]User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	// SetActive enables or disables a user by username.
	SetActive(ctx context.Context, username string, active bool) error
}

// UserRepo implements UserStore on SQLite.
type UserRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db, now: time.Now}
}

// Create inserts a user.
func (r *UserRepo) Create(ctx context.Context, u *User) (int64, error) {
	role := u.Role
	if role == "" {
		role = "staff"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, full_name, email, created_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, 1)`,
		u.Username, u.PasswordHash, role, u.FullName, u.Email, formatTime(r.now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id
	u.Role = role
	u.IsActive = true
	return id, nil
}

const userColumns = `id, username, password_hash, COALESCE(role, 'staff'), COALESCE(full_name, ''),
	COALESCE(email, ''), created_at, last_login, COALESCE(is_active, 1)`

// GetByUsername returns an active user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? AND is_active = 1", username)
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// GetByID returns an active user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? AND is_active = 1", id)
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// List returns all users.
func (r *UserRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanUser(scan func(dest ...any) error) (*User, error) {
	var u User
	var created, lastLogin sql.NullString
	var active int
	if err := scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.FullName, &u.Email, &created, &lastLogin, &active); err != nil {
		return nil, err
	}
	u.IsActive = active != 0
	if created.Valid && created.String != "" {
		t, err := parseTime(created.String)
		if err != nil {
			return nil, err
		}
		u.CreatedAt = t
	}
	if lastLogin.Valid && lastLogin.String != "" {
		t, err := parseTime(lastLogin.String)
		if err != nil {
			return nil, err
		}
		u.LastLogin = &t
	}
	return &u, nil
}

// UpdateLastLogin stamps the user's last login time.
func (r *UserRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	return r.update(ctx, "UPDATE users SET last_login = ? WHERE id = ?", formatTime(r.now()), id)
}

// UpdatePasswordHash replaces the stored password hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
}

// SetActive enables or disables a user.
func (r *UserRepo) SetActive(ctx context.Context, username string, active bool) error {
	v := 0
	if active {
		v = 1
	}
	return r.update(ctx, "UPDATE users SET is_active = ? WHERE username = ?", v, username)
}

func (r *UserRepo) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
