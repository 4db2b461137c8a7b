package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// User is an account allowed to call the API.
type User struct {
	Username       string `json:"username" yaml:"username"`
	DisplayName    string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Email          string `json:"email,omitempty" yaml:"email,omitempty"`
	HashedPassword string `json:"-" yaml:"-"`
}

const usersSchema = `CREATE TABLE IF NOT EXISTS users (
	username        TEXT PRIMARY KEY,
	display_name    TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	hashed_password TEXT NOT NULL
)`

// UserStore keeps users in a SQLite database.
type UserStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// StoreConfig configures OpenUserStore.
type StoreConfig struct {
	Path          string // ":memory:" for an in-process database
	OpenAttempts  uint   // Retries while the file is locked. Default: 5.
	RetryInterval time.Duration
	Logger        *slog.Logger
}

// OpenUserStore opens (creating if needed) the users database at cfg.Path.
// Setup statements are retried while another process holds the write lock.
func OpenUserStore(ctx context.Context, cfg StoreConfig) (*UserStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("auth: users database path is empty")
	}
	if cfg.OpenAttempts == 0 {
		cfg.OpenAttempts = 5
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("auth: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("auth: open: %w", err)
	}
	if cfg.Path == ":memory:" {
		// Each connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	setup := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		usersSchema,
	}
	err = retry.Do(
		func() error {
			for _, stmt := range setup {
				if _, err := db.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(cfg.OpenAttempts),
		retry.Delay(cfg.RetryInterval),
		retry.RetryIf(isLocked),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			cfg.Logger.Warn("users database locked, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("auth: init users database: %w", err)
	}

	return &UserStore{db: db, logger: cfg.Logger}, nil
}

func isLocked(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// Close closes the database.
func (s *UserStore) Close() error {
	return s.db.Close()
}

// Add creates a user with a bcrypt hash of password.
func (s *UserStore) Add(ctx context.Context, u User, password string) error {
	if strings.TrimSpace(u.Username) == "" {
		return errors.New("username is required")
	}
	if password == "" {
		return errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (username, display_name, email, hashed_password) VALUES (?, ?, ?, ?)`,
		u.Username, u.DisplayName, u.Email, string(hash))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	s.logger.Info("user added", "username", u.Username)
	return nil
}

// Get returns the user named username.
func (s *UserStore) Get(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT username, display_name, email, hashed_password FROM users WHERE username = ?`,
		username).Scan(&u.Username, &u.DisplayName, &u.Email, &u.HashedPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// Authenticate returns the user when password matches the stored hash.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.Get(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// List returns all users ordered by username.
func (s *UserStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, display_name, email, hashed_password FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Username, &u.DisplayName, &u.Email, &u.HashedPassword); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
