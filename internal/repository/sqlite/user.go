package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore is the account side of the database. It shares the connection
// pool of the DB it came from.
type UserStore struct {
	conn *sql.DB
}

// Users returns the repository.UserRepository view of db.
func (db *DB) Users() *UserStore {
	return &UserStore{conn: db.conn}
}

const userColumns = `id, username, email, password_hash, github_id, created_at`

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.GitHubID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new account. Username and email uniqueness is enforced by
// the schema; a violation becomes apperror.Conflict naming the column.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.GitHubID,
		user.CreatedAt,
	)
	if err != nil {
		if column, ok := uniqueViolation(err); ok {
			return apperror.Conflict(column, fmt.Sprintf("%s already exists", column))
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
func (s *UserStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User not found.")
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByUsername retrieves a user by their (already lowercased) username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User not found.")
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", username, err)
	}
	return u, nil
}

// UpsertGitHub creates or refreshes the account linked to user.GitHubID.
//
// An existing account keeps its internal ID and username; only the email is
// refreshed. On return user holds the canonical record.
func (s *UserStore) UpsertGitHub(ctx context.Context, user *model.User) error {
	existing, err := scanUser(s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, user.GitHubID,
	))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existing == nil {
		return s.Create(ctx, user)
	}

	if user.Email != "" && user.Email != existing.Email {
		if _, err := s.conn.ExecContext(ctx,
			`UPDATE users SET email = ? WHERE id = ?`, user.Email, existing.ID,
		); err != nil {
			if column, ok := uniqueViolation(err); ok {
				return apperror.Conflict(column, fmt.Sprintf("%s already exists", column))
			}
			return fmt.Errorf("sqlite: updating user %s: %w", existing.ID, err)
		}
		existing.Email = user.Email
	}

	*user = *existing
	return nil
}
