package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const UsersTable = "users"

const userColumns = " id, name, email, role, created_at, updated_at"

// UserStore exposes persistence helpers for the admin users table.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) (*UserStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &UserStore{pool: pool}, nil
}

// CreateUserParams captures the fields required to insert a new admin user.
type CreateUserParams struct {
	Name  string
	Email string
	Role  string
}

// CreateUser inserts a new admin user.
func (s *UserStore) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (name, email, role)
        VALUES ($1, $2, $3)
        RETURNING`+userColumns, UsersTable),
		params.Name,
		params.Email,
		params.Role,
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserConflict
		}
		return User{}, err
	}
	return user, nil
}

// GetUser returns the admin user with the given id.
func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT`+userColumns+`
        FROM %s
        WHERE id = $1
    `, UsersTable), id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return user, nil
}

// FindUserByEmail looks an admin user up by email.
func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT`+userColumns+`
        FROM %s
        WHERE email = $1
    `, UsersTable), email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return user, nil
}

// ListUsers returns all admin users ordered by creation time.
func (s *UserStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT`+userColumns+`
        FROM %s
        ORDER BY created_at
    `, UsersTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser persists the mutable fields of an admin user.
func (s *UserStore) UpdateUser(ctx context.Context, user User) (User, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s
        SET name = $2, email = $3, role = $4, updated_at = now()
        WHERE id = $1
        RETURNING`+userColumns, UsersTable),
		user.ID,
		user.Name,
		user.Email,
		user.Role,
	)

	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return User{}, ErrUserConflict
		}
		return User{}, err
	}
	return updated, nil
}

// DeleteUser removes an admin user record.
func (s *UserStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, UsersTable), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User

	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, err
	}
	return user, nil
}
