package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexis077/bookshelf/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already taken")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, `SELECT id, name, email, password_hash, role, created_at, updated_at FROM site_user WHERE email = $1;`, NormalizeEmail(email))
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getBy(ctx, `SELECT id, name, email, password_hash, role, created_at, updated_at FROM site_user WHERE id = $1;`, id)
}

func (r *Repo) getBy(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (r *Repo) Create(ctx context.Context, user *User) (*User, error) {
	if user.Email == "" || user.PasswordHash == "" {
		return nil, errors.New("user email or password hash empty")
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	user.Email = NormalizeEmail(user.Email)

	_, err := r.db.Exec(
		ctx,
		`INSERT INTO site_user (id, name, email, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.Role, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		// the unique index on email is the real uniqueness arbiter,
		// regardless of any lookup done before calling Create
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (r *Repo) Update(ctx context.Context, id string, params UpdateUserParams) (*User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Role != nil {
		user.Role = *params.Role
	}
	user.UpdatedAt = time.Now()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE site_user SET name = $1, role = $2, updated_at = $3 WHERE id = $4;`,
		user.Name, user.Role, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrUserNotFound
	}

	return user, nil
}

func (r *Repo) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, name, email, password_hash, role, created_at, updated_at
			FROM site_user
			ORDER BY created_at DESC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []User
	for rows.Next() {
		var user User
		if err := rows.Scan(
			&user.ID, &user.Name, &user.Email, &user.PasswordHash,
			&user.Role, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		all = append(all, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return all, nil
}
