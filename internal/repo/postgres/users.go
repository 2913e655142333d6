package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Umar7799/task4safety/internal/domain/user"
	"github.com/Umar7799/task4safety/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type UsersRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, metrics *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, metrics: metrics}
}

// observe wraps a logical DB op with latency/error metrics when wired.
func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.metrics == nil {
		return fn()
	}

	return r.metrics.ObserveDB(op, fn)
}

func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash string) (user.User, error) {
	u := user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       user.StatusActive,
		LastLogin:    time.Now().UTC(),
	}

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(
			ctx,
			`INSERT INTO users (id, name, email, password_hash, status, last_login)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Status, u.LastLogin,
		)
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name, email, password_hash, status, last_login
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Status, &u.LastLogin)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name, email, password_hash, status, last_login
			 FROM users
			 WHERE id = $1`,
			id,
		).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Status, &u.LastLogin)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// List returns every user, most recently logged in first.
func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var users []user.User

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(
			ctx,
			`SELECT id, name, email, password_hash, status, last_login
			 FROM users
			 ORDER BY last_login DESC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		users = users[:0]

		for rows.Next() {
			var u user.User

			err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Status, &u.LastLogin)

			if err != nil {
				return err
			}

			users = append(users, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if users == nil {
		users = []user.User{}
	}

	return users, nil
}

// SetStatus flips a user between active and blocked. Idempotent: setting
// the status a row already has still counts as success.
func (r *UsersRepo) SetStatus(ctx context.Context, id, status string) (user.User, error) {
	var u user.User

	err := r.observe("users.set_status", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE users
			 SET status = $2
			 WHERE id = $1
			 RETURNING id, name, email, password_hash, status, last_login`,
			id, status,
		).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Status, &u.LastLogin)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

// Delete removes the row permanently. No tombstone, no recovery.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	return r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return nil
	})
}

func (r *UsersRepo) TouchLastLogin(ctx context.Context, id string) error {
	return r.observe("users.touch_last_login", func() error {
		tag, err := r.pool.Exec(ctx, `UPDATE users SET last_login = now() WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return nil
	})
}
