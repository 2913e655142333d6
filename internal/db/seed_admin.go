package db

import (
	"context"
	"errors"
	"time"

	"github.com/Umar7799/task4safety/internal/config"
	"github.com/Umar7799/task4safety/internal/domain/user"
	"github.com/Umar7799/task4safety/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser seeds a first account so a fresh deployment has someone
// who can log in and manage the roster. Does nothing when the email is
// already present or the env vars are unset.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AdminEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u := user.User{
		ID:           uuid.NewString(),
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Status:       user.StatusActive,
		LastLogin:    time.Now().UTC(),
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, status, last_login)
		VALUES ($1,$2,$3,$4,$5,$6)
		`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Status, u.LastLogin,
	)

	return err
}
