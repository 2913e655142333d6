package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Umar7799/task4safety/internal/domain/user"
	"github.com/google/uuid"
)

// UsersRepo mirrors the postgres repo surface so handler and integration
// tests can run against it without a live database.
type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User
	byEmail map[string]string // email -> id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return user.User{}, user.ErrEmailTaken
	}

	u := user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       user.StatusActive,
		LastLogin:    time.Now().UTC(),
	}

	r.items[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.items[id], nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	r.mu.RLock()

	users := make([]user.User, 0, len(r.items))

	for _, u := range r.items {
		users = append(users, u)
	}

	r.mu.RUnlock()

	// most recent login first, same ordering as the SQL repo
	sort.Slice(users, func(i, j int) bool {
		return users[i].LastLogin.After(users[j].LastLogin)
	})

	return users, nil
}

func (r *UsersRepo) SetStatus(ctx context.Context, id, status string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u.Status = status
	r.items[id] = u

	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.ErrNotFound
	}

	delete(r.byEmail, u.Email)
	delete(r.items, id)

	return nil
}

func (r *UsersRepo) TouchLastLogin(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.ErrNotFound
	}

	u.LastLogin = time.Now().UTC()
	r.items[id] = u

	return nil
}
