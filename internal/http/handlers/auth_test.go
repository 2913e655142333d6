package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Umar7799/task4safety/internal/auth"
	"github.com/Umar7799/task4safety/internal/domain/user"
	"github.com/Umar7799/task4safety/internal/http/handlers"
	"github.com/Umar7799/task4safety/internal/security"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Fake store implementing the handlers.UserReader / handlers.UserWriter
// interfaces

type fakeUserStore struct {
	createFn     func(ctx context.Context, name, email, passwordHash string) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	touchFn      func(ctx context.Context, id string) error
}

func (f *fakeUserStore) Create(ctx context.Context, name, email, passwordHash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, name, email, passwordHash)
	}
	return user.User{}, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) TouchLastLogin(ctx context.Context, id string) error {
	if f.touchFn != nil {
		return f.touchFn(ctx, id)
	}
	return nil
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func testManager() *auth.Manager {
	return auth.NewManager("test-secret", time.Hour)
}

func TestSignUpHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		storeSetup     func(*fakeUserStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"name": "Alice", "email": "alice@x.com", "password": "pw123"}`,
			storeSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, name, email, passwordHash string) (user.User, error) {
					if passwordHash == "pw123" {
						return user.User{}, errors.New("plaintext password reached the store")
					}
					return user.User{
						ID:        "id-1",
						Name:      name,
						Email:     email,
						Status:    user.StatusActive,
						LastLogin: time.Now().UTC(),
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "missing_name",
			body: `{"email": "alice@x.com", "password": "pw123"}`,
			storeSetup: func(f *fakeUserStore) {
				// invalid request, the store must not be called
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_password",
			body:           `{"name": "Alice", "email": "alice@x.com"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_email",
			body:           `{"name": "Alice", "email": "not-an-email", "password": "pw123"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "duplicate_email",
			body: `{"name": "Alice", "email": "alice@x.com", "password": "pw123"}`,
			storeSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, name, email, passwordHash string) (user.User, error) {
					return user.User{}, user.ErrEmailTaken
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "store_error",
			body: `{"name": "Alice", "email": "alice@x.com", "password": "pw123"}`,
			storeSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, name, email, passwordHash string) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewAuthHandler(store, store, testManager(), discardLogger())

			r := setupRouter(http.MethodPost, "/api/register", h.SignUp)

			req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				// password hash must never serialize
				if bytes.Contains(w.Body.Bytes(), []byte("password")) {
					t.Fatalf("response leaks password material: %s", w.Body.String())
				}
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("pw123")

	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	alice := user.User{
		ID:           "alice-id",
		Name:         "Alice",
		Email:        "alice@x.com",
		PasswordHash: hash,
		Status:       user.StatusActive,
		LastLogin:    time.Now().UTC(),
	}

	tests := []struct {
		name           string
		body           string
		storeSetup     func(*fakeUserStore)
		wantStatusCode int
		wantErrCode    string
	}{
		{
			name: "success",
			body: `{"email": "alice@x.com", "password": "pw123"}`,
			storeSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return alice, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_password",
			body:           `{"email": "alice@x.com"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "unknown_email",
			body: `{"email": "nobody@x.com", "password": "pw123"}`,
			storeSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return user.User{}, user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusUnauthorized,
			wantErrCode:    "invalid_credentials",
		},
		{
			name: "wrong_password",
			body: `{"email": "alice@x.com", "password": "nope"}`,
			storeSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return alice, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
			wantErrCode:    "invalid_credentials",
		},
		{
			name: "blocked_account",
			body: `{"email": "alice@x.com", "password": "pw123"}`,
			storeSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					blocked := alice
					blocked.Status = user.StatusBlocked
					return blocked, nil
				}
			},
			wantStatusCode: http.StatusForbidden,
			wantErrCode:    "account_blocked",
		},
		{
			name: "touch_last_login_error",
			body: `{"email": "alice@x.com", "password": "pw123"}`,
			storeSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return alice, nil
				}
				f.touchFn = func(ctx context.Context, id string) error {
					return errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			manager := testManager()
			h := handlers.NewAuthHandler(store, store, manager, discardLogger())

			r := setupRouter(http.MethodPost, "/api/login", h.Login)

			req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}

				claims, err := manager.VerifyAccessToken(resp.Token)
				if err != nil {
					t.Fatalf("returned token does not verify: %v", err)
				}
				if claims.UserID != alice.ID {
					t.Fatalf("token carries user id %q, want %q", claims.UserID, alice.ID)
				}
			}

			if tt.wantErrCode != "" {
				var resp struct {
					Error struct {
						Code string `json:"code"`
					} `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal error response: %v", err)
				}
				if resp.Error.Code != tt.wantErrCode {
					t.Fatalf("got error code %q, want %q", resp.Error.Code, tt.wantErrCode)
				}
			}
		})
	}
}
