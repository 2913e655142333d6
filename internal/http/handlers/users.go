package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Umar7799/task4safety/internal/actorctx"
	"github.com/Umar7799/task4safety/internal/cache"
	"github.com/Umar7799/task4safety/internal/config"
	"github.com/Umar7799/task4safety/internal/domain/user"
	"github.com/Umar7799/task4safety/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const listCacheKey = "users:list"

type UsersStore interface {
	List(ctx context.Context) ([]user.User, error)
	SetStatus(ctx context.Context, id, status string) (user.User, error)
	Delete(ctx context.Context, id string) error
}

// RosterNotifier is the broadcast side the mutating handlers talk to.
type RosterNotifier interface {
	RosterChanged(ctx context.Context, action string)
}

type UsersHandler struct {
	store    UsersStore
	notifier RosterNotifier
	cache    *cache.Cache
	log      *slog.Logger
}

func NewUsersHandler(store UsersStore, notifier RosterNotifier, c *cache.Cache, log *slog.Logger) *UsersHandler {
	return &UsersHandler{
		store:    store,
		notifier: notifier,
		cache:    c,
		log:      log,
	}
}

type listResponse struct {
	Items []user.User `json:"items"`
	Count int         `json:"count"`
}

// ListUsers returns every user, most recently logged in first. The
// password hash never serializes (json:"-" on the domain type).
func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	if h.cache != nil {
		if cached, ok := h.cache.Get(listCacheKey); ok {
			if resp, ok := cached.(listResponse); ok {
				RespondJSONWithETag(ctx, http.StatusOK, resp)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, err := h.store.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	resp := listResponse{
		Items: users,
		Count: len(users),
	}

	if h.cache != nil {
		h.cache.Set(listCacheKey, resp)
	}

	RespondJSONWithETag(ctx, http.StatusOK, resp)
}

func (h *UsersHandler) BlockUser(ctx *gin.Context) {
	h.setStatus(ctx, user.StatusBlocked, "block")
}

func (h *UsersHandler) UnblockUser(ctx *gin.Context) {
	h.setStatus(ctx, user.StatusActive, "unblock")
}

// setStatus is the shared block/unblock path. Idempotent: setting a
// status the row already has still succeeds.
func (h *UsersHandler) setStatus(ctx *gin.Context, status, action string) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.store.SetStatus(cctx, id, status)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not update user status")
		return
	}

	h.afterMutation(ctx, action, u.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"user": u,
	})
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.store.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not delete user")
		return
	}

	h.afterMutation(ctx, "delete", id)

	ctx.JSON(http.StatusOK, gin.H{})
}

// afterMutation clears the list cache and pushes the change signal so
// every open session re-fetches its view.
func (h *UsersHandler) afterMutation(ctx *gin.Context, action, targetID string) {
	if h.cache != nil {
		h.cache.Delete(listCacheKey)
	}

	nctx := ctx.Request.Context()

	if actorID, ok := middlewares.UserIDFromContext(ctx); ok {
		nctx = actorctx.WithUserID(nctx, actorID)
		h.log.InfoContext(nctx, "roster_mutation", "action", action, "actor_id", actorID, "target_id", targetID)
	}

	h.notifier.RosterChanged(nctx, action)
}
