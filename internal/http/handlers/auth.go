package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Umar7799/task4safety/internal/auth"
	"github.com/Umar7799/task4safety/internal/config"
	"github.com/Umar7799/task4safety/internal/domain/user"
	"github.com/Umar7799/task4safety/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, name, email, passwordHash string) (user.User, error)
	TouchLastLogin(ctx context.Context, id string) error
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	jwt        *auth.Manager
	log        *slog.Logger
}

func NewAuthHandler(users UserReader, userWriter UserWriter, jwtManager *auth.Manager, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwtManager,
		log:        log,
	}
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.userWriter.Create(cctx, req.Name, req.Email, hash)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	// registration deliberately does not broadcast; only roster
	// mutations (block/unblock/delete) signal connected clients

	ctx.JSON(http.StatusCreated, gin.H{
		"user": u,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		// same message for "no such user" and "wrong password" below,
		// so the response does not reveal which emails are registered
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	if foundUser.IsBlocked() {
		RespondForbidden(ctx, "account_blocked", "Your account is blocked.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = h.userWriter.TouchLastLogin(cctx, foundUser.ID)

	if err != nil {
		RespondInternal(ctx, "Could not complete login")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(foundUser.ID, foundUser.Email)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.log.InfoContext(ctx.Request.Context(), "user_login", "user_id", foundUser.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"token": accessToken,
		"user":  foundUser,
	})
}
