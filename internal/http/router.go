package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/Umar7799/task4safety/internal/auth"
	"github.com/Umar7799/task4safety/internal/broadcast"
	"github.com/Umar7799/task4safety/internal/cache"
	"github.com/Umar7799/task4safety/internal/config"
	"github.com/Umar7799/task4safety/internal/domain/user"
	"github.com/Umar7799/task4safety/internal/http/handlers"
	"github.com/Umar7799/task4safety/internal/http/middlewares"
	"github.com/Umar7799/task4safety/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UsersStore is everything the HTTP layer needs from a user store. Both
// repo/postgres and repo/memory satisfy it, which is what lets the
// integration tests run the full router without a database.
type UsersStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	SetStatus(ctx context.Context, id, status string) (user.User, error)
	Delete(ctx context.Context, id string) error
	TouchLastLogin(ctx context.Context, id string) error
}

// Deps carries the wiring for NewRouter. Everything is an explicit
// dependency; no package-level singletons.
type Deps struct {
	Log      *slog.Logger
	Cfg      config.Config
	Store    UsersStore
	Hub      *broadcast.Hub
	Notifier handlers.RosterNotifier
	Metrics  *observability.Prom
	Gatherer prometheus.Gatherer
	Ping     func() error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" && d.Cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20)) // 1 MiB is plenty for these payloads
	r.Use(otelgin.Middleware("userdir-api"))

	if d.Metrics != nil {
		r.Use(d.Metrics.GinHandleMiddleware())
	}

	// health + metrics

	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// wire up handlers

	jwtManager := auth.NewManager(d.Cfg.JWTSecret, d.Cfg.AccessTTL())
	authHandler := handlers.NewAuthHandler(d.Store, d.Store, jwtManager, d.Log)

	listCache := cache.New(5 * time.Second)
	usersHandler := handlers.NewUsersHandler(d.Store, d.Notifier, listCache, d.Log)

	streamHandler := handlers.NewStreamHandler(d.Hub, d.Metrics)

	authMW := middlewares.NewAuthMiddleware(jwtManager)

	// register/login get a per-IP limiter; everything else is authenticated
	loginLimiter := middlewares.NewRateLimiter(20, time.Minute)

	api := r.Group("/api")

	api.POST("/register", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.SignUp)
	api.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)

	// the event stream itself is unauthenticated; it carries no data
	api.GET("/events", streamHandler.Events)

	protected := api.Group("")
	protected.Use(authMW.RequireAuth())
	protected.Use(authMW.RequireActive(d.Store))

	protected.GET("/users", usersHandler.ListUsers)
	protected.PUT("/users/block/:id", usersHandler.BlockUser)
	protected.PUT("/users/unblock/:id", usersHandler.UnblockUser)
	protected.DELETE("/users/:id", usersHandler.DeleteUser)

	return r
}
