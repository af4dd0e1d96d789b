package app

import (
	"context"
	"errors"
	"net/http"
	"os"

	"clinic-app-go/internal/config"
	"clinic-app-go/internal/db"
	clinicdomain "clinic-app-go/internal/domain/clinic"
	userdomain "clinic-app-go/internal/domain/user"
	"clinic-app-go/internal/ratelimit"
	clinicrepo "clinic-app-go/internal/repository/postgres/clinic"
	userrepo "clinic-app-go/internal/repository/postgres/user"
	"clinic-app-go/internal/session"
	"clinic-app-go/internal/transport/httpserver"
	"clinic-app-go/internal/transport/httpserver/handler"
	"clinic-app-go/internal/transport/httpserver/middleware"
	"clinic-app-go/internal/transport/httpserver/view"
	"clinic-app-go/pkg/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
	redis      *redis.Client
	log        logger.Logger
}

// Deps are the stateful collaborators of the HTTP handler.
type Deps struct {
	DB       *gorm.DB
	Sessions session.Store
	Limiter  ratelimit.Limiter
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(ctx, log)
	if err != nil {
		return nil, err
	}
	log = logger.NewWithOptions(os.Stdout, logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Env: cfg.Env})

	log.Info("app: initializing database")
	dbConn, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(dbConn); err != nil {
		closeDB(dbConn)
		return nil, err
	}

	a := &App{cfg: cfg, db: dbConn, log: log}

	deps := Deps{DB: dbConn}
	if cfg.Redis.Enabled() {
		log.Info("app: initializing redis stores")
		client, err := db.ConnectRedis(ctx, cfg.Redis, log)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.redis = client
		deps.Sessions = session.NewRedisStore(client)
		deps.Limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	} else {
		log.Info("app: initializing in-memory stores")
		deps.Sessions = session.NewMemoryStore()
		deps.Limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	log.Info("app: initializing router")
	router, err := NewHandler(cfg, deps, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, router)
	return a, nil
}

// NewHandler wires repositories, services and handlers into the router.
func NewHandler(cfg config.Config, deps Deps, log logger.Logger) (http.Handler, error) {
	views, err := view.New()
	if err != nil {
		return nil, err
	}
	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}

	users := userdomain.NewService(userrepo.NewPostgres(deps.DB))
	clinic := clinicdomain.NewService(clinicrepo.NewPostgres(deps.DB))
	sessions := session.NewManager(deps.Sessions, session.Options{
		Secret:       cfg.Session.Secret,
		TTL:          cfg.Session.TTL,
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
	})

	ping := func(ctx context.Context) error {
		return db.Ping(ctx, deps.DB)
	}
	handlers := handler.New(users, clinic, sessions, views, ping, log)
	auth := middleware.NewSessionAuth(sessions, users, log)

	return httpserver.NewRouter(cfg, handlers, auth, deps.Limiter, trustedProxies, log), nil
}

// Logger is configured from the loaded config.
func (a *App) Logger() logger.Logger {
	return a.log
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

func closeDB(conn *gorm.DB) {
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
