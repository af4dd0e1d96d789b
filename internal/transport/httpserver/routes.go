package httpserver

import (
	"net/http"
	"net/netip"
	"time"

	"clinic-app-go/internal/config"
	"clinic-app-go/internal/ratelimit"
	"clinic-app-go/internal/transport/httpserver/handler"
	"clinic-app-go/internal/transport/httpserver/middleware"
	"clinic-app-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, auth *middleware.SessionAuth, limiter ratelimit.Limiter, trustedProxies []netip.Prefix, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.NewRealIP(trustedProxies))
	r.Use(middleware.NewRequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.NewCORS(cfg.CORSAllowedOrigins))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/healthz", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewRateLimit(limiter, log))

		r.Get("/client/{id:[0-9]+}", handlers.APIGetClient)
		r.Get("/clients", handlers.APIListClients)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/", handlers.Index)
		r.Get("/login", handlers.LoginForm)
		r.Post("/login", handlers.Login)
		r.Get("/register", handlers.RegisterForm)
		r.Post("/register", handlers.Register)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)

			r.Get("/logout", handlers.Logout)
			r.Post("/user/delete", handlers.DeleteAccount)
			r.Get("/profile", handlers.Profile)
			r.Get("/dashboard", handlers.Dashboard)

			r.Get("/program/create", handlers.CreateProgramForm)
			r.Post("/program/create", handlers.CreateProgram)
			r.Get("/program/{id:[0-9]+}", handlers.ViewProgram)
			r.Post("/program/{id:[0-9]+}/delete", handlers.DeleteProgram)

			r.Get("/client/register", handlers.RegisterClientForm)
			r.Post("/client/register", handlers.RegisterClient)
			r.Get("/client/{id:[0-9]+}", handlers.ViewClient)
			r.Get("/client/{id:[0-9]+}/edit", handlers.EditClientForm)
			r.Post("/client/{id:[0-9]+}/edit", handlers.EditClient)
			r.Post("/client/{id:[0-9]+}/delete", handlers.DeleteClient)
			r.Get("/client/{id:[0-9]+}/enroll", handlers.EnrollForm)
			r.Post("/client/{id:[0-9]+}/enroll", handlers.Enroll)
			r.Post("/client/{id:[0-9]+}/unenroll/{programID:[0-9]+}", handlers.Unenroll)

			r.Get("/clients", handlers.ListClients)
			r.Post("/clients", handlers.ListClients)
		})
	})

	return r
}
