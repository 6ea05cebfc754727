package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authhandler "github.com/deskradar/clients-api/domains/auth/handler"
	clientshandler "github.com/deskradar/clients-api/domains/clients/handler"
	myhandler "github.com/deskradar/clients-api/domains/my/handler"
	signuphandler "github.com/deskradar/clients-api/domains/signup/handler"
	usershandler "github.com/deskradar/clients-api/domains/users/handler"
	webhookshandler "github.com/deskradar/clients-api/domains/webhooks/handler"
	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/auth"
	"github.com/deskradar/clients-api/platform/logging"
	"github.com/deskradar/clients-api/platform/metrics"
	platformmiddleware "github.com/deskradar/clients-api/platform/middleware"
)

type handlers struct {
	auth     *authhandler.Handler
	signup   *signuphandler.Handler
	users    *usershandler.Handler
	clients  *clientshandler.Handler
	my       *myhandler.Handler
	webhooks *webhookshandler.Handler
}

var (
	usersOnly   = map[string]auth.Rule{auth.TypeUser: auth.Always, auth.TypeClient: auth.Never}
	clientsOnly = map[string]auth.Rule{auth.TypeClient: auth.Always, auth.TypeUser: auth.Never}
)

func newRouter(cfg config, logger *zap.Logger, issuer *auth.TokenIssuer, resolver auth.Resolver, h handlers) chi.Router {
	router := chi.NewRouter()

	router.Use(
		platformmiddleware.SecureHeaders,
		platformmiddleware.DefaultCORS(),
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
	)
	router.Use(logging.RequestLogger(logger))
	router.Use(metrics.NewHTTPMetrics("clients-api").Middleware)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Auth"))
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Route("/signup", h.signup.Routes)
	router.Route("/login", h.auth.Routes)
	router.Route("/webhooks", h.webhooks.Routes)

	authenticate := auth.Authenticate(issuer, resolver)

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate, auth.Authorize(usersOnly))
		h.users.Routes(r)
	})
	router.Route("/clients", func(r chi.Router) {
		r.Use(authenticate, auth.Authorize(usersOnly))
		h.clients.Routes(r)
	})
	router.Route("/my", func(r chi.Router) {
		r.Use(authenticate, auth.Authorize(clientsOnly))
		h.my.Routes(r)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperrors.Write(w, r, logger, apperrors.NotFound("route"))
	})

	return router
}

func newServer(cfg config, router chi.Router) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}
}
