package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/accounts-server/internal/api/http/handler"
	"github.com/dtroode/accounts-server/internal/api/http/middleware"
	"github.com/dtroode/accounts-server/internal/api/http/session"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

// Router wires the HTTP endpoints, middleware and static file serving.
type Router struct {
	auth           *handler.Auth
	sessions       model.SessionManager
	cookie         *session.Cookie
	contextManager model.ContextManager
	logger         *logger.Logger
	staticDir      string
}

// New creates a new Router instance.
func New(
	auth *handler.Auth,
	sessions model.SessionManager,
	cookie *session.Cookie,
	contextManager model.ContextManager,
	logger *logger.Logger,
	staticDir string,
) *Router {
	return &Router{
		auth:           auth,
		sessions:       sessions,
		cookie:         cookie,
		contextManager: contextManager,
		logger:         logger,
		staticDir:      staticDir,
	}
}

// Register builds the chi handler with all routes and middleware.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.sessions, r.cookie, r.contextManager, r.logger)

	mux := chi.NewRouter()
	mux.Use(logging.Handle)

	mux.Route("/api", func(api chi.Router) {
		api.Post("/register", r.auth.Register)
		api.Post("/authorize", r.auth.Authorize)
		api.Post("/logout", r.auth.Logout)
		api.Post("/verify", r.auth.VerifyEmail)
		api.Post("/forgot-password", r.auth.ForgotPassword)
		api.Post("/reset", r.auth.ResetPassword)

		api.Group(func(private chi.Router) {
			private.Use(authenticate.Require)
			private.Post("/change-password", r.auth.ChangePassword)
			private.Post("/2fa-register", r.auth.RegisterTwoFactor)
		})

		api.Group(func(optional chi.Router) {
			optional.Use(authenticate.Optional)
			optional.Get("/user", r.auth.CurrentUser)
		})
	})

	if r.staticDir != "" {
		mux.Handle("/*", http.FileServer(http.Dir(r.staticDir)))
	}

	return mux
}
