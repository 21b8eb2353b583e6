package httpapi

import (
	"context"
	"net/http"

	"github.com/MrEthical07/authcore"
	authmw "github.com/MrEthical07/authcore/middleware"
	"github.com/MrEthical07/authcore/permission"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// DefaultBasePath is where the routes are mounted unless overridden.
const DefaultBasePath = "/api/v1/auth"

const maxBodyBytes = 1 << 20

// Check reports whether a dependency can serve requests.
type Check func(ctx context.Context) error

// Options configures NewRouter.
type Options struct {
	BasePath string
	Logger   *zap.Logger
	// Checks back GET /readyz, keyed by dependency name.
	Checks map[string]Check
}

type handler struct {
	engine *authcore.Engine
	logger *zap.Logger
	me     *authcore.RoleChecker
	checks map[string]Check
}

// NewRouter returns a chi router serving the authentication API.
func NewRouter(engine *authcore.Engine, opts Options) http.Handler {
	if opts.BasePath == "" {
		opts.BasePath = DefaultBasePath
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	h := &handler{
		engine: engine,
		logger: opts.Logger,
		me:     authcore.MustRoleChecker(permission.RoleAdmin, permission.RoleUser),
		checks: opts.Checks,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withClientIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", h.ready)

	r.Route(opts.BasePath, func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.Get("/verify/{token}", h.verifyEmail)
		r.Post("/resend-verification", h.resendVerification)
		r.Post("/password-reset-request", h.passwordResetRequest)
		r.Post("/password-reset-confirm/{token}", h.passwordResetConfirm)

		r.With(authmw.RequireRefresh(engine)).Post("/refresh_token", h.refresh)
		r.With(authmw.RequireAccess(engine)).Post("/logout", h.logout)
		r.With(
			authmw.RequireAccess(engine),
			authmw.RequireRole(engine, h.me),
		).Get("/me", h.currentUser)
	})

	return r
}
