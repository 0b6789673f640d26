package api

import (
	"net/http"
	"time"

	"library_lending/internal/api/handler"
	"library_lending/internal/api/middleware"
	"library_lending/internal/app/service"
	"library_lending/internal/common"
	"library_lending/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type Services struct {
	Auth  *service.AuthService
	Users *service.UserService
	Books *service.BookService
	Loans *service.LoanService
}

type Options struct {
	Issuer       *security.TokenIssuer
	Gate         *middleware.AccessGate
	LoginLimiter middleware.Limiter // nil disables login throttling
	CORSOrigins  []string
}

func NewRouter(svc Services, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS(opts.CORSOrigins))

	// Verifier only records the token and its error in the context; routes
	// that need a caller wrap themselves in AccessGate.Authenticate.
	r.Use(jwtauth.Verifier(opts.Issuer.JWTAuth()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handler.NewAuthHandler(svc.Auth, svc.Users, opts.Gate, opts.LoginLimiter).RegisterRoutes(r)
	handler.NewUserHandler(svc.Users, svc.Loans, opts.Gate).RegisterRoutes(r)
	handler.NewBookHandler(svc.Books, opts.Gate).RegisterRoutes(r)
	handler.NewLoanHandler(svc.Loans, opts.Gate).RegisterRoutes(r)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
