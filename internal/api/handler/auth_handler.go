package handler

import (
	"net/http"

	"library_lending/internal/api/middleware"
	"library_lending/internal/app/service"
	"library_lending/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	gate        *middleware.AccessGate
	// loginLimiter is nil when throttling is disabled.
	loginLimiter middleware.Limiter
}

func NewAuthHandler(
	authService *service.AuthService,
	userService *service.UserService,
	gate *middleware.AccessGate,
	loginLimiter middleware.Limiter,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		gate:         gate,
		loginLimiter: loginLimiter,
	}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)

	r.Group(func(login chi.Router) {
		if h.loginLimiter != nil {
			login.Use(middleware.RateLimit(h.loginLimiter, "Too many login attempts, try again later"))
		}
		login.Post("/user/login", h.login)
	})

	r.Group(func(authed chi.Router) {
		authed.Use(h.gate.Authenticate)
		authed.Post("/user/logout", h.logout)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	if err := h.authService.Logout(r.Context(), identity); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Logged out")
}
