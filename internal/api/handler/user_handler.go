package handler

import (
	"net/http"

	"library_lending/internal/api/middleware"
	"library_lending/internal/app/service"
	"library_lending/internal/common"
	"library_lending/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
	loanService *service.LoanService
	gate        *middleware.AccessGate
}

func NewUserHandler(us *service.UserService, ls *service.LoanService, gate *middleware.AccessGate) *UserHandler {
	return &UserHandler{userService: us, loanService: ls, gate: gate}
}

type usersResponse struct {
	Users []model.User `json:"users"`
}

type elevateResponse struct {
	IsAdmin bool `json:"is_admin"`
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(h.gate.Authenticate)
		authed.Get("/user", h.getProfile)
		authed.Put("/user", h.updateProfile)
		authed.Put("/user/elevate", h.elevate)
		authed.Get("/user/loans", h.listMyLoans)

		authed.Group(func(admin chi.Router) {
			admin.Use(h.gate.AdminOnly)
			admin.Get("/users", h.listUsers)
			admin.Delete("/users/delete/{userID}", h.deleteUser)
			admin.Put("/users/update/{userID}", h.adminUpdateUser)
		})
	})
}

func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	h.update(w, r, userID)
}

func (h *UserHandler) adminUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		common.RespondWithErr(w, common.ErrUserNotFound)
		return
	}
	h.update(w, r, userID)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request, userID int64) {
	var req service.UpdateUserRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	user, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) elevate(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var req service.ElevateRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	if req.AccessKey == "" {
		common.RespondWithErr(w, common.ErrMissingField)
		return
	}
	granted, err := h.userService.Elevate(r.Context(), userID, req.AccessKey)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, elevateResponse{IsAdmin: granted})
}

func (h *UserHandler) listMyLoans(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	loans, err := h.loanService.ListLoansForUser(r.Context(), userID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	if len(loans) == 0 {
		common.RespondWithError(w, http.StatusNotFound, "No loans found")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, loansResponse{Loans: loans})
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, usersResponse{Users: users})
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		common.RespondWithErr(w, common.ErrUserNotFound)
		return
	}
	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "User deleted")
}
