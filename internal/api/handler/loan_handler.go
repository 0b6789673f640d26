package handler

import (
	"net/http"

	"library_lending/internal/api/middleware"
	"library_lending/internal/app/service"
	"library_lending/internal/common"
	"library_lending/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type LoanHandler struct {
	loanService *service.LoanService
	gate        *middleware.AccessGate
}

func NewLoanHandler(ls *service.LoanService, gate *middleware.AccessGate) *LoanHandler {
	return &LoanHandler{loanService: ls, gate: gate}
}

type loansResponse struct {
	Loans []model.Loan `json:"loans"`
}

type loanResponse struct {
	Loan *model.Loan `json:"loan"`
}

func (h *LoanHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(h.gate.Authenticate)
		authed.Post("/new_loan", h.createLoan)
		authed.Put("/return_loan", h.returnLoan)

		authed.Group(func(admin chi.Router) {
			admin.Use(h.gate.AdminOnly)
			admin.Get("/loans", h.listLoans)
			admin.Put("/loans/update/{loanID}", h.updateLoan)
		})
	})
}

func (h *LoanHandler) createLoan(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var req service.CreateLoanRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	loan, err := h.loanService.CreateLoan(r.Context(), userID, req.BookID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, loanResponse{Loan: loan})
}

func (h *LoanHandler) returnLoan(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	var req service.ReturnLoanRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	if err := h.loanService.ReturnLoan(r.Context(), req.LoanID, userID); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Loan returned")
}

func (h *LoanHandler) listLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loanService.ListAllLoans(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, loansResponse{Loans: loans})
}

func (h *LoanHandler) updateLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanID")
	if err != nil {
		common.RespondWithErr(w, common.ErrLoanNotFound)
		return
	}
	var req service.UpdateLoanRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	loan, err := h.loanService.AdminUpdateLoan(r.Context(), loanID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, loanResponse{Loan: loan})
}
