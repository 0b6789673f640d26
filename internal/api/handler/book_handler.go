package handler

import (
	"net/http"

	"library_lending/internal/api/middleware"
	"library_lending/internal/app/service"
	"library_lending/internal/common"
	"library_lending/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type BookHandler struct {
	bookService *service.BookService
	gate        *middleware.AccessGate
}

func NewBookHandler(bs *service.BookService, gate *middleware.AccessGate) *BookHandler {
	return &BookHandler{bookService: bs, gate: gate}
}

type booksResponse struct {
	Books []model.Book `json:"books"`
}

func (h *BookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/all_books", h.listBooks)

	r.Group(func(admin chi.Router) {
		admin.Use(h.gate.Authenticate)
		admin.Use(h.gate.AdminOnly)
		admin.Post("/books/create", h.createBook)
		admin.Put("/books/update/{bookID}", h.updateBook)
		admin.Delete("/books/delete/{bookID}", h.deleteBook)
	})
}

func (h *BookHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.bookService.ListBooks(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, booksResponse{Books: books})
}

func (h *BookHandler) createBook(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBookRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	book, err := h.bookService.CreateBook(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) updateBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "bookID")
	if err != nil {
		common.RespondWithErr(w, common.ErrBookNotFound)
		return
	}
	var req service.UpdateBookRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	book, err := h.bookService.UpdateBook(r.Context(), bookID, req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, book)
}

func (h *BookHandler) deleteBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "bookID")
	if err != nil {
		common.RespondWithErr(w, common.ErrBookNotFound)
		return
	}
	if err := h.bookService.DeleteBook(r.Context(), bookID); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Book deleted")
}
