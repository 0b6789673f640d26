package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"library_lending/internal/common"
	"library_lending/internal/domain/model"
	"library_lending/internal/domain/repository"
)

type BookService struct {
	bookRepo repository.BookRepository
}

func NewBookService(bookRepo repository.BookRepository) *BookService {
	return &BookService{bookRepo: bookRepo}
}

type CreateBookRequest struct {
	Genre    string `json:"genre"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Status   string `json:"status"`
	LoanType *int   `json:"loan_type"`
}

type UpdateBookRequest struct {
	Genre    *string `json:"genre,omitempty"`
	Title    *string `json:"title,omitempty"`
	Author   *string `json:"author,omitempty"`
	Status   *string `json:"status,omitempty"`
	LoanType *int    `json:"loan_type,omitempty"`
}

func (s *BookService) CreateBook(ctx context.Context, req CreateBookRequest) (*model.Book, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Genre == "" || req.Title == "" || req.Author == "" || req.Status == "" || req.LoanType == nil {
		return nil, common.ErrMissingField
	}
	book := &model.Book{
		Genre:    req.Genre,
		Title:    req.Title,
		Slug:     model.BookSlug(req.Title),
		Author:   req.Author,
		Status:   req.Status,
		LoanType: *req.LoanType,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	slog.Info("book created", "book_id", book.ID, "slug", book.Slug)
	return book, nil
}

func (s *BookService) UpdateBook(ctx context.Context, bookID int64, req UpdateBookRequest) (*model.Book, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("title cannot be blank: %w", common.ErrValidation)
	}
	book, err := s.bookRepo.Update(ctx, bookID, model.BookUpdate{
		Genre:    req.Genre,
		Title:    req.Title,
		Author:   req.Author,
		Status:   req.Status,
		LoanType: req.LoanType,
	})
	if err != nil {
		return nil, bookErr(err)
	}
	return book, nil
}

func (s *BookService) DeleteBook(ctx context.Context, bookID int64) error {
	if err := s.bookRepo.Delete(ctx, bookID); err != nil {
		return bookErr(err)
	}
	slog.Info("book deleted", "book_id", bookID)
	return nil
}

func (s *BookService) ListBooks(ctx context.Context) ([]model.Book, error) {
	return s.bookRepo.List(ctx)
}

func bookErr(err error) error {
	if errors.Is(err, common.ErrNotFound) && !errors.Is(err, common.ErrBookNotFound) {
		return common.ErrBookNotFound
	}
	return err
}
