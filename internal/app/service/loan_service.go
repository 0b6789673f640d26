package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"library_lending/internal/common"
	"library_lending/internal/domain/model"
	"library_lending/internal/domain/repository"
)

// LoanService owns the loan state machine: OUTSTANDING on creation, RETURNED
// once the borrower hands the book back. Admin edits never touch the status.
type LoanService struct {
	loanRepo repository.LoanRepository
	userRepo repository.UserRepository
	bookRepo repository.BookRepository

	// exclusive rejects a second outstanding loan on the same book.
	exclusive bool
	now       func() time.Time
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	userRepo repository.UserRepository,
	bookRepo repository.BookRepository,
	exclusive bool,
) *LoanService {
	return &LoanService{
		loanRepo:  loanRepo,
		userRepo:  userRepo,
		bookRepo:  bookRepo,
		exclusive: exclusive,
		now:       time.Now,
	}
}

type CreateLoanRequest struct {
	BookID int64 `json:"book_id"`
}

type ReturnLoanRequest struct {
	LoanID int64 `json:"loan_id"`
}

type UpdateLoanRequest struct {
	BookID     *int64  `json:"book_id,omitempty"`
	ReturnDate *string `json:"return_date,omitempty"`
}

func (s *LoanService) CreateLoan(ctx context.Context, userID, bookID int64) (*model.Loan, error) {
	if bookID == 0 {
		return nil, common.ErrMissingField
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, userErr(err)
	}
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, bookErr(err)
	}

	loan := model.NewLoan(userID, book, s.now())
	if err := s.loanRepo.Create(ctx, loan, s.exclusive); err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}
	slog.Info("loan created",
		"loan_id", loan.ID,
		"user_id", userID,
		"book_id", bookID,
		"return_date", model.FormatTimestamp(loan.ReturnDate),
	)
	return loan, nil
}

// ReturnLoan marks the caller's loan returned. Loans owned by someone else are
// reported exactly like missing ones.
func (s *LoanService) ReturnLoan(ctx context.Context, loanID, userID int64) error {
	if loanID == 0 {
		return common.ErrMissingField
	}
	if err := s.loanRepo.MarkReturned(ctx, loanID, userID); err != nil {
		return loanErr(err)
	}
	slog.Info("loan returned", "loan_id", loanID, "user_id", userID)
	return nil
}

// ListLoansForUser does not check that the user exists.
func (s *LoanService) ListLoansForUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	return s.loanRepo.ListByUser(ctx, userID)
}

func (s *LoanService) ListAllLoans(ctx context.Context) ([]model.Loan, error) {
	return s.loanRepo.List(ctx)
}

// AdminUpdateLoan overrides the book reference and/or due date, bypassing the
// loan-type policy. In exclusive mode an outstanding loan cannot be moved onto
// a book that is already out.
func (s *LoanService) AdminUpdateLoan(ctx context.Context, loanID int64, req UpdateLoanRequest) (*model.Loan, error) {
	if _, err := s.loanRepo.FindByID(ctx, loanID); err != nil {
		return nil, loanErr(err)
	}

	upd := model.LoanUpdate{BookID: req.BookID}
	if req.ReturnDate != nil {
		due, err := model.ParseTimestamp(*req.ReturnDate)
		if err != nil {
			return nil, fmt.Errorf("return_date must be %q: %w", model.TimestampLayout, common.ErrInvalidFormat)
		}
		upd.ReturnDate = &due
	}
	if upd.BookID != nil {
		if _, err := s.bookRepo.FindByID(ctx, *upd.BookID); err != nil {
			return nil, bookErr(err)
		}
	}

	loan, err := s.loanRepo.Update(ctx, loanID, upd, s.exclusive)
	if err != nil {
		return nil, loanErr(err)
	}
	slog.Info("loan updated by admin", "loan_id", loanID)
	return loan, nil
}

func loanErr(err error) error {
	if errors.Is(err, common.ErrNotFound) &&
		!errors.Is(err, common.ErrLoanNotFound) &&
		!errors.Is(err, common.ErrBookNotFound) &&
		!errors.Is(err, common.ErrUserNotFound) {
		return common.ErrLoanNotFound
	}
	return err
}
