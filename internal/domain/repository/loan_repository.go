package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"library_lending/internal/common"
	"library_lending/internal/domain/model"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

type LoanRepository interface {
	// Create persists an outstanding loan atomically with a check that the
	// book still exists. With exclusive set it also refuses a book that
	// already has an outstanding loan (common.ErrBookOnLoan).
	Create(ctx context.Context, loan *model.Loan, exclusive bool) error
	FindByID(ctx context.Context, id int64) (*model.Loan, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Loan, error)
	List(ctx context.Context) ([]model.Loan, error)
	// MarkReturned fails with common.ErrNotFound unless the loan exists and
	// belongs to userID.
	MarkReturned(ctx context.Context, id, userID int64) error
	// Update rewrites the book reference and/or due date. Moving an
	// outstanding loan onto a book that is already out fails with
	// common.ErrBookOnLoan when exclusive is set.
	Update(ctx context.Context, id int64, upd model.LoanUpdate, exclusive bool) (*model.Loan, error)
}

var loanColumns = []string{"id", "user_id", "book_id", "loan_date", "return_date", "loan_status"}

type pgLoanRepository struct {
	db *sqlx.DB
}

func NewPgLoanRepository(db *sqlx.DB) LoanRepository {
	return &pgLoanRepository{db: db}
}

func (r *pgLoanRepository) Create(ctx context.Context, loan *model.Loan, exclusive bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgLoanRepository.Create: begin: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	// Lock the book row so it cannot be deleted or double-lent mid-flight.
	if err := lockBook(ctx, tx, "pgLoanRepository.Create", loan.BookID, 0, exclusive); err != nil {
		return err
	}

	query := `INSERT INTO loans (user_id, book_id, loan_date, return_date, loan_status)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err = tx.QueryRowContext(ctx, query, loan.UserID, loan.BookID, loan.LoanDate, loan.ReturnDate, loan.LoanStatus).Scan(&loan.ID)
	if err != nil {
		return loanInsertErr(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgLoanRepository.Create: commit: %w", err)
	}
	return nil
}

func (r *pgLoanRepository) FindByID(ctx context.Context, id int64) (*model.Loan, error) {
	query := `SELECT ` + strings.Join(loanColumns, ", ") + ` FROM loans WHERE id = $1`
	loan := &model.Loan{}
	if err := r.db.GetContext(ctx, loan, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgLoanRepository.FindByID: %w", err)
	}
	return loan, nil
}

func (r *pgLoanRepository) ListByUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	query := `SELECT ` + strings.Join(loanColumns, ", ") + ` FROM loans WHERE user_id = $1 ORDER BY id`
	loans := []model.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query, userID); err != nil {
		return nil, fmt.Errorf("pgLoanRepository.ListByUser: %w", err)
	}
	return loans, nil
}

func (r *pgLoanRepository) List(ctx context.Context) ([]model.Loan, error) {
	query := `SELECT ` + strings.Join(loanColumns, ", ") + ` FROM loans ORDER BY id`
	loans := []model.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query); err != nil {
		return nil, fmt.Errorf("pgLoanRepository.List: %w", err)
	}
	return loans, nil
}

func (r *pgLoanRepository) MarkReturned(ctx context.Context, id, userID int64) error {
	query := `UPDATE loans SET loan_status = $1 WHERE id = $2 AND user_id = $3`
	res, err := r.db.ExecContext(ctx, query, model.LoanReturned, id, userID)
	if err != nil {
		return fmt.Errorf("pgLoanRepository.MarkReturned: %w", err)
	}
	return requireAffected(res, "pgLoanRepository.MarkReturned")
}

func (r *pgLoanRepository) Update(ctx context.Context, id int64, upd model.LoanUpdate, exclusive bool) (*model.Loan, error) {
	if upd.Empty() {
		return r.FindByID(ctx, id)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pgLoanRepository.Update: begin: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	current := &model.Loan{}
	query := `SELECT ` + strings.Join(loanColumns, ", ") + ` FROM loans WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, current, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgLoanRepository.Update: lock loan: %w", err)
	}

	if upd.BookID != nil && *upd.BookID != current.BookID {
		if err := lockBook(ctx, tx, "pgLoanRepository.Update", *upd.BookID, id, exclusive && current.Outstanding()); err != nil {
			return nil, err
		}
	}

	query, args, err := loanUpdateQuery(id, upd)
	if err != nil {
		return nil, fmt.Errorf("pgLoanRepository.Update: build query: %w", err)
	}
	loan := &model.Loan{}
	if err := tx.GetContext(ctx, loan, query, args...); err != nil {
		return nil, loanUpdateErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("pgLoanRepository.Update: commit: %w", err)
	}
	return loan, nil
}

// lockBook takes a row lock on the book. With exclusive set it also refuses
// a book that has an outstanding loan other than exceptLoanID.
func lockBook(ctx context.Context, tx *sqlx.Tx, op string, bookID, exceptLoanID int64, exclusive bool) error {
	var locked int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM books WHERE id = $1 FOR UPDATE`, bookID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrBookNotFound
		}
		return fmt.Errorf("%s: lock book: %w", op, err)
	}
	if !exclusive {
		return nil
	}

	var onLoan bool
	query := `SELECT EXISTS (SELECT 1 FROM loans WHERE book_id = $1 AND loan_status AND id <> $2)`
	if err := tx.QueryRowContext(ctx, query, bookID, exceptLoanID).Scan(&onLoan); err != nil {
		return fmt.Errorf("%s: check outstanding: %w", op, err)
	}
	if onLoan {
		return common.ErrBookOnLoan
	}
	return nil
}

func loanUpdateQuery(id int64, upd model.LoanUpdate) (string, []interface{}, error) {
	record := goqu.Record{}
	if upd.BookID != nil {
		record["book_id"] = *upd.BookID
	}
	if upd.ReturnDate != nil {
		record["return_date"] = upd.ReturnDate.UTC()
	}
	return dialect.Update("loans").
		Set(record).
		Where(goqu.C("id").Eq(id)).
		Returning(columns(loanColumns...)...).
		Prepared(true).
		ToSQL()
}

// loanInsertErr runs after the book row is locked, so a foreign key failure
// can only be the borrower.
func loanInsertErr(err error) error {
	if common.IsForeignKeyViolation(err) {
		return common.ErrUserNotFound
	}
	return fmt.Errorf("pgLoanRepository.Create: insert: %w", err)
}

func loanUpdateErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	if common.IsForeignKeyViolation(err) {
		return common.ErrBookNotFound
	}
	return fmt.Errorf("pgLoanRepository.Update: %w", err)
}
