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

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, id int64, upd model.BookUpdate) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

var bookColumns = []string{"id", "genre", "title", "slug", "author", "status", "loan_type", "created_at", "updated_at"}

var errDuplicateTitle = fmt.Errorf("book with this title already exists: %w", common.ErrConflict)

type pgBookRepository struct {
	db *sqlx.DB
}

func NewPgBookRepository(db *sqlx.DB) BookRepository {
	return &pgBookRepository{db: db}
}

func (r *pgBookRepository) Create(ctx context.Context, b *model.Book) error {
	query := `INSERT INTO books (genre, title, slug, author, status, loan_type)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, query, b.Genre, b.Title, b.Slug, b.Author, b.Status, b.LoanType).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return bookWriteErr("pgBookRepository.Create", err)
	}
	return nil
}

func (r *pgBookRepository) FindByID(ctx context.Context, id int64) (*model.Book, error) {
	query := `SELECT ` + strings.Join(bookColumns, ", ") + ` FROM books WHERE id = $1`
	book := &model.Book{}
	if err := r.db.GetContext(ctx, book, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgBookRepository.FindByID: %w", err)
	}
	return book, nil
}

func (r *pgBookRepository) List(ctx context.Context) ([]model.Book, error) {
	query := `SELECT ` + strings.Join(bookColumns, ", ") + ` FROM books ORDER BY id`
	books := []model.Book{}
	if err := r.db.SelectContext(ctx, &books, query); err != nil {
		return nil, fmt.Errorf("pgBookRepository.List: %w", err)
	}
	return books, nil
}

func (r *pgBookRepository) Update(ctx context.Context, id int64, upd model.BookUpdate) (*model.Book, error) {
	if upd.Empty() {
		return r.FindByID(ctx, id)
	}
	query, args, err := bookUpdateQuery(id, upd)
	if err != nil {
		return nil, fmt.Errorf("pgBookRepository.Update: build query: %w", err)
	}

	book := &model.Book{}
	if err := r.db.GetContext(ctx, book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, bookWriteErr("pgBookRepository.Update", err)
	}
	return book, nil
}

func (r *pgBookRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return bookDeleteErr(err)
	}
	return requireAffected(res, "pgBookRepository.Delete")
}

// bookUpdateQuery builds a partial UPDATE ... RETURNING for the set fields.
// A new title also rewrites the slug.
func bookUpdateQuery(id int64, upd model.BookUpdate) (string, []interface{}, error) {
	record := goqu.Record{"updated_at": goqu.L("CURRENT_TIMESTAMP")}
	if upd.Genre != nil {
		record["genre"] = *upd.Genre
	}
	if upd.Title != nil {
		record["title"] = *upd.Title
		record["slug"] = model.BookSlug(*upd.Title)
	}
	if upd.Author != nil {
		record["author"] = *upd.Author
	}
	if upd.Status != nil {
		record["status"] = *upd.Status
	}
	if upd.LoanType != nil {
		record["loan_type"] = *upd.LoanType
	}
	return dialect.Update("books").
		Set(record).
		Where(goqu.C("id").Eq(id)).
		Returning(columns(bookColumns...)...).
		Prepared(true).
		ToSQL()
}

// bookWriteErr maps insert/update failures. Only the title is unique.
func bookWriteErr(op string, err error) error {
	if common.IsUniqueViolation(err) {
		if strings.Contains(common.ConstraintName(err), "title") {
			return errDuplicateTitle
		}
		return fmt.Errorf("book conflicts with an existing record: %w", common.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func bookDeleteErr(err error) error {
	if common.IsForeignKeyViolation(err) {
		return fmt.Errorf("book still has loans on record: %w", common.ErrInUse)
	}
	return fmt.Errorf("pgBookRepository.Delete: %w", err)
}
