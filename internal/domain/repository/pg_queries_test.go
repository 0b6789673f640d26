package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"library_lending/internal/common"
	"library_lending/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniqueViolation(constraint string) error {
	return fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: constraint})
}

func foreignKeyViolation(constraint string) error {
	return fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23503", ConstraintName: constraint})
}

func TestUserUpdateQuery(t *testing.T) {
	username, age := "alice2", 31
	query, args, err := userUpdateQuery(7, model.UserUpdate{Username: &username, Age: &age})
	require.NoError(t, err)

	assert.Equal(t, `UPDATE "users" SET "age"=$1,"updated_at"=CURRENT_TIMESTAMP,"username"=$2 WHERE ("id" = $3) `+
		`RETURNING "id", "username", "email", "password_hash", "is_admin", "name", "age", "created_at", "updated_at"`, query)
	assert.Equal(t, []interface{}{int64(31), "alice2", int64(7)}, args)
}

func TestBookUpdateQueryRewritesSlug(t *testing.T) {
	title, status := "Dune!", "lost"
	query, args, err := bookUpdateQuery(3, model.BookUpdate{Title: &title, Status: &status})
	require.NoError(t, err)

	assert.Equal(t, `UPDATE "books" SET "slug"=$1,"status"=$2,"title"=$3,"updated_at"=CURRENT_TIMESTAMP WHERE ("id" = $4) `+
		`RETURNING "id", "genre", "title", "slug", "author", "status", "loan_type", "created_at", "updated_at"`, query)
	assert.Equal(t, []interface{}{"dune", "lost", "Dune!", int64(3)}, args)

	author := "Herbert"
	query, args, err = bookUpdateQuery(3, model.BookUpdate{Author: &author})
	require.NoError(t, err)
	assert.NotContains(t, query, `"slug"`, "slug only follows the title")
	assert.Equal(t, []interface{}{"Herbert", int64(3)}, args)
}

func TestLoanUpdateQuery(t *testing.T) {
	bookID := int64(9)
	due := time.Date(2030, 6, 15, 9, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	query, args, err := loanUpdateQuery(4, model.LoanUpdate{BookID: &bookID, ReturnDate: &due})
	require.NoError(t, err)

	assert.Equal(t, `UPDATE "loans" SET "book_id"=$1,"return_date"=$2 WHERE ("id" = $3) `+
		`RETURNING "id", "user_id", "book_id", "loan_date", "return_date", "loan_status"`, query)
	require.Len(t, args, 3)
	assert.Equal(t, int64(9), args[0])
	assert.Equal(t, due.UTC(), args[1], "due dates are stored in UTC")
	assert.Equal(t, int64(4), args[2])
}

func TestUserErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "username_taken", err: userWriteErr("op", uniqueViolation("users_username_key")), want: common.ErrDuplicateUsername},
		{name: "email_taken", err: userWriteErr("op", uniqueViolation("users_email_key")), want: common.ErrConflict},
		{name: "delete_with_loans", err: userDeleteErr(foreignKeyViolation("loans_user_id_fkey")), want: common.ErrInUse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.want)
		})
	}

	emailTaken := userWriteErr("op", uniqueViolation("users_email_key"))
	assert.NotErrorIs(t, emailTaken, common.ErrDuplicateUsername)
	assert.Contains(t, emailTaken.Error(), "email")

	plain := userWriteErr("pgUserRepository.Update", errors.New("connection reset"))
	assert.NotErrorIs(t, plain, common.ErrConflict)
	assert.Contains(t, plain.Error(), "pgUserRepository.Update")
}

func TestBookErrorMapping(t *testing.T) {
	assert.ErrorIs(t, bookWriteErr("op", uniqueViolation("books_title_key")), errDuplicateTitle)

	other := bookWriteErr("op", uniqueViolation("books_isbn_key"))
	assert.ErrorIs(t, other, common.ErrConflict)
	assert.NotErrorIs(t, other, errDuplicateTitle)

	assert.ErrorIs(t, bookDeleteErr(foreignKeyViolation("loans_book_id_fkey")), common.ErrInUse)
	assert.NotErrorIs(t, bookDeleteErr(errors.New("timeout")), common.ErrInUse)
}

func TestLoanErrorMapping(t *testing.T) {
	assert.ErrorIs(t, loanInsertErr(foreignKeyViolation("loans_user_id_fkey")), common.ErrUserNotFound)
	assert.ErrorIs(t, loanUpdateErr(foreignKeyViolation("loans_book_id_fkey")), common.ErrBookNotFound)
	assert.ErrorIs(t, loanUpdateErr(sql.ErrNoRows), common.ErrNotFound)

	other := loanInsertErr(errors.New("timeout"))
	assert.NotErrorIs(t, other, common.ErrUserNotFound)
	assert.Contains(t, other.Error(), "pgLoanRepository.Create")
}
