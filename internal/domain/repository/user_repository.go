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

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id int64, upd model.UserUpdate) (*model.User, error)
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
	Delete(ctx context.Context, id int64) error
}

var userColumns = []string{"id", "username", "email", "password_hash", "is_admin", "name", "age", "created_at", "updated_at"}

type pgUserRepository struct {
	db *sqlx.DB
}

func NewPgUserRepository(db *sqlx.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, email, password_hash, is_admin, name, age)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, query, user.Username, user.Email, user.HashedPassword, user.IsAdmin, user.Name, user.Age).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return userWriteErr("pgUserRepository.Create", err)
	}
	return nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, "pgUserRepository.FindByID", "id", id)
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "pgUserRepository.FindByUsername", "username", username)
}

func (r *pgUserRepository) findOne(ctx context.Context, op, column string, value interface{}) (*model.User, error) {
	query := `SELECT ` + strings.Join(userColumns, ", ") + ` FROM users WHERE ` + column + ` = $1`
	user := &model.User{}
	if err := r.db.GetContext(ctx, user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (r *pgUserRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + strings.Join(userColumns, ", ") + ` FROM users ORDER BY id`
	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("pgUserRepository.List: %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) Update(ctx context.Context, id int64, upd model.UserUpdate) (*model.User, error) {
	if upd.Empty() {
		return r.FindByID(ctx, id)
	}
	query, args, err := userUpdateQuery(id, upd)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.Update: build query: %w", err)
	}

	user := &model.User{}
	if err := r.db.GetContext(ctx, user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, userWriteErr("pgUserRepository.Update", err)
	}
	return user, nil
}

func (r *pgUserRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	query := `UPDATE users SET is_admin = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, isAdmin, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.SetAdmin: %w", err)
	}
	return requireAffected(res, "pgUserRepository.SetAdmin")
}

func (r *pgUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return userDeleteErr(err)
	}
	return requireAffected(res, "pgUserRepository.Delete")
}

func userUpdateQuery(id int64, upd model.UserUpdate) (string, []interface{}, error) {
	record := goqu.Record{"updated_at": goqu.L("CURRENT_TIMESTAMP")}
	if upd.Username != nil {
		record["username"] = *upd.Username
	}
	if upd.Email != nil {
		record["email"] = *upd.Email
	}
	if upd.Name != nil {
		record["name"] = *upd.Name
	}
	if upd.Age != nil {
		record["age"] = *upd.Age
	}
	return dialect.Update("users").
		Set(record).
		Where(goqu.C("id").Eq(id)).
		Returning(columns(userColumns...)...).
		Prepared(true).
		ToSQL()
}

func userWriteErr(op string, err error) error {
	if common.IsUniqueViolation(err) {
		return userConflict(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func userDeleteErr(err error) error {
	if common.IsForeignKeyViolation(err) {
		return fmt.Errorf("user still has loans on record: %w", common.ErrInUse)
	}
	return fmt.Errorf("pgUserRepository.Delete: %w", err)
}

func userConflict(err error) error {
	if strings.Contains(common.ConstraintName(err), "username") {
		return common.ErrDuplicateUsername
	}
	return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
