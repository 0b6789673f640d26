package model

import (
	"time"

	"github.com/gosimple/slug"
)

type Book struct {
	ID        int64     `json:"id" db:"id"`
	Genre     string    `json:"genre" db:"genre"`
	Title     string    `json:"title" db:"title"`
	Slug      string    `json:"slug" db:"slug"`
	Author    string    `json:"author" db:"author"`
	Status    string    `json:"status" db:"status"` // free-text availability label
	LoanType  int       `json:"loan_type" db:"loan_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// fallbackSlug is used for titles with nothing slug-safe in them ("!!!").
const fallbackSlug = "book"

// BookSlug derives the catalog slug for a title. Slugs are not unique:
// distinct titles such as "Dune" and "Dune!" share one.
func BookSlug(title string) string {
	if s := slug.Make(title); s != "" {
		return s
	}
	return fallbackSlug
}

// BookUpdate is a partial update; nil fields are left unchanged.
type BookUpdate struct {
	Genre    *string
	Title    *string
	Author   *string
	Status   *string
	LoanType *int
}

func (u BookUpdate) Empty() bool {
	return u.Genre == nil && u.Title == nil && u.Author == nil && u.Status == nil && u.LoanType == nil
}

// Apply copies the set fields onto book, refreshing the slug when the title changes.
func (u BookUpdate) Apply(book *Book) {
	if u.Genre != nil {
		book.Genre = *u.Genre
	}
	if u.Title != nil {
		book.Title = *u.Title
		book.Slug = BookSlug(*u.Title)
	}
	if u.Author != nil {
		book.Author = *u.Author
	}
	if u.Status != nil {
		book.Status = *u.Status
	}
	if u.LoanType != nil {
		book.LoanType = *u.LoanType
	}
}
