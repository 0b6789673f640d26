package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookUpdateApplyRefreshesSlug(t *testing.T) {
	book := &Book{Genre: "Fiction", Title: "Dune", Slug: BookSlug("Dune"), Author: "Herbert", Status: "available", LoanType: 2}
	title := "Dune Messiah"
	status := "on loan"

	BookUpdate{Title: &title, Status: &status}.Apply(book)

	assert.Equal(t, "Dune Messiah", book.Title)
	assert.Equal(t, "dune-messiah", book.Slug)
	assert.Equal(t, "on loan", book.Status)
	assert.Equal(t, "Fiction", book.Genre)
	assert.Equal(t, 2, book.LoanType)
}

func TestUserUpdateApplyLeavesNilFields(t *testing.T) {
	user := &User{Username: "alice", Email: "alice@example.com", Name: "Alice", Age: 30}
	age := 31

	UserUpdate{Age: &age}.Apply(user)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, 31, user.Age)
	assert.False(t, UserUpdate{Age: &age}.Empty())
	assert.True(t, UserUpdate{}.Empty())
}

func TestBookSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "The Left Hand of Darkness", want: "the-left-hand-of-darkness"},
		{title: "Dune", want: "dune"},
		{title: "Dune!", want: "dune"},
		{title: "C++", want: "c"},
		{title: "!!!", want: "book"},
		{title: "", want: "book"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, BookSlug(tt.title))
		})
	}
}
