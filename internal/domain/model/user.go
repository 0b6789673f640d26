package model

import (
	"time"
)

type User struct {
	ID             int64     `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"password_hash"` // Not exposed
	IsAdmin        bool      `json:"is_admin" db:"is_admin"`
	Name           string    `json:"name" db:"name"`
	Age            int       `json:"age" db:"age"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Username *string
	Email    *string
	Name     *string
	Age      *int
}

func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.Name == nil && u.Age == nil
}

// Apply copies the set fields onto user.
func (u UserUpdate) Apply(user *User) {
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Age != nil {
		user.Age = *u.Age
	}
}
