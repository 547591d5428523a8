package model

import "github.com/google/uuid"

// UserContext identifies the user every store call acts for.
type UserContext struct {
	UserID string
}

func (u UserContext) Valid() bool { return u.UserID != "" }

func NewID() string { return uuid.NewString() }
