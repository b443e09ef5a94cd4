package domain

import "time"

// User is a directory record. Password is stored as given: the directory
// simulates a backend and holds no real credentials.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registeredAt"`
	Password     string    `json:"password"`
}

// Identity is the public part of a User.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func (u User) Identity() Identity {
	return Identity{
		ID:           u.ID,
		Email:        u.Email,
		RegisteredAt: u.RegisteredAt,
	}
}
