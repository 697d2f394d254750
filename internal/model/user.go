package model

import "time"

// User represents an account record as stored in the `users` table.
// Each user logs in with its email and owns zero or more expenses.
//
// Fields:
//  ID           – primary key identifier, assigned by the store.
//  Name         – display name shown next to owned expenses.
//  Email        – unique, lower-cased email used as the login key.
//  PasswordHash – bcrypt hash; never serialized.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last profile update.
type User struct {
	ID           uint64    `json:"id"`         // users.id
	Name         string    `json:"name"`       // users.name
	Email        string    `json:"email"`      // users.email
	PasswordHash string    `json:"-"`          // users.password_hash
	CreatedAt    time.Time `json:"created_at"` // users.created_at
	UpdatedAt    time.Time `json:"updated_at"` // users.updated_at
}

// Summary returns the reduced view of the user that is embedded in
// expense projections.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name}
}

// UserSummary is the owner reference carried by every expense.
type UserSummary struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// UserPatch carries the optional fields of a profile update.  A nil
// pointer means "not provided"; blank strings are treated the same way.
type UserPatch struct {
	Name  *string
	Email *string
}
