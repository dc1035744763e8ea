package model

import "time"

// User represents an application user record as stored in the `users`
// table. The json tags are omitted because these structs are used by
// the repository layer; handlers define separate response types with
// appropriate JSON tags so the password hash can never leak.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address used for login.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name shown on attendee lists.
//  LastName     – family name shown on attendee lists.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
