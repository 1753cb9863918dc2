// Package user defines the user model used throughout the application,
// particularly for authentication and ownership of imported movies.
package user

// User represents a system user. The password hash is a one-way bcrypt
// digest; the raw password never leaves the registration/login handlers.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string

	// Email is unique across the user set.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string
}

// IsAuthenticated reports whether the value describes a resolved,
// logged-in identity.
func (u *User) IsAuthenticated() bool {
	return u != nil && u.ID != ""
}
