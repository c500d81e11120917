// Package users is the user CRUD domain served by the demo server.
package users

import (
	"errors"
	"fmt"
)

// User is the user record exchanged over HTTP. Email and Password are
// masked whenever a User is logged.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" log:"sensitive,first=3,last=2"`
	Age       int    `json:"age"`
	Password  string `json:"password,omitempty" log:"sensitive"`
}

// ErrNotFound is matched by every *NotFoundError.
var ErrNotFound = errors.New("users: not found")

// NotFoundError reports a missing user id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("User not found with id: %d", e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
