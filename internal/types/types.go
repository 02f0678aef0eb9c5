// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, services and storage backends all import types without
// depending on each other.
package types

// Student is a student record as stored and as sent over the wire.
//
// The id is assigned by the store on create and never changes. There are
// deliberately no validate tags: the API accepts empty strings and a zero
// age, only the presence of a payload is checked.
type Student struct {
	ID      int64  `json:"id"      db:"id"`
	Name    string `json:"name"    db:"name"`
	Email   string `json:"email"   db:"email"`
	Course  string `json:"course"  db:"course"`
	Address string `json:"address" db:"address"`
	Age     int    `json:"age"     db:"age"`
}

// User is an account that may log in. Users are created out of band
// (see the seed-user command); the API only reads them.
type User struct {
	ID       int64  `json:"id"       db:"id"`
	Username string `json:"username" db:"username"`
	Password string `json:"-"        db:"password"`
}

// StudentList is the response body of GET /api/students.
type StudentList struct {
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
	Students   []Student `json:"students"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginUser is the public part of a user echoed back after login.
type LoginUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	User  LoginUser `json:"user"`
	Token string    `json:"utoken"`
}
