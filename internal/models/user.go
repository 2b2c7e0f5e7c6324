package models

// Identity is the authenticated principal bound to a token.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Account is a directory entry: an identity plus its credential.
type Account struct {
	Identity
	PasswordHash string `json:"-"`
	Active       bool   `json:"active"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
