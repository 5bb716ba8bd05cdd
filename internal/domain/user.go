package domain

import (
	"sort"
	"time"
)

// Built-in role names.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Role is static reference data assigned to users.
type Role struct {
	ID   int64
	Name string
}

// User is the single identity type: it is what the credential store persists and
// what the authentication gate hands to downstream operations.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Authorities returns the role-derived authority names, sorted.
func (u *User) Authorities() []string {
	if u == nil {
		return nil
	}
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, "ROLE_"+r.Name)
	}
	sort.Strings(out)
	return out
}

// HasRole reports whether the user carries the named role.
func (u *User) HasRole(name string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
