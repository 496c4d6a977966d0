package auth

import "fmt"

// Role is the closed set of access levels a user can hold.
type Role string

const (
	// RoleAdmin grants access to every view including finance and settings.
	RoleAdmin Role = "admin"
	// RoleStaff grants access to day-to-day clinical views only.
	RoleStaff Role = "staff"
	// RolePending marks a registered account awaiting admin approval.
	// Pending holders cannot access any protected view.
	RolePending Role = "pending"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleStaff, RolePending:
		return Role(raw), nil
	}
	return "", fmt.Errorf("auth: unknown role %q", raw)
}

// Known reports whether the role belongs to the closed set.
func (r Role) Known() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// CanAccess reports whether the role may enter protected views at all.
func (r Role) CanAccess() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Home returns the dashboard route for the role. Roles that cannot access
// protected views are sent to the login page.
func (r Role) Home() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleStaff:
		return "/staff"
	}
	return "/login"
}
