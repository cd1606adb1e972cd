package model

import "time"

// User is a field-staff or leadership account. Role and team arrive from the
// upstream identity provider and are treated as opaque routing data here.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"` // admin, leader, manager, consultant
	Team      string    `json:"team"` // sales, consulting, practice, ops
	CreatedAt time.Time `json:"created_at"`
}

// Actor is the authenticated identity attached to every pipeline entry
// point. It is supplied by the authorization collaborator and passed
// explicitly rather than carried in ambient request state.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Team string `json:"team"`
}

// elevatedRoles may approve insights they did not author.
var elevatedRoles = map[string]bool{
	"admin":   true,
	"leader":  true,
	"manager": true,
}

// CanApprove reports whether the actor may approve an insight authored by
// authorID: the author themselves, or any elevated role.
func (a Actor) CanApprove(authorID string) bool {
	return a.ID == authorID || elevatedRoles[a.Role]
}
