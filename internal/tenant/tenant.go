// Package tenant carries the resolved company/branch/actor scope of a
// request. Every service and repository call takes a Context value — tenant
// scope is never stored in package state, and a query without it cannot be
// written by accident.
package tenant

import "github.com/google/uuid"

// Context identifies who operates on behalf of which company branch.
type Context struct {
	CompanyID uuid.UUID
	BranchID  uuid.UUID
	UserID    uuid.UUID
}

// Valid reports whether the scope is fully resolved.
func (t Context) Valid() bool {
	return t.CompanyID != uuid.Nil && t.BranchID != uuid.Nil && t.UserID != uuid.Nil
}
