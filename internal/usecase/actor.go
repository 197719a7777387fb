// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"propledger/internal/domain/entity"

	"github.com/google/uuid"
)

// Actor is the caller identity supplied by the auth collaborator. It is trusted as given.
type Actor struct {
	UserID uuid.UUID
	Role   entity.Role
}

// Can reports whether the actor's role permits the action.
func (a Actor) Can(action entity.Action) bool {
	return entity.Authorize(a.Role, action)
}
