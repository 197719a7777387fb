// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account known to the ledger. Identity and role are supplied by the
// auth collaborator; the role never changes after the user is created.
type User struct {
	ID            uuid.UUID // Same identifier the auth collaborator puts in the token subject.
	Email         string    // Contact email, unique across users.
	Name          string    // Display name.
	Role          Role      // BUILDER, INVESTOR or ADMIN.
	WalletAddress string    // Optional linked on-chain wallet address.
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasLinkedWallet reports whether the user linked an external wallet address.
func (u *User) HasLinkedWallet() bool {
	return u.WalletAddress != ""
}
