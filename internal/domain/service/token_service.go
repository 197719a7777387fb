package service

import (
	"propledger/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the identity supplied by the auth collaborator on every call.
type Claims struct {
	UserID uuid.UUID
	Role   entity.Role
	jwt.RegisteredClaims
}

// TokenService validates access tokens issued by the auth collaborator.
// Issuing tokens is outside this service.
type TokenService interface {
	ValidateToken(tokenString string) (*Claims, error)
}
