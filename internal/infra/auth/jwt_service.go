// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"propledger/config"
	"propledger/internal/domain/entity"
	"propledger/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const clockSkewLeeway = 30 * time.Second

// accessClaims is the wire shape of an access token issued by the auth collaborator.
type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// jwtService validates HMAC-signed access tokens.
type jwtService struct {
	accessSecret []byte
	parser       *jwt.Parser
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	return &jwtService{
		accessSecret: []byte(cfg.SecretKey.Access),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkewLeeway),
		),
	}, nil
}

// ValidateToken verifies the signature and expiry, then extracts the caller identity
// from the "sub" and "role" claims.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	var claims accessClaims
	_, err := s.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.accessSecret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(err, "access token subject is not a user id")
	}

	role, ok := entity.ParseRole(claims.Role)
	if !ok {
		return nil, errors.Errorf("access token carries unknown role %q", claims.Role)
	}

	return &service.Claims{
		UserID:           userID,
		Role:             role,
		RegisteredClaims: claims.RegisteredClaims,
	}, nil
}
