package auth

import (
	"testing"
	"time"

	"propledger/config"
	"propledger/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_access_secret_key_very_long_for_testing"

func newTestService(t *testing.T) *jwtService {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Access = testSecret

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	return svc.(*jwtService)
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.Claims) string {
	t.Helper()

	var key any = []byte(secret)
	if method == jwt.SigningMethodNone {
		key = jwt.UnsafeAllowNoneSignatureType
	}

	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)

	return token
}

func validClaims(sub, role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	}
}

func TestJWTService_ValidateToken(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.New()

	token := signToken(t, jwt.SigningMethodHS256, testSecret, validClaims(userID.String(), "investor"))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, entity.RoleInvestor, claims.Role)
}

func TestJWTService_RejectsBadTokens(t *testing.T) {
	svc := newTestService(t)
	userID := uuid.New().String()

	expired := validClaims(userID, "ADMIN")
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	noExpiry := validClaims(userID, "ADMIN")
	delete(noExpiry, "exp")

	tests := []struct {
		name    string
		token   string
		wantErr string
	}{
		{name: "not a jwt", token: "clearly-not-a-jwt-token-format", wantErr: "invalid access token"},
		{name: "wrong secret", token: signToken(t, jwt.SigningMethodHS256, "other-secret", validClaims(userID, "ADMIN")), wantErr: "invalid access token"},
		{name: "expired", token: signToken(t, jwt.SigningMethodHS256, testSecret, expired), wantErr: "invalid access token"},
		{name: "missing expiry", token: signToken(t, jwt.SigningMethodHS256, testSecret, noExpiry), wantErr: "invalid access token"},
		{name: "subject not a uuid", token: signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("alice", "ADMIN")), wantErr: "subject is not a user id"},
		{name: "unknown role", token: signToken(t, jwt.SigningMethodHS256, testSecret, validClaims(userID, "SUPERUSER")), wantErr: "unknown role"},
		{name: "unsigned", token: signToken(t, jwt.SigningMethodNone, "", validClaims(userID, "ADMIN")), wantErr: "invalid access token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			assert.Nil(t, claims)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(&config.Config{})
	assert.Error(t, err)
}
