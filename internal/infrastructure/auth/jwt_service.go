package auth

import (
	"errors"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTServiceImpl implements domain.TokenService. It signs the cookie that
// ties a browser to its dashboard workspace.
type JWTServiceImpl struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(secretKey string, issuer string, ttl time.Duration) *JWTServiceImpl {
	return &JWTServiceImpl{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       ttl,
		now:       time.Now,
	}
}

var _ domain.TokenService = (*JWTServiceImpl)(nil)

// IssueClientToken implements domain.TokenService
func (j *JWTServiceImpl) IssueClientToken(clientID string) (string, error) {
	if clientID == "" {
		return "", domain.ErrTokenMalformed
	}
	now := j.now()
	claims := jwt.MapClaims{
		"client_id": clientID,
		"iss":       j.issuer,
		"iat":       now.Unix(),
		"exp":       now.Add(j.ttl).Unix(),
		"jti":       uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// ValidateClientToken implements domain.TokenService
func (j *JWTServiceImpl) ValidateClientToken(tokenString string) (*domain.ClientClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenMalformed
		}
		return j.secretKey, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithTimeFunc(j.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	clientID, ok := claims["client_id"].(string)
	if !ok || clientID == "" {
		return nil, domain.ErrTokenMalformed
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	return &domain.ClientClaims{
		ClientID:  clientID,
		IssuedAt:  int64(iat),
		ExpiresAt: int64(exp),
	}, nil
}
