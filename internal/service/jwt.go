package service

import (
	"errors"
	"time"

	"sniperok/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidUser  = errors.New("invalid user id")
)

// IdentityClaims is what the identity provider puts into a session token.
type IdentityClaims struct {
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	IsAnonymous bool   `json:"is_anonymous"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies HS256 session tokens. The subject is the user uuid.
type JWTService struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTService{secret: []byte(secret), ttl: ttl}
}

func (s *JWTService) Generate(id domain.Identity) (string, error) {
	if _, err := uuid.Parse(id.UserID); err != nil {
		return "", ErrInvalidUser
	}

	now := time.Now()
	claims := IdentityClaims{
		Username:    id.Username,
		Email:       id.Email,
		IsAnonymous: id.IsAnonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates the token and returns the identity it carries.
func (s *JWTService) Parse(tokenString string) (domain.Identity, error) {
	var claims IdentityClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, ErrInvalidUser
	}

	return domain.Identity{
		UserID:      userID.String(),
		Username:    claims.Username,
		Email:       claims.Email,
		IsAnonymous: claims.IsAnonymous,
	}, nil
}

// PeekIdentity reads the identity from a token without checking its
// signature. Clients use it to show who they are; servers must use Parse.
func PeekIdentity(tokenString string) (domain.Identity, error) {
	var claims IdentityClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return domain.Identity{}, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return domain.Identity{}, ErrInvalidUser
	}
	return domain.Identity{
		UserID:      claims.Subject,
		Username:    claims.Username,
		Email:       claims.Email,
		IsAnonymous: claims.IsAnonymous,
	}, nil
}
