package jwtutil

import (
	"incubation-service/internal/model"
	"incubation-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var secret = []byte("incubationsecretkey")

// Initialize sets the signing key from configuration
func Initialize(cfg *config.JWTConfig) {
	if cfg.SigningKey != "" {
		secret = []byte(cfg.SigningKey)
	}
}

// UserClaims represents the JWT claims the service consumes. Tokens
// are issued by the external identity collaborator; this service only
// validates and reads them.
type UserClaims struct {
	Email  string     `json:"email"`
	UserID uint       `json:"user_id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
