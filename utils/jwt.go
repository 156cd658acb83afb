package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "mf-tracker"
	tokenLifetime = 24 * time.Hour
	devSecret     = "mf-tracker-dev-secret"
)

var JWTSecret = []byte(devSecret)

// InitJWT sets the signing secret. An empty secret keeps the development one.
func InitJWT(secret string) {
	if secret == "" {
		if ErrorLogger != nil {
			ErrorLogger.Warn("JWT_SECRET not set, using development secret")
		}
		JWTSecret = []byte(devSecret)
		return
	}
	JWTSecret = []byte(secret)
}

type CustomClaims struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

func GenerateToken(userID uint, email string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

func ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
