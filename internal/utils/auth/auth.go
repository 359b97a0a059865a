package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

const TokenExpire = 3 * time.Hour

const CookieName = "jwt-token"

type Claims struct {
	jwt.RegisteredClaims
	UserID string
	Role   string
}

func buildJWTString(id, role string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExpire)),
			},
			UserID: id,
			Role:   role,
		},
	)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("JWT signing: %w", err)
	}
	return tokenString, nil
}

func Authenticate(id, role string, secret []byte) (http.Cookie, error) {
	jwtString, err := buildJWTString(id, role, secret)
	if err != nil {
		return http.Cookie{}, fmt.Errorf("authentication failed: %w", err)
	}
	return http.Cookie{
		Name:     CookieName,
		Value:    jwtString,
		Path:     "",
		MaxAge:   0,
		HttpOnly: true,
	}, nil
}

func CheckToken(tokenString string, secret []byte) (Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		})
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse token %w", err)
	}
	// a signed token without an exp claim is treated as expired
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return Claims{}, serviceerrs.ErrTokenExpired
	}

	return *claims, nil
}
