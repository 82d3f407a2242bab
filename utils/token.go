package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// JwtCustomClaim is carried by console session tokens. SessionId keys the stored session.
type JwtCustomClaim struct {
	ID        int    `json:"id"`
	Role      string `json:"role"`
	SessionId string `json:"sid"`
	jwt.StandardClaims
}

var jwtSecret = []byte(getJwtSecret())

func getJwtSecret() string {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return "ShopConsole-Secret"
	}
	return secret
}

func JwtGenerate(sessionId string, userID int, role string, lifespan time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID:        userID,
		Role:      role,
		SessionId: sessionId,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(lifespan).Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	return t.SignedString(jwtSecret)
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return jwtSecret, nil
	})
}
