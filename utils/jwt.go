package utils

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"classhub/config"
	"classhub/models"
)

// SessionClaims is the payload of a session token. TokenVersion must match
// the user row for the token to validate: bumping the column ends every
// previously issued session.
type SessionClaims struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion uint   `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateSessionID builds the legacy session identifier carried in the
// token's ID claim: base36 millis, a hyphen, 8 base36 chars of randomness.
func GenerateSessionID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	random := strconv.FormatUint(binary.BigEndian.Uint64(buf), 36)
	if len(random) > 8 {
		random = random[:8]
	}
	for len(random) < 8 {
		random = "0" + random
	}
	millis := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return millis + "-" + random, nil
}

// GenerateSessionToken signs a session token for the user with the
// configured TTL.
func GenerateSessionToken(user *models.User) (string, error) {
	sessionID, err := GenerateSessionID()
	if err != nil {
		return "", err
	}

	claims := &SessionClaims{
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(config.AppConfig.SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ParseSessionToken verifies the signature and expiry and returns the claims.
func ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
