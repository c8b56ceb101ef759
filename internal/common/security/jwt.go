package security

import (
	"errors"
	"fmt"
	"time"

	"quizgen/internal/common"
	"quizgen/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenAuth verifies access tokens on protected routes via jwtauth.Verifier.
var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTAccessKey, nil)
}

// GenerateAccessToken signs a short-lived access token. The jti is returned
// so the issuer can key its audit record by it.
func GenerateAccessToken(userID, username, role string) (tokenString, jti string, err error) {
	jti = uuid.NewString()
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"role":     role,
		"jti":      jti,
		"iat":      now.Unix(),
		"exp":      now.Add(config.AppConfig.JWTAccessExp).Unix(),
	}
	_, tokenString, err = TokenAuth.Encode(claims)
	return tokenString, jti, err
}

// GenerateRefreshToken signs a long-lived refresh token with the dedicated
// refresh secret. It carries only the subject; the access claim set is
// re-derived from the store when the token is redeemed.
func GenerateRefreshToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.NewString(),
		"iat":     now.Unix(),
		"exp":     now.Add(config.AppConfig.JWTRefreshExp).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.AppConfig.JWTRefreshKey)
}

// ParseRefreshToken verifies a refresh token and returns its claims.
// Failure modes map onto the common taxonomy: expired, malformed and
// bad-signature tokens each carry a distinct cause.
func ParseRefreshToken(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return config.AppConfig.JWTRefreshKey, nil
	})
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: malformed refresh token", common.ErrInvalidToken)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, fmt.Errorf("%w: refresh token signature mismatch", common.ErrInvalidToken)
	default:
		return nil, fmt.Errorf("%w: refresh token rejected", common.ErrInvalidToken)
	}
}

// Helper functions to extract claims, can be used in middleware or services
func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
