package services

import (
	"errors"
	"fmt"

	"main/utils"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidUserToken = errors.New("invalid user token")

// IdentityVerifier validates end-user bearer tokens issued by the
// external identity service and yields the stable user ID. Kept as an
// interface so the delegation can be swapped for a remote introspection
// call without touching the middleware.
type IdentityVerifier interface {
	VerifyUserToken(tokenString string) (string, error)
}

// Identity is the global verifier, set during startup.
var Identity IdentityVerifier

func InitIdentity() {
	Identity = &JWTIdentityVerifier{Secret: []byte(utils.UserJWTSecret)}
}

// JWTIdentityVerifier validates user tokens locally against the identity
// service's shared HMAC secret.
type JWTIdentityVerifier struct {
	Secret []byte
}

func (v *JWTIdentityVerifier) VerifyUserToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidUserToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidUserToken
	}

	// A helpdesk token is never a user token, even if both secrets match
	// in a misconfigured deployment.
	if role, ok := claims["role"].(string); ok && role == HelpdeskRole {
		return "", ErrInvalidUserToken
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", ErrInvalidUserToken
	}

	return userID, nil
}
