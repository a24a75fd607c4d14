package services

import (
	"errors"
	"fmt"
	"time"

	"main/utils"

	"github.com/golang-jwt/jwt/v5"
)

// HelpdeskRole is the role claim carried by every response-desk token.
const HelpdeskRole = "helpdesk"

var ErrInvalidHelpdeskToken = errors.New("invalid helpdesk token")

// GenerateHelpdeskToken signs a short-lived token for a logged-in
// operator. The desk shares one credential, but each login carries the
// operator name in sub so broadcasts record who sent them.
func GenerateHelpdeskToken(operator string) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":  operator,
		"role": HelpdeskRole,
		"iss":  utils.TokenIssuer,
		"iat":  now.Unix(),
		"exp":  now.Add(utils.HelpdeskTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(utils.JWTSecretKey))
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

// ValidateHelpdeskToken checks a bearer token against the helpdesk
// signing key and role claim, returning the operator name. Every failure
// mode collapses into ErrInvalidHelpdeskToken so callers cannot tell a
// forged token from an expired one apart.
func ValidateHelpdeskToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(utils.JWTSecretKey), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidHelpdeskToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidHelpdeskToken
	}

	if role, ok := claims["role"].(string); !ok || role != HelpdeskRole {
		return "", ErrInvalidHelpdeskToken
	}

	if iss, ok := claims["iss"].(string); !ok || iss != utils.TokenIssuer {
		return "", ErrInvalidHelpdeskToken
	}

	operator, _ := claims["sub"].(string)
	if operator == "" {
		return "", ErrInvalidHelpdeskToken
	}

	return operator, nil
}
