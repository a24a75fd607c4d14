package utils

import (
	"log"
	"os"
	"time"
)

const TokenIssuer = "toCare"

var (
	// JWTSecretKey signs helpdesk tokens issued by this subsystem.
	JWTSecretKey string

	// UserJWTSecret verifies end-user tokens minted by the external
	// identity service. Deliberately a separate key: the two credential
	// domains must never validate against each other's secret.
	UserJWTSecret string

	HelpdeskTokenTTL time.Duration
)

func InitJWT() {
	// For tests, use default values if environment variables aren't set
	if os.Getenv("GO_ENV") == "test" {
		if os.Getenv("JWT_SECRET_KEY") == "" {
			os.Setenv("JWT_SECRET_KEY", "test_helpdesk_secret")
		}
		if os.Getenv("USER_JWT_SECRET") == "" {
			os.Setenv("USER_JWT_SECRET", "test_user_secret")
		}
	}

	JWTSecretKey = os.Getenv("JWT_SECRET_KEY")
	if JWTSecretKey == "" {
		log.Fatal("JWT Secret Key not set")
	}

	UserJWTSecret = os.Getenv("USER_JWT_SECRET")
	if UserJWTSecret == "" {
		log.Fatal("User JWT Secret not set")
	}

	HelpdeskTokenTTL = GetEnvAsDuration("HELPDESK_TOKEN_TTL", 8*time.Hour)
}
