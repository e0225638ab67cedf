package config

import (
	"github.com/Shrot8546/EventVgo/internal/envconfig"
)

// Config holds every environment-sourced setting for the service. The webhook
// secret and Mongo URI are required up front: a deployment without them can
// never verify a delivery or persist a user, so the process refuses to start.
type Config struct {
	Port           string `validate:"required"`
	MongoURI       string `validate:"required"`
	MongoDatabase  string `validate:"required"`
	WebhookSecret  string `validate:"required"`
	ClerkSecretKey string
	Auth           AuthConfig
}

type AuthConfig struct {
	Mode     string `validate:"required"`
	JWKSURL  string
	Issuer   string
	Audience string
}

func Load() (Config, error) {
	cfg := Config{
		Port:           envconfig.Get("PORT", "8080"),
		MongoURI:       envconfig.Get("MONGODB_URI", ""),
		MongoDatabase:  envconfig.Get("MONGODB_DATABASE", "evently"),
		WebhookSecret:  envconfig.Get("CLERK_WEBHOOK_SECRET", ""),
		ClerkSecretKey: envconfig.Get("CLERK_SECRET_KEY", ""),
		Auth: AuthConfig{
			Mode:     envconfig.Get("AUTH_MODE", "clerk"),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
		},
	}
	return cfg, envconfig.Validate(cfg)
}
