package identity

import (
	"fmt"

	"dataroom/internal/config"
	"dataroom/internal/dataroom"
)

// NewTokenProviderFromConfig creates a TokenProvider implementation based on the identity config type.
func NewTokenProviderFromConfig(cfg config.IdentityConfig) (dataroom.TokenProvider, error) {
	switch cfg.Type {
	case "static", "":
		return NewStaticTokenProvider(cfg.Token), nil
	case "jwt":
		if cfg.JWT == "" {
			return nil, fmt.Errorf("jwt identity requires jwt to be set")
		}
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("jwt identity requires jwt_secret to be set")
		}
		return NewJWTTokenProvider(cfg.JWT, []byte(cfg.JWTSecret)), nil
	default:
		return nil, fmt.Errorf("unknown identity type: %s", cfg.Type)
	}
}
