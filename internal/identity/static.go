package identity

import (
	"context"
	"errors"

	"dataroom/internal/dataroom"
)

// StaticTokenProvider returns a fixed identity token from configuration.
// An empty token is a configuration problem surfaced on first use rather
// than at construction, so commands that never touch the store still run.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider for the given token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

func (p *StaticTokenProvider) IdentityToken(_ context.Context) (string, error) {
	if p.token == "" {
		return "", errors.New("no identity token configured")
	}
	return p.token, nil
}

// Compile-time check that StaticTokenProvider implements the TokenProvider interface
var _ dataroom.TokenProvider = (*StaticTokenProvider)(nil)
