package identity

import (
	"context"
	"testing"
)

func TestStaticTokenProvider(t *testing.T) {
	t.Run("returns the configured token", func(t *testing.T) {
		p := NewStaticTokenProvider("alice")
		token, err := p.IdentityToken(context.Background())
		if err != nil {
			t.Fatalf("IdentityToken() error = %v", err)
		}
		if token != "alice" {
			t.Errorf("IdentityToken() = %q, want %q", token, "alice")
		}
	})

	t.Run("fails when no token is configured", func(t *testing.T) {
		p := NewStaticTokenProvider("")
		if _, err := p.IdentityToken(context.Background()); err == nil {
			t.Error("IdentityToken() error = nil, want missing token error")
		}
	})
}
