package testutil

import (
	"context"
	"sync"

	"dataroom/internal/dataroom"
)

// ScriptedTokenProvider returns a fixed identity token, or a scripted
// error once Fail is called. It counts resolutions so tests can assert the
// token is fetched once per batch.
type ScriptedTokenProvider struct {
	mu    sync.Mutex
	token string
	err   error
	calls int
}

var _ dataroom.TokenProvider = (*ScriptedTokenProvider)(nil)

// NewScriptedTokenProvider creates a provider returning token.
func NewScriptedTokenProvider(token string) *ScriptedTokenProvider {
	return &ScriptedTokenProvider{token: token}
}

// Fail makes every subsequent IdentityToken call return err.
func (p *ScriptedTokenProvider) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *ScriptedTokenProvider) IdentityToken(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.token, nil
}

// Calls returns how many times IdentityToken has been invoked.
func (p *ScriptedTokenProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
