package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/cafe-storefront/pkg/config"
)

func testHandoffConfig() config.HandoffConfig {
	return config.HandoffConfig{
		Secret:   "secret",
		Issuer:   "cafe-storefront",
		TTL:      30 * time.Minute,
		ScopeTTL: 24 * time.Hour,
	}
}

func TestMintAndParseScopeToken(t *testing.T) {
	cfg := testHandoffConfig()
	now := time.Now().UTC()
	scope := NewScope()

	token, err := MintScopeToken(cfg, now, scope)
	if err != nil {
		t.Fatalf("mint scope token: %v", err)
	}

	claims, err := ParseScopeToken(cfg, token)
	if err != nil {
		t.Fatalf("parse scope token: %v", err)
	}
	if claims.Scope != scope {
		t.Fatalf("expected scope %s, got %s", scope, claims.Scope)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	diff := claims.ExpiresAt.Sub(now.Add(cfg.ScopeTTL))
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt.UTC())
	}
}

func TestParseScopeTokenInvalidSignature(t *testing.T) {
	cfg := testHandoffConfig()
	token, err := MintScopeToken(cfg, time.Now(), NewScope())
	if err != nil {
		t.Fatalf("mint scope token: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseScopeToken(other, token); err == nil {
		t.Fatal("expected signature validation failure")
	}
}

func TestParseScopeTokenExpired(t *testing.T) {
	cfg := testHandoffConfig()
	token, err := MintScopeToken(cfg, time.Now().Add(-48*time.Hour), NewScope())
	if err != nil {
		t.Fatalf("mint scope token: %v", err)
	}
	if _, err := ParseScopeToken(cfg, token); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestMintScopeTokenRejectsBadInput(t *testing.T) {
	cfg := testHandoffConfig()
	if _, err := MintScopeToken(cfg, time.Now(), "not-a-uuid"); err == nil {
		t.Fatal("expected invalid scope error")
	}
	cfg.Secret = ""
	if _, err := MintScopeToken(cfg, time.Now(), NewScope()); err == nil {
		t.Fatal("expected missing secret error")
	}
}

func TestParseScopeTokenWrongIssuer(t *testing.T) {
	cfg := testHandoffConfig()
	token, err := MintScopeToken(cfg, time.Now(), NewScope())
	if err != nil {
		t.Fatalf("mint scope token: %v", err)
	}
	cfg.Issuer = "someone-else"
	if _, err := ParseScopeToken(cfg, token); err == nil {
		t.Fatal("expected issuer mismatch")
	}
}
