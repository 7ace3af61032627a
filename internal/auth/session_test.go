package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestSessions(t *testing.T, opts ...SessionsOption) *Sessions {
	t.Helper()
	sessions, err := NewSessions(newTestCodec(t), opts...)
	if err != nil {
		t.Fatalf("NewSessions: %v", err)
	}
	return sessions
}

func TestIssuePair(t *testing.T) {
	sessions := newTestSessions(t)

	pair, err := sessions.IssuePair("user-42")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	if !pair.AccessExpiresAt.Before(pair.RefreshExpiresAt) {
		t.Fatalf("access expiry %v must precede refresh expiry %v", pair.AccessExpiresAt, pair.RefreshExpiresAt)
	}

	access, err := sessions.Verify(pair.AccessToken, TokenKindAccess)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	refresh, err := sessions.Verify(pair.RefreshToken, TokenKindRefresh)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if access.Subject != "user-42" || refresh.Subject != "user-42" {
		t.Fatalf("unexpected subjects: %s / %s", access.Subject, refresh.Subject)
	}
}

func TestIssuePairDistinctEachCall(t *testing.T) {
	// Refresh is not single-use: every pair minted for the same subject is
	// independently valid.
	sessions := newTestSessions(t)

	first, err := sessions.IssuePair("user-1")
	if err != nil {
		t.Fatalf("first IssuePair: %v", err)
	}
	second, err := sessions.IssuePair("user-1")
	if err != nil {
		t.Fatalf("second IssuePair: %v", err)
	}
	if first.RefreshToken == second.RefreshToken {
		t.Fatalf("expected distinct refresh tokens")
	}
	if _, err := sessions.Verify(first.RefreshToken, TokenKindRefresh); err != nil {
		t.Fatalf("first refresh token should stay valid: %v", err)
	}
	if _, err := sessions.Verify(second.RefreshToken, TokenKindRefresh); err != nil {
		t.Fatalf("second refresh token should be valid: %v", err)
	}
}

func TestIssuePairAbortsAsWhole(t *testing.T) {
	sessions := newTestSessions(t)

	pair, err := sessions.IssuePair("")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if pair.AccessToken != "" || pair.RefreshToken != "" {
		t.Fatalf("no partial pair may be issued, got %+v", pair)
	}
}

func TestAccessTTLMustNotExceedRefreshTTL(t *testing.T) {
	_, err := NewSessions(newTestCodec(t),
		WithAccessTTL(48*time.Hour),
		WithRefreshTTL(24*time.Hour),
	)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSessionsTTLOverrides(t *testing.T) {
	sessions := newTestSessions(t,
		WithAccessTTL(time.Hour),
		WithRefreshTTL(2*time.Hour),
	)
	if sessions.AccessTTL() != time.Hour {
		t.Fatalf("unexpected access ttl: %v", sessions.AccessTTL())
	}
	if sessions.RefreshTTL() != 2*time.Hour {
		t.Fatalf("unexpected refresh ttl: %v", sessions.RefreshTTL())
	}
}
