package auth

import (
	"fmt"
	"time"
)

const (
	// DefaultAccessTTL and DefaultRefreshTTL mirror the cookie lifetimes the
	// dashboard expects. The relation access <= refresh is the real contract;
	// the literals are only defaults.
	DefaultAccessTTL  = 7 * 24 * time.Hour
	DefaultRefreshTTL = 14 * 24 * time.Hour
)

// TokenPair is an access/refresh credential pair, always issued together.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Sessions mints and verifies token pairs. Sessions are stateless: nothing
// is persisted server-side, the signature and embedded expiry are the sole
// source of truth.
type Sessions struct {
	codec      *TokenCodec
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// SessionsOption configures Sessions.
type SessionsOption func(*Sessions)

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) SessionsOption {
	return func(s *Sessions) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) SessionsOption {
	return func(s *Sessions) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithSessionClock overrides the time source used for pair expiry stamps.
func WithSessionClock(fn func() time.Time) SessionsOption {
	return func(s *Sessions) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewSessions constructs the session issuer on top of a codec.
func NewSessions(codec *TokenCodec, opts ...SessionsOption) (*Sessions, error) {
	if codec == nil {
		return nil, fmt.Errorf("%w: codec is required", ErrInvalidInput)
	}
	s := &Sessions{
		codec:      codec,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.accessTTL > s.refreshTTL {
		return nil, fmt.Errorf("%w: access ttl exceeds refresh ttl", ErrInvalidInput)
	}
	return s, nil
}

// IssuePair mints a fresh access/refresh pair for the subject. Either both
// tokens are issued or neither is; a codec failure aborts the whole pair.
func (s *Sessions) IssuePair(subjectID string) (TokenPair, error) {
	access, err := s.codec.Sign(subjectID, TokenKindAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.Sign(subjectID, TokenKindRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	now := s.now().UTC()
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshExpiresAt: now.Add(s.refreshTTL),
	}, nil
}

// Verify checks a token under the secret of the given kind.
func (s *Sessions) Verify(token string, kind TokenKind) (*Claims, error) {
	return s.codec.Verify(token, kind)
}

// AccessTTL reports the configured access token lifetime.
func (s *Sessions) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (s *Sessions) RefreshTTL() time.Duration { return s.refreshTTL }
