package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/cache"
	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// ProviderSignOut ends the session at the identity provider.
type ProviderSignOut interface {
	SignOut(ctx context.Context, token string) error
}

// DraftDiscarder drops every open draft of an owner.
type DraftDiscarder interface {
	DiscardAll(ctx context.Context, owner string) int
}

// SignOutResult tells the client how to finish signing out.
type SignOutResult struct {
	Reload   bool   `json:"reload"`
	Redirect string `json:"redirect"`
}

// AuthService terminates sessions.
type AuthService struct {
	provider    ProviderSignOut
	revocations cache.RevocationStore
	drafts      DraftDiscarder
	maxTTL      time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(provider ProviderSignOut, revocations cache.RevocationStore, drafts DraftDiscarder, maxTTL time.Duration, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		provider:    provider,
		revocations: revocations,
		drafts:      drafts,
		maxTTL:      maxTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// SignOut calls the provider sign-out, then terminates the local session and
// drops the caller's open drafts.
// A provider failure is logged and does not keep the local session alive.
func (s *AuthService) SignOut(ctx context.Context, session *domain.Session, token string) (*SignOutResult, error) {
	if session == nil {
		return nil, apperrors.NewUnauthorized("missing session")
	}
	if s.provider != nil {
		if err := s.provider.SignOut(ctx, token); err != nil {
			s.logger.Warn("provider sign-out failed", zap.String("subject", session.Subject), zap.Error(err))
		}
	}

	if session.TokenID != "" && s.revocations != nil {
		ttl := s.maxTTL
		if !session.ExpiresAt.IsZero() {
			if remaining := session.ExpiresAt.Sub(s.now()); remaining < ttl || ttl <= 0 {
				ttl = remaining
			}
		}
		if err := s.revocations.Revoke(ctx, session.TokenID, ttl); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}

	discarded := 0
	if s.drafts != nil {
		discarded = s.drafts.DiscardAll(ctx, session.Subject)
	}

	s.logger.Info("session terminated", zap.String("subject", session.Subject), zap.Int("drafts_discarded", discarded))
	return &SignOutResult{Reload: true, Redirect: "/"}, nil
}
