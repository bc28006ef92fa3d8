package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/Abbracx/tses-be/internal/auth/entity"
)

// rateDecision is the outcome of checking the fixed-window counters.
type rateDecision struct {
	allowed    bool
	scope      entity.RateScope
	retryAfter time.Duration
}

// checkRateLimits evaluates the per-email window first, then the per-IP
// window. Counters are read-only here; charging happens after a code is
// actually issued.
func (s *Usecase) checkRateLimits(ctx context.Context, email, ip string) (*rateDecision, error) {
	checks := []struct {
		scope  entity.RateScope
		id     string
		limit  int64
		window time.Duration
	}{
		{entity.RateScopeEmail, email, s.policy.EmailLimit, s.policy.EmailWindow},
		{entity.RateScopeIP, ip, s.policy.IPLimit, s.policy.IPWindow},
	}

	for _, c := range checks {
		count, err := s.repoCache.RequestCount(ctx, c.scope, c.id)
		if err != nil {
			return nil, err
		}
		if count < c.limit {
			continue
		}

		retryAfter, err := s.repoCache.RequestRetryAfter(ctx, c.scope, c.id, c.window)
		if err != nil {
			return nil, err
		}

		return &rateDecision{scope: c.scope, retryAfter: retryAfter}, nil
	}

	return &rateDecision{allowed: true}, nil
}

// chargeRateLimits charges both windows exactly once for an issued code.
func (s *Usecase) chargeRateLimits(ctx context.Context, email, ip string) error {
	if _, err := s.repoCache.ChargeRequest(ctx, entity.RateScopeEmail, email, s.policy.EmailWindow); err != nil {
		return err
	}

	if _, err := s.repoCache.ChargeRequest(ctx, entity.RateScopeIP, ip, s.policy.IPWindow); err != nil {
		slog.WarnContext(ctx, "failed to charge ip rate window", "ip", ip, "error", err)
		return err
	}

	return nil
}
