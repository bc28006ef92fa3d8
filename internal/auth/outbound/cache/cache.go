package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Abbracx/tses-be/internal/auth/entity"
	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/Abbracx/tses-be/internal/pkg/instrument"
	"github.com/Abbracx/tses-be/internal/pkg/kvstore"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Key namespace for OTP state in the expiring key-value store.
const (
	keyCode         = "otp:"
	keyFailed       = "otp_failed:"
	keyLockout      = "otp_lockout:"
	keyRequestEmail = "otp_request_email:"
	keyRequestIP    = "otp_request_ip:"
	suffixTimeout   = ":timeout"
)

// Cache stores OTP codes, failure counters, lockout flags and rate-limit
// windows on a kvstore.Store.
type Cache struct {
	store kvstore.Store
	ins   instrument.Instrumentation
}

func NewCache(store kvstore.Store, ins instrument.Instrumentation) *Cache {
	return &Cache{store: store, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("auth.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) mapError(err error) error {
	if errors.Is(err, kvstore.ErrNotFound) {
		return goerror.ErrNotFound
	}

	return err
}

func requestKey(scope entity.RateScope, id string) string {
	if scope == entity.RateScopeIP {
		return keyRequestIP + id
	}

	return keyRequestEmail + id
}

// StoreCode writes the active code for email, replacing any previous one.
func (c *Cache) StoreCode(ctx context.Context, email, code string, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "StoreCode")
	defer func() { c.endSpan(span, err) }()

	err = c.store.Set(ctx, keyCode+email, code, ttl)
	return err
}

// GetCode returns the active code for email, or goerror.ErrNotFound.
func (c *Cache) GetCode(ctx context.Context, email string) (code string, err error) {
	ctx, span := c.startSpan(ctx, "GetCode")
	defer func() { c.endSpan(span, err) }()

	code, err = c.store.Get(ctx, keyCode+email)
	err = c.mapError(err)
	return code, err
}

// DeleteCode removes the active code for email.
func (c *Cache) DeleteCode(ctx context.Context, email string) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteCode")
	defer func() { c.endSpan(span, err) }()

	err = c.store.Del(ctx, keyCode+email)
	return err
}

// IncrFailures bumps the failure counter for email and returns the new count.
// The window TTL is anchored to the first failure and never rewritten.
func (c *Cache) IncrFailures(ctx context.Context, email string, window time.Duration) (count int64, err error) {
	ctx, span := c.startSpan(ctx, "IncrFailures")
	defer func() { c.endSpan(span, err) }()

	count, err = c.store.Incr(ctx, keyFailed+email)
	if err != nil {
		return 0, err
	}

	if _, err = c.store.ExpireNX(ctx, keyFailed+email, window); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return 0, err
	}

	return count, nil
}

// ClearFailures removes the failure counter for email.
func (c *Cache) ClearFailures(ctx context.Context, email string) (err error) {
	ctx, span := c.startSpan(ctx, "ClearFailures")
	defer func() { c.endSpan(span, err) }()

	err = c.store.Del(ctx, keyFailed+email)
	return err
}

// Lock sets the lockout flag for email unless one is already present.
func (c *Cache) Lock(ctx context.Context, email string, ttl time.Duration) (locked bool, err error) {
	ctx, span := c.startSpan(ctx, "Lock")
	defer func() { c.endSpan(span, err) }()

	locked, err = c.store.SetNX(ctx, keyLockout+email, "locked", ttl)
	return locked, err
}

// LockRemaining returns how long the lockout on email still holds, or
// goerror.ErrNotFound when the account is not locked.
func (c *Cache) LockRemaining(ctx context.Context, email string) (remaining time.Duration, err error) {
	ctx, span := c.startSpan(ctx, "LockRemaining")
	defer func() { c.endSpan(span, err) }()

	remaining, err = c.store.TTL(ctx, keyLockout+email)
	err = c.mapError(err)
	return remaining, err
}

// Unlock clears the lockout flag for email.
func (c *Cache) Unlock(ctx context.Context, email string) (err error) {
	ctx, span := c.startSpan(ctx, "Unlock")
	defer func() { c.endSpan(span, err) }()

	err = c.store.Del(ctx, keyLockout+email)
	return err
}

// RequestCount returns the charged requests in the current window for the
// scope/id pair. Missing counters count as zero.
func (c *Cache) RequestCount(ctx context.Context, scope entity.RateScope, id string) (count int64, err error) {
	ctx, span := c.startSpan(ctx, "RequestCount")
	defer func() { c.endSpan(span, err) }()

	v, err := c.store.Get(ctx, requestKey(scope, id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	count, err = parseCount(v)
	return count, err
}

// ChargeRequest bumps the window counter for the scope/id pair. A new window
// gets its TTL and a companion timeout marker; existing windows keep their
// original expiry.
func (c *Cache) ChargeRequest(ctx context.Context, scope entity.RateScope, id string, window time.Duration) (count int64, err error) {
	ctx, span := c.startSpan(ctx, "ChargeRequest")
	defer func() { c.endSpan(span, err) }()

	key := requestKey(scope, id)
	count, err = c.store.Incr(ctx, key)
	if err != nil {
		return 0, err
	}

	if _, err = c.store.ExpireNX(ctx, key, window); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return 0, err
	}
	if count == 1 {
		if err = c.store.Set(ctx, key+suffixTimeout, "1", window); err != nil {
			return 0, err
		}
	}

	return count, nil
}

// RequestRetryAfter reports how long until the window for the scope/id pair
// resets. It prefers the counter TTL, falls back to the timeout marker, and
// finally to the nominal window length.
func (c *Cache) RequestRetryAfter(ctx context.Context, scope entity.RateScope, id string, window time.Duration) (retry time.Duration, err error) {
	ctx, span := c.startSpan(ctx, "RequestRetryAfter")
	defer func() { c.endSpan(span, err) }()

	key := requestKey(scope, id)
	if ttl, terr := c.store.TTL(ctx, key); terr == nil && ttl > 0 {
		return ttl, nil
	}
	if ttl, terr := c.store.TTL(ctx, key+suffixTimeout); terr == nil && ttl > 0 {
		return ttl, nil
	}

	return window, nil
}

func parseCount(v string) (int64, error) {
	return strconv.ParseInt(v, 10, 64)
}
