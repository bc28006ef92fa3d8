package usecase

import (
	"context"
	"time"

	"github.com/Abbracx/tses-be/internal/auth/entity"
	"github.com/Abbracx/tses-be/internal/pkg/clock"
	"github.com/Abbracx/tses-be/internal/pkg/config"
	"github.com/Abbracx/tses-be/internal/pkg/goroutine"
	"github.com/Abbracx/tses-be/internal/pkg/hash"
	"github.com/Abbracx/tses-be/internal/pkg/instrument"
	"github.com/Abbracx/tses-be/internal/pkg/jwt"
	"github.com/Abbracx/tses-be/internal/pkg/otp"
	"github.com/Abbracx/tses-be/internal/pkg/uid"
	"github.com/Abbracx/tses-be/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetOrCreateUserByEmail(ctx context.Context, in entity.User) (*entity.User, error)
	CreateRefreshToken(ctx context.Context, in entity.RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*entity.RefreshTokenInfo, error)
	RotateRefreshToken(ctx context.Context, in entity.RotateRefreshToken) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}

type repoCache interface {
	StoreCode(ctx context.Context, email, code string, ttl time.Duration) error
	GetCode(ctx context.Context, email string) (string, error)
	DeleteCode(ctx context.Context, email string) error

	IncrFailures(ctx context.Context, email string, window time.Duration) (int64, error)
	ClearFailures(ctx context.Context, email string) error

	Lock(ctx context.Context, email string, ttl time.Duration) (bool, error)
	LockRemaining(ctx context.Context, email string) (time.Duration, error)

	RequestCount(ctx context.Context, scope entity.RateScope, id string) (int64, error)
	ChargeRequest(ctx context.Context, scope entity.RateScope, id string, window time.Duration) (int64, error)
	RequestRetryAfter(ctx context.Context, scope entity.RateScope, id string, window time.Duration) (time.Duration, error)
}

type repoMessaging interface {
	PublishOTPEmail(ctx context.Context, msg OTPEmailEvent) error
	PublishAuditLog(ctx context.Context, msg AuditLogEvent) error
}

// OTPEmailEvent asks the notification module to deliver a code.
type OTPEmailEvent struct {
	Email         string
	Code          string
	ExpirySeconds int64
}

// AuditLogEvent records an authentication decision for the audit trail.
type AuditLogEvent struct {
	Email      string
	Action     string
	IPAddress  string
	UserAgent  string
	Details    map[string]any
	OccurredAt time.Time
}

// Policy carries the OTP issuance and verification knobs.
type Policy struct {
	OTPTTL          time.Duration
	EmailLimit      int64
	EmailWindow     time.Duration
	IPLimit         int64
	IPWindow        time.Duration
	MaxFailed       int64
	Lockout         time.Duration
	RefreshTokenTTL time.Duration
}

// PolicyFromConfig reads modules.auth.* with production defaults for any
// missing key.
func PolicyFromConfig(cfg config.Config) Policy {
	p := Policy{
		OTPTTL:          cfg.GetSecond("modules.auth.otp_ttl_seconds"),
		EmailLimit:      cfg.GetInt64("modules.auth.email_rate_limit"),
		EmailWindow:     cfg.GetSecond("modules.auth.email_rate_window_seconds"),
		IPLimit:         cfg.GetInt64("modules.auth.ip_rate_limit"),
		IPWindow:        cfg.GetSecond("modules.auth.ip_rate_window_seconds"),
		MaxFailed:       cfg.GetInt64("modules.auth.max_failed_attempts"),
		Lockout:         cfg.GetSecond("modules.auth.lockout_seconds"),
		RefreshTokenTTL: cfg.GetDay("modules.auth.refresh_token_ttl_days"),
	}

	if p.OTPTTL <= 0 {
		p.OTPTTL = 5 * time.Minute
	}
	if p.EmailLimit <= 0 {
		p.EmailLimit = 3
	}
	if p.EmailWindow <= 0 {
		p.EmailWindow = 10 * time.Minute
	}
	if p.IPLimit <= 0 {
		p.IPLimit = 10
	}
	if p.IPWindow <= 0 {
		p.IPWindow = time.Hour
	}
	if p.MaxFailed <= 0 {
		p.MaxFailed = 5
	}
	if p.Lockout <= 0 {
		p.Lockout = 15 * time.Minute
	}
	if p.RefreshTokenTTL <= 0 {
		p.RefreshTokenTTL = 7 * 24 * time.Hour
	}

	return p
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	policy        Policy
	otp           otp.Generator
	uid           uid.NumberID
	oid           uid.StringID
	hmac          hash.Hash
	clock         clock.Clocker
	validator     validator.Validator
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Policy        Policy
	OTP           otp.Generator
	UID           uid.NumberID
	OID           uid.StringID
	HMAC          hash.Hash
	Clock         clock.Clocker
	Validator     validator.Validator
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		policy:        dep.Policy,
		otp:           dep.OTP,
		uid:           dep.UID,
		oid:           dep.OID,
		hmac:          dep.HMAC,
		clock:         dep.Clock,
		validator:     dep.Validator,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}
