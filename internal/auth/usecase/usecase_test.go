package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Abbracx/tses-be/internal/auth/entity"
	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/Abbracx/tses-be/internal/pkg/goroutine"
	"github.com/Abbracx/tses-be/internal/pkg/instrument"
	"github.com/Abbracx/tses-be/internal/pkg/jwt"
	"github.com/Abbracx/tses-be/internal/pkg/validator"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixedOTP struct{ code string }

func (f fixedOTP) Generate() (string, error) { return f.code, nil }

type seqNumberID struct{ next int64 }

func (s *seqNumberID) Generate() int64 {
	s.next++
	return s.next
}

type seqStringID struct {
	prefix string
	n      int
}

func (s *seqStringID) Generate() string {
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

type fakeHash struct{}

func (fakeHash) Hash(str string) ([]byte, error) { return []byte("hashed:" + str), nil }

func (fakeHash) Verify(hashed, str string) bool { return hashed == "hashed:"+str }

type fakeJWT struct{}

func (fakeJWT) Generate(uid int64, email string) (string, error) {
	return fmt.Sprintf("jwt-%d-%s", uid, email), nil
}

func (fakeJWT) Verify(string) (jwt.Claims, error) { return jwt.Claims{}, nil }

// expiringValue is a value with a deadline driven by the fake clock.
type expiringValue struct {
	value     string
	count     int64
	expiresAt time.Time
}

type fakeCache struct {
	clk      *fakeClock
	mu       sync.Mutex
	codes    map[string]expiringValue
	failures map[string]expiringValue
	locks    map[string]expiringValue
	requests map[string]expiringValue
}

func newFakeCache(clk *fakeClock) *fakeCache {
	return &fakeCache{
		clk:      clk,
		codes:    make(map[string]expiringValue),
		failures: make(map[string]expiringValue),
		locks:    make(map[string]expiringValue),
		requests: make(map[string]expiringValue),
	}
}

func (c *fakeCache) live(m map[string]expiringValue, key string) (expiringValue, bool) {
	v, ok := m[key]
	if !ok || !c.clk.Now().Before(v.expiresAt) {
		delete(m, key)
		return expiringValue{}, false
	}
	return v, true
}

func (c *fakeCache) StoreCode(_ context.Context, email, code string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = expiringValue{value: code, expiresAt: c.clk.Now().Add(ttl)}
	return nil
}

func (c *fakeCache) GetCode(_ context.Context, email string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.live(c.codes, email)
	if !ok {
		return "", goerror.ErrNotFound
	}
	return v.value, nil
}

func (c *fakeCache) DeleteCode(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.codes, email)
	return nil
}

func (c *fakeCache) IncrFailures(_ context.Context, email string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.live(c.failures, email)
	if !ok {
		v = expiringValue{expiresAt: c.clk.Now().Add(window)}
	}
	v.count++
	c.failures[email] = v
	return v.count, nil
}

func (c *fakeCache) ClearFailures(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failures, email)
	return nil
}

func (c *fakeCache) Lock(_ context.Context, email string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.live(c.locks, email); ok {
		return false, nil
	}
	c.locks[email] = expiringValue{value: "locked", expiresAt: c.clk.Now().Add(ttl)}
	return true, nil
}

func (c *fakeCache) LockRemaining(_ context.Context, email string) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.live(c.locks, email)
	if !ok {
		return 0, goerror.ErrNotFound
	}
	return v.expiresAt.Sub(c.clk.Now()), nil
}

func (c *fakeCache) rateKey(scope entity.RateScope, id string) string {
	return scope.String() + ":" + id
}

func (c *fakeCache) RequestCount(_ context.Context, scope entity.RateScope, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.live(c.requests, c.rateKey(scope, id))
	if !ok {
		return 0, nil
	}
	return v.count, nil
}

func (c *fakeCache) ChargeRequest(_ context.Context, scope entity.RateScope, id string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.rateKey(scope, id)
	v, ok := c.live(c.requests, key)
	if !ok {
		v = expiringValue{expiresAt: c.clk.Now().Add(window)}
	}
	v.count++
	c.requests[key] = v
	return v.count, nil
}

func (c *fakeCache) RequestRetryAfter(_ context.Context, scope entity.RateScope, id string, window time.Duration) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.live(c.requests, c.rateKey(scope, id))
	if !ok {
		return window, nil
	}
	return v.expiresAt.Sub(c.clk.Now()), nil
}

type storedToken struct {
	id         int64
	userID     int64
	hash       string
	expiresAt  time.Time
	revoked    bool
	replacedBy *int64
}

type fakeDB struct {
	mu           sync.Mutex
	usersByEmail map[string]entity.User
	tokensByID   map[int64]*storedToken
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		usersByEmail: make(map[string]entity.User),
		tokensByID:   make(map[int64]*storedToken),
	}
}

func (d *fakeDB) GetOrCreateUserByEmail(_ context.Context, in entity.User) (*entity.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.usersByEmail[in.Email]; ok {
		u.IsVerified = true
		u.Created = false
		d.usersByEmail[in.Email] = u
		return &u, nil
	}

	in.IsVerified = true
	in.Created = true
	d.usersByEmail[in.Email] = in
	out := in
	return &out, nil
}

func (d *fakeDB) CreateRefreshToken(_ context.Context, in entity.RefreshToken) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tokensByID[in.ID] = &storedToken{
		id:        in.ID,
		userID:    in.UserID,
		hash:      in.Token,
		expiresAt: in.ExpiresAt,
	}
	return nil
}

func (d *fakeDB) findByHash(hash string) *storedToken {
	for _, t := range d.tokensByID {
		if t.hash == hash {
			return t
		}
	}
	return nil
}

func (d *fakeDB) userByID(id int64) (entity.User, bool) {
	for _, u := range d.usersByEmail {
		if u.ID == id {
			return u, true
		}
	}
	return entity.User{}, false
}

func (d *fakeDB) GetRefreshToken(_ context.Context, tokenHash string) (*entity.RefreshTokenInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := d.findByHash(tokenHash)
	if t == nil {
		return nil, goerror.ErrNotFound
	}

	u, ok := d.userByID(t.userID)
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &entity.RefreshTokenInfo{
		RefreshID:      t.id,
		Revoked:        t.revoked,
		ReplacedByID:   t.replacedBy,
		ExpiresAt:      t.expiresAt,
		UserID:         u.ID,
		UserEmail:      u.Email,
		UserUsername:   u.Username,
		UserIsVerified: u.IsVerified,
	}, nil
}

func (d *fakeDB) RotateRefreshToken(_ context.Context, in entity.RotateRefreshToken) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	old, ok := d.tokensByID[in.OldID]
	if !ok || old.revoked {
		return goerror.ErrNotFound
	}

	old.revoked = true
	old.replacedBy = &in.NewID
	d.tokensByID[in.NewID] = &storedToken{
		id:        in.NewID,
		userID:    in.UserID,
		hash:      in.NewToken,
		expiresAt: in.NewExpiresAt,
	}
	return nil
}

func (d *fakeDB) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := d.findByHash(tokenHash)
	if t == nil || t.revoked {
		return goerror.ErrNotFound
	}
	t.revoked = true
	return nil
}

type fakeMessaging struct {
	mu     sync.Mutex
	emails []OTPEmailEvent
	audits []AuditLogEvent
}

func (m *fakeMessaging) PublishOTPEmail(_ context.Context, msg OTPEmailEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, msg)
	return nil
}

func (m *fakeMessaging) PublishAuditLog(_ context.Context, msg AuditLogEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, msg)
	return nil
}

func (m *fakeMessaging) auditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	actions := make([]string, 0, len(m.audits))
	for _, a := range m.audits {
		actions = append(actions, a.Action)
	}
	return actions
}

func (m *fakeMessaging) lastAudit() (AuditLogEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.audits) == 0 {
		return AuditLogEvent{}, false
	}
	return m.audits[len(m.audits)-1], true
}

// ---------------------------------------------------------------------------
// fixture
// ---------------------------------------------------------------------------

type fixture struct {
	uc        *Usecase
	clk       *fakeClock
	cache     *fakeCache
	db        *fakeDB
	messaging *fakeMessaging
	routine   *goroutine.Manager
}

// flush waits for all fire-and-forget publishes. The manager refuses new
// work afterwards, so call it once at the end of a test.
func (f *fixture) flush() {
	_ = f.routine.Wait()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	clk := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := newFakeCache(clk)
	db := newFakeDB()
	msg := &fakeMessaging{}
	routine := goroutine.NewManager(100)

	uc := New(Dependency{
		RepoDB:        db,
		RepoCache:     cache,
		RepoMessaging: msg,
		Policy: Policy{
			OTPTTL:          5 * time.Minute,
			EmailLimit:      3,
			EmailWindow:     10 * time.Minute,
			IPLimit:         10,
			IPWindow:        time.Hour,
			MaxFailed:       5,
			Lockout:         15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		OTP:        fixedOTP{code: "123456"},
		UID:        &seqNumberID{},
		OID:        &seqStringID{prefix: "reftoken"},
		HMAC:       fakeHash{},
		Clock:      clk,
		Validator:  v,
		JWT:        fakeJWT{},
		Instrument: instrument.NewNoop(),
		Goroutine:  routine,
	})

	return &fixture{uc: uc, clk: clk, cache: cache, db: db, messaging: msg, routine: routine}
}

func asGoError(t *testing.T, err error) *goerror.Error {
	t.Helper()
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	return gerr
}
