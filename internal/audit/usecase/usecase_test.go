package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abbracx/tses-be/internal/audit/entity"
	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/Abbracx/tses-be/internal/pkg/instrument"
	"github.com/Abbracx/tses-be/internal/pkg/jwt"
	"github.com/Abbracx/tses-be/internal/pkg/validator"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type seqNumberID struct {
	mu   sync.Mutex
	next int64
}

func (s *seqNumberID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

type fakeRepo struct {
	mu         sync.Mutex
	logs       []entity.AuditLog
	lastFilter entity.LogListFilterData
	listResult []entity.AuditLog
	listTotal  int64
	err        error
}

func (r *fakeRepo) CreateLog(_ context.Context, log entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeRepo) ListLogs(_ context.Context, filter entity.LogListFilterData) ([]entity.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	r.lastFilter = filter
	return r.listResult, r.listTotal, nil
}

func newTestUsecase(t *testing.T) (*Usecase, *fakeRepo, *fakeClock) {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	repo := &fakeRepo{}
	clk := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	uc := New(Dependency{
		RepoDB:     repo,
		UID:        &seqNumberID{},
		Clock:      clk,
		Validator:  v,
		Instrument: instrument.NewNoop(),
	})

	return uc, repo, clk
}

func authedContext() context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		UserID:    42,
		UserEmail: "admin@example.com",
	})
}

func asGoError(t *testing.T, err error) *goerror.Error {
	t.Helper()
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	return gerr
}
