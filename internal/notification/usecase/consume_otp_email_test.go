package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Abbracx/tses-be/internal/pkg/idempotency"
	"github.com/Abbracx/tses-be/internal/pkg/instrument"
	"github.com/Abbracx/tses-be/internal/pkg/mail"
	"github.com/Abbracx/tses-be/internal/pkg/validator"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeIdempotency executes each key once and reports redeliveries the way
// the redis tracker does.
type fakeIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
}

func (f *fakeIdempotency) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return idempotency.StateNone, nil
}

func (f *fakeIdempotency) MarkCompleted(context.Context, string, time.Duration) error { return nil }
func (f *fakeIdempotency) MarkFailed(context.Context, string, time.Duration) error    { return nil }

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.mu.Lock()
	if f.done == nil {
		f.done = make(map[string]bool)
	}
	if f.done[key] {
		f.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	f.done[key] = true
	f.mu.Unlock()

	return fn(ctx)
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestUsecase(t *testing.T) (*Usecase, *fakeMail, *fakeIdempotency) {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	sender := &fakeMail{}
	idem := &fakeIdempotency{}
	uc := NewNotification(Dependency{
		Clock:       &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Validator:   v,
		Idempotency: idem,
		RepoMail:    sender,
		Instrument:  instrument.NewNoop(),
	})

	return uc, sender, idem
}

func TestConsumeOTPEmail(t *testing.T) {
	t.Run("SendsRenderedEmail", func(t *testing.T) {
		uc, sender, _ := newTestUsecase(t)

		err := uc.ConsumeOTPEmail(context.Background(), ConsumeOTPEmailInput{
			MessageID:     "msg-1",
			Email:         "alice@example.com",
			Code:          "123456",
			ExpirySeconds: 300,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(sender.sent) != 1 {
			t.Fatalf("expected 1 email, got %d", len(sender.sent))
		}
		msg := sender.sent[0]
		if len(msg.To) != 1 || msg.To[0] != "alice@example.com" {
			t.Fatalf("unexpected recipients: %v", msg.To)
		}
		if msg.Subject != "Your verification code" {
			t.Fatalf("unexpected subject: %q", msg.Subject)
		}
		if !strings.Contains(msg.HTMLBody, "123456") {
			t.Fatalf("expected code in body")
		}
		if !strings.Contains(msg.HTMLBody, "5 minutes") {
			t.Fatalf("expected expiry in minutes in body")
		}
		if !strings.Contains(msg.HTMLBody, "support@tses.app") {
			t.Fatalf("expected support address in body")
		}
	})

	t.Run("RedeliveryIsSkipped", func(t *testing.T) {
		uc, sender, _ := newTestUsecase(t)

		in := ConsumeOTPEmailInput{
			MessageID:     "msg-1",
			Email:         "alice@example.com",
			Code:          "123456",
			ExpirySeconds: 300,
		}
		if err := uc.ConsumeOTPEmail(context.Background(), in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := uc.ConsumeOTPEmail(context.Background(), in); err != nil {
			t.Fatalf("expected redelivery to be dropped quietly, got %v", err)
		}

		if len(sender.sent) != 1 {
			t.Fatalf("expected exactly 1 email, got %d", len(sender.sent))
		}
	})

	t.Run("DistinctMessagesBothDeliver", func(t *testing.T) {
		uc, sender, _ := newTestUsecase(t)

		for _, id := range []string{"msg-1", "msg-2"} {
			if err := uc.ConsumeOTPEmail(context.Background(), ConsumeOTPEmailInput{
				MessageID:     id,
				Email:         "alice@example.com",
				Code:          "654321",
				ExpirySeconds: 300,
			}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if len(sender.sent) != 2 {
			t.Fatalf("expected 2 emails, got %d", len(sender.sent))
		}
	})

	t.Run("InvalidInputIsDropped", func(t *testing.T) {
		uc, sender, _ := newTestUsecase(t)

		// A malformed event is not retryable, so it is logged and dropped.
		err := uc.ConsumeOTPEmail(context.Background(), ConsumeOTPEmailInput{
			MessageID: "msg-1",
			Email:     "not-an-email",
		})
		if err != nil {
			t.Fatalf("expected nil for invalid payload, got %v", err)
		}
		if len(sender.sent) != 0 {
			t.Fatalf("expected no email, got %d", len(sender.sent))
		}
	})

	t.Run("SendFailurePropagates", func(t *testing.T) {
		uc, sender, _ := newTestUsecase(t)
		sender.err = errors.New("smtp unreachable")

		err := uc.ConsumeOTPEmail(context.Background(), ConsumeOTPEmailInput{
			MessageID:     "msg-1",
			Email:         "alice@example.com",
			Code:          "123456",
			ExpirySeconds: 300,
		})
		if err == nil {
			t.Fatalf("expected send failure to propagate for broker retry")
		}
	})
}
