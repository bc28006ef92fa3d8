package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Abbracx/tses-be/internal/pkg/goerror"
	"github.com/Abbracx/tses-be/internal/shared/event"
)

func TestRequestOTP(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)

		out, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{
			Email:     "alice@example.com",
			IPAddress: "203.0.113.7",
			UserAgent: "go-test",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.ExpiresIn != 300 {
			t.Fatalf("expected expires_in 300, got %d", out.ExpiresIn)
		}

		code, err := f.cache.GetCode(context.Background(), "alice@example.com")
		if err != nil {
			t.Fatalf("expected stored code, got error: %v", err)
		}
		if code != "123456" {
			t.Fatalf("expected stored code 123456, got %q", code)
		}

		f.flush()
		if len(f.messaging.emails) != 1 {
			t.Fatalf("expected 1 email event, got %d", len(f.messaging.emails))
		}
		if f.messaging.emails[0].Code != "123456" || f.messaging.emails[0].ExpirySeconds != 300 {
			t.Fatalf("unexpected email event: %+v", f.messaging.emails[0])
		}

		audit, ok := f.messaging.lastAudit()
		if !ok {
			t.Fatalf("expected an audit event")
		}
		if audit.Action != event.AuditActionOTPRequested {
			t.Fatalf("expected audit action %s, got %s", event.AuditActionOTPRequested, audit.Action)
		}
		if audit.Details["otp_expiry_seconds"] != int64(300) {
			t.Fatalf("unexpected audit details: %+v", audit.Details)
		}
	})

	t.Run("NormalizesEmail", func(t *testing.T) {
		f := newFixture(t)

		if _, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{
			Email:     "  Alice@Example.COM ",
			IPAddress: "203.0.113.7",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := f.cache.GetCode(context.Background(), "alice@example.com"); err != nil {
			t.Fatalf("expected code stored under normalized email: %v", err)
		}
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{Email: "not-an-email"})
		if err == nil {
			t.Fatalf("expected validation error")
		}
		if asGoError(t, err).Code() != goerror.CodeInvalidInput {
			t.Fatalf("expected invalid input code, got %v", asGoError(t, err).Code())
		}
	})

	t.Run("EmailRateLimited", func(t *testing.T) {
		f := newFixture(t)
		in := RequestOTPInput{Email: "alice@example.com", IPAddress: "203.0.113.7"}

		for i := 0; i < 3; i++ {
			if _, err := f.uc.RequestOTP(context.Background(), in); err != nil {
				t.Fatalf("request %d: unexpected error: %v", i+1, err)
			}
		}

		_, err := f.uc.RequestOTP(context.Background(), in)
		if err == nil {
			t.Fatalf("expected rate limit error on 4th request")
		}

		gerr := asGoError(t, err)
		if gerr.Code() != goerror.CodeTooManyRequest {
			t.Fatalf("expected too many request code, got %v", gerr.Code())
		}
		retryAfter, ok := gerr.Meta()["retry_after"].(int64)
		if !ok || retryAfter <= 0 || retryAfter > 600 {
			t.Fatalf("expected retry_after in (0,600], got %v", gerr.Meta()["retry_after"])
		}

		f.flush()
		audit, ok := f.messaging.lastAudit()
		if !ok || audit.Details["rate_limited"] != true || audit.Details["scope"] != "email" {
			t.Fatalf("expected rate limited audit with email scope, got %+v", audit)
		}
	})

	t.Run("EmailWindowExpires", func(t *testing.T) {
		f := newFixture(t)
		in := RequestOTPInput{Email: "alice@example.com", IPAddress: "203.0.113.7"}

		for i := 0; i < 3; i++ {
			if _, err := f.uc.RequestOTP(context.Background(), in); err != nil {
				t.Fatalf("request %d: unexpected error: %v", i+1, err)
			}
		}

		f.clk.Advance(10*time.Minute + time.Second)

		if _, err := f.uc.RequestOTP(context.Background(), in); err != nil {
			t.Fatalf("expected request after window reset, got error: %v", err)
		}
	})

	t.Run("IPRateLimited", func(t *testing.T) {
		f := newFixture(t)

		for i := 0; i < 10; i++ {
			in := RequestOTPInput{
				Email:     fmt.Sprintf("user%d@example.com", i),
				IPAddress: "203.0.113.7",
			}
			if _, err := f.uc.RequestOTP(context.Background(), in); err != nil {
				t.Fatalf("request %d: unexpected error: %v", i+1, err)
			}
		}

		_, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{
			Email:     "fresh@example.com",
			IPAddress: "203.0.113.7",
		})
		if err == nil {
			t.Fatalf("expected ip rate limit error on 11th request")
		}

		gerr := asGoError(t, err)
		if gerr.Code() != goerror.CodeTooManyRequest {
			t.Fatalf("expected too many request code, got %v", gerr.Code())
		}

		f.flush()
		audit, ok := f.messaging.lastAudit()
		if !ok || audit.Details["scope"] != "ip" {
			t.Fatalf("expected ip scope in audit details, got %+v", audit)
		}
	})

	t.Run("NewRequestReplacesCode", func(t *testing.T) {
		f := newFixture(t)
		in := RequestOTPInput{Email: "alice@example.com", IPAddress: "203.0.113.7"}

		if _, err := f.uc.RequestOTP(context.Background(), in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f.clk.Advance(4 * time.Minute)
		if _, err := f.uc.RequestOTP(context.Background(), in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// The replacement carries a fresh TTL; the original would have
		// expired at the 5 minute mark.
		f.clk.Advance(4 * time.Minute)
		if _, err := f.cache.GetCode(context.Background(), "alice@example.com"); err != nil {
			t.Fatalf("expected replaced code still live: %v", err)
		}
	})
}
