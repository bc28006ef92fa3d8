package inbound

import (
	"context"

	"github.com/Abbracx/tses-be/internal/notification/usecase"
)

type uc interface {
	ConsumeOTPEmail(ctx context.Context, in usecase.ConsumeOTPEmailInput) error
}
