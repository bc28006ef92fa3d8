package inbound

import (
	"context"

	"github.com/Abbracx/tses-be/internal/auth/usecase"
	"github.com/Abbracx/tses-be/internal/pkg/router"
)

type uc interface {
	RequestOTP(ctx context.Context, in usecase.RequestOTPInput) (*usecase.RequestOTPOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)

	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Passwordless sign-in
	r.POST("/api/v1/auth/otp/request", end.RequestOTP)
	r.POST("/api/v1/auth/otp/verify", end.VerifyOTP)

	// Session management
	r.POST("/api/v1/auth/token/refresh", end.RefreshToken)
	r.POST("/api/v1/auth/logout", end.Logout) // need authenticated
}
