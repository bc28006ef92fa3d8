package inbound

import (
	"net"

	"github.com/Abbracx/tses-be/internal/auth/usecase"
	"github.com/Abbracx/tses-be/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the passwordless sign-in workflow.
type HTTPEndpoint struct {
	uc uc
}

// clientIP returns the origin address set by the real-IP middleware,
// stripping the port when the raw remote address is used.
func clientIP(r *router.Request) string {
	if ip := net.ParseIP(r.RemoteAddr); ip != nil {
		return r.RemoteAddr
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}

// RequestOTP issues a one-time passcode and emails it to the user.
// @Summary Request OTP
// @Description Issues a one-time passcode for the email address, subject to per-email and per-IP rate limits.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RequestOTPRequest true "OTP request payload"
// @Success 202 {object} router.successResponse{data=RequestOTPResponse} "OTP issued"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Rate limited"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/otp/request [post]
func (h *HTTPEndpoint) RequestOTP(r *router.Request) (any, error) {
	var req RequestOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestOTP(r.Context(), usecase.RequestOTPInput{
		Email:     req.Email,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	return RequestOTPResponse{ExpiresIn: resp.ExpiresIn}, nil
}

// VerifyOTP exchanges a valid passcode for a token pair.
// @Summary Verify OTP
// @Description Verifies the submitted passcode and returns access/refresh tokens plus the user record.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "OTP verification payload"
// @Success 200 {object} router.successResponse{data=VerifyOTPResponse} "Verification result"
// @Failure 400 {object} router.errorResponse "Invalid or expired OTP"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 423 {object} router.errorResponse "Account temporarily locked"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/otp/verify [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Email:     req.Email,
		OTP:       req.OTP,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		Access:  resp.AccessToken,
		Refresh: resp.RefreshToken,
		User: UserResponse{
			ID:         resp.User.ID,
			Email:      resp.User.Email,
			Username:   resp.User.Username,
			IsVerified: resp.User.IsVerified,
		},
	}, nil
}

// RefreshToken rotates a refresh token pair.
// @Summary Refresh access token
// @Description Exchanges a refresh token for a new access/refresh token pair.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token payload"
// @Success 200 {object} router.successResponse{data=RefreshTokenResponse} "Token refresh result"
// @Failure 401 {object} router.errorResponse "Invalid refresh token"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/token/refresh [post]
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{RefreshToken: req.Refresh})
	if err != nil {
		return nil, err
	}

	return RefreshTokenResponse{
		Access:  resp.AccessToken,
		Refresh: resp.RefreshToken,
	}, nil
}

// Logout revokes the presented refresh token.
// @Summary Logout
// @Description Revokes the refresh token so it can no longer be rotated.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LogoutRequest true "Logout payload"
// @Success 200 {object} router.successResponse{data=LogoutResponse} "Logout result"
// @Failure 401 {object} router.errorResponse "Invalid refresh token"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{
		RefreshToken: req.Refresh,
		IPAddress:    clientIP(r),
		UserAgent:    r.UserAgent(),
	}); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}
