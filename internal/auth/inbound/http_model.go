package inbound

import "net/http"

type RequestOTPRequest struct {
	Email string `json:"email"`
}

type RequestOTPResponse struct {
	ExpiresIn int64 `json:"expires_in"`
}

func (RequestOTPResponse) StatusCode() int {
	return http.StatusAccepted
}

func (RequestOTPResponse) Message() string {
	return "OTP sent to your email."
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type UserResponse struct {
	ID         int64  `json:"id,string"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	IsVerified bool   `json:"is_verified"`
}

type VerifyOTPResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    UserResponse `json:"user"`
}

func (VerifyOTPResponse) Message() string {
	return "OTP verified successfully."
}

type RefreshTokenRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshTokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Logged out successfully."
}
