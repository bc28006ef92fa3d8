// Package otp provides helpers for generating one-time passcodes (OTP)
// delivered out of band, typically over email.
//
// Codes are short-lived numeric strings drawn uniformly at random; validity
// and expiry are tracked by the caller, not by this package.
package otp
