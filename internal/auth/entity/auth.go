package entity

import "time"

// User is the account materialized by a successful OTP verification.
type User struct {
	ID         int64
	Email      string
	Username   string
	FirstName  string
	LastName   string
	IsVerified bool
	// Created reports whether this lookup inserted the row.
	Created bool
}

// RefreshToken is a persisted opaque refresh token (hashed at rest).
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
}

// RefreshTokenInfo joins a refresh token row with its owning user.
type RefreshTokenInfo struct {
	RefreshID      int64
	Revoked        bool
	ReplacedByID   *int64
	ExpiresAt      time.Time
	UserID         int64
	UserEmail      string
	UserUsername   string
	UserIsVerified bool
}

// RotateRefreshToken revokes the old token and inserts its replacement.
type RotateRefreshToken struct {
	NewID        int64
	OldID        int64
	UserID       int64
	NewToken     string
	NewExpiresAt time.Time
}
