package domain

import "time"

// User is a shopper account. OTPCode and OTPExpires are either both set or both nil.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        *string
	PasswordHash string
	Role         Role
	OTPCode      *string
	OTPExpires   *time.Time
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPendingOTP reports whether a code is waiting to be verified.
func (u *User) HasPendingOTP() bool {
	return u.OTPCode != nil && u.OTPExpires != nil
}
