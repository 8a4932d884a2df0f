package account

import "errors"

// Workflow failures the HTTP layer maps onto status codes. Anything
// not listed here is treated as an internal error.
var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("please verify your email first")
	ErrAlreadyVerified    = errors.New("email is already verified")
	ErrOtpMismatch        = errors.New("invalid OTP")
	ErrOtpExpired         = errors.New("OTP has expired")
	ErrWrongPassword      = errors.New("old password is incorrect")
	ErrUploadFailed       = errors.New("failed to upload image")
)
