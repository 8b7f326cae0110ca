// Package usecase implements the account lifecycle: registration, email
// verification, login, logout and token refresh.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by email, username or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned by the store on a unique violation (email or username).
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned when the email or password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserNotVerified is returned on login with a correct password for an inactive account.
	ErrUserNotVerified = errors.New("email not verified")

	// ErrInvalidUID is returned when the uid segment of a verification link cannot be decoded
	// or does not identify a user.
	ErrInvalidUID = errors.New("invalid user id")

	// ErrAlreadyActive is returned when a verification link is used for an active account.
	ErrAlreadyActive = errors.New("account is already active")

	// ErrInvalidVerificationToken is returned when the verification token is invalid, expired
	// or bound to another account.
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")

	// ErrVerificationMailFailed is returned when the verification mail could not be delivered.
	ErrVerificationMailFailed = errors.New("failed to send verification email")

	// ErrSessionNotFound is returned when a session cannot be found by ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidRefreshToken is returned when a refresh token is unknown, revoked, expired
	// or not owned by the caller.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)
