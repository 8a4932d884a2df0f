package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"userhub/account-api/model"
	"userhub/account-api/pkg/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// otpTTL is how long a one-time code stays valid after issuance
const otpTTL = 10 * time.Minute

// Sender dispatches a transactional email. A failed send is logged and
// does not abort the operation that triggered it.
type Sender interface {
	Send(to, subject, html string) error
}

// Uploader stores a binary image and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

// Profile is the sanitized account projection returned to callers.
// It never carries the password hash.
type Profile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type LoginResult struct {
	Token string
	User  Profile
}

// Service orchestrates the account lifecycle. Hashing, OTP generation
// and token signing are explicit steps here rather than entity hooks,
// so each one stays visible and testable.
type Service struct {
	store  Store
	argon  *security.ArgonHash
	tokens *security.TokenIssuer
	mail   Sender
	media  Uploader

	now func() time.Time
}

func NewService(store Store, argon *security.ArgonHash, tokens *security.TokenIssuer, mail Sender, media Uploader) *Service {
	return &Service{
		store:  store,
		argon:  argon,
		tokens: tokens,
		mail:   mail,
		media:  media,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates an unverified account with a pending OTP and mails
// the code to the new address. No token is returned: verification and
// login are separate steps.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	email := NormalizeEmail(in.Email)

	_, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}
	if err != ErrNotFound {
		return err
	}

	hash, err := s.argon.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	otp, err := security.GenerateOtp()
	if err != nil {
		return fmt.Errorf("failed to generate OTP, %w", err)
	}

	id, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return fmt.Errorf("failed to generate user ID, %w", err)
	}

	user := &model.User{
		ID:           id,
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Otp: model.Otp{
			Value:     otp,
			ExpiresAt: s.now().Add(otpTTL),
		},
	}

	if err := s.store.Create(ctx, user); err != nil {
		// A concurrent registration can win the unique index between
		// the lookup above and this insert
		if errors.Is(err, ErrEmailTaken) {
			return ErrEmailTaken
		}

		return fmt.Errorf("failed to create user, %w", err)
	}

	s.sendOtpMail(user, otp, false)

	return nil
}

// Login checks the credentials and the verification gate, then signs a
// bearer token. Unknown email and wrong password report the same error
// so accounts can't be enumerated here.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	ok, err := s.argon.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	token, err := s.signToken(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token: token,
		User:  sanitize(user),
	}, nil
}

// VerifyRegistrationOtp flips the account to verified and burns the
// code. Both happen in the same persisted update so a code can never
// be used twice.
func (s *Service) VerifyRegistrationOtp(ctx context.Context, email, otp string) error {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}

	if err := s.checkOtp(user, otp); err != nil {
		return err
	}

	user.EmailVerified = true
	clearOtp(user)

	if err := s.store.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save user, %w", err)
	}

	return nil
}

// ResendOtp regenerates the registration code for a still-unverified
// account, overwriting whatever code was pending before
func (s *Service) ResendOtp(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}

	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	otp, err := s.issueOtp(ctx, user)
	if err != nil {
		return err
	}

	s.sendOtpMail(user, otp, false)

	return nil
}

// RequestPasswordResetOtp issues a fresh code regardless of the
// account's verification state and mails it with the reset subject
func (s *Service) RequestPasswordResetOtp(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}

	otp, err := s.issueOtp(ctx, user)
	if err != nil {
		return err
	}

	s.sendOtpMail(user, otp, true)

	return nil
}

// VerifyPasswordResetOtp burns the code and immediately returns a
// bearer token, authorizing a password reset without a second login
func (s *Service) VerifyPasswordResetOtp(ctx context.Context, email, otp string) (string, error) {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", err
	}

	if err := s.checkOtp(user, otp); err != nil {
		return "", err
	}

	clearOtp(user)

	if err := s.store.Save(ctx, user); err != nil {
		return "", fmt.Errorf("failed to save user, %w", err)
	}

	return s.signToken(user)
}

// ResetPassword overwrites the password without an old-password check.
// The caller already proved OTP possession to get here.
func (s *Service) ResetPassword(ctx context.Context, userID, newPassword string) error {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := s.argon.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	user.PasswordHash = hash

	if err := s.store.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save user, %w", err)
	}

	return nil
}

func (s *Service) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.argon.VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password, %w", err)
	}
	if !ok {
		return ErrWrongPassword
	}

	hash, err := s.argon.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	user.PasswordHash = hash

	if err := s.store.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save user, %w", err)
	}

	return nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (Profile, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	return sanitize(user), nil
}

// UpdateProfileImage uploads the image and persists the returned
// public URL on the account
func (s *Service) UpdateProfileImage(ctx context.Context, userID string, data []byte) (string, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}

	url, err := s.media.Upload(ctx, data)
	if err != nil {
		zap.L().Error("Failed to upload profile image", zap.Error(err), zap.String("userID", userID))
		return "", ErrUploadFailed
	}

	user.ProfileImage = url

	if err := s.store.Save(ctx, user); err != nil {
		return "", fmt.Errorf("failed to save user, %w", err)
	}

	return url, nil
}

// checkOtp validates the submitted code against the pending one.
// Exact string match, then expiry.
func (s *Service) checkOtp(user *model.User, otp string) error {
	if user.Otp.Value == "" || user.Otp.Value != otp {
		return ErrOtpMismatch
	}

	if s.now().After(user.Otp.ExpiresAt) {
		return ErrOtpExpired
	}

	return nil
}

func (s *Service) issueOtp(ctx context.Context, user *model.User) (string, error) {
	otp, err := security.GenerateOtp()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP, %w", err)
	}

	user.Otp = model.Otp{
		Value:     otp,
		ExpiresAt: s.now().Add(otpTTL),
	}

	if err := s.store.Save(ctx, user); err != nil {
		return "", fmt.Errorf("failed to save user, %w", err)
	}

	return otp, nil
}

// sendOtpMail delivers the code. The OTP is already committed at this
// point, so a failed send only degrades the outcome and is logged
// instead of aborting the request.
func (s *Service) sendOtpMail(user *model.User, otp string, reset bool) {
	subject := "Your OTP Code"
	body := fmt.Sprintf("<strong>Hi %s, your OTP code is %s. It will expire in 10 minutes.</strong>", user.Name, otp)

	if reset {
		subject = "Your OTP Code for Password Reset"
		body = fmt.Sprintf("<strong>Hi %s, your OTP code for password reset is %s. It will expire in 10 minutes.</strong>", user.Name, otp)
	}

	if err := s.mail.Send(user.Email, subject, body); err != nil {
		zap.L().Error("Failed to send OTP email", zap.Error(err), zap.String("userID", user.ID))
	}
}

func (s *Service) signToken(user *model.User) (string, error) {
	token, err := s.tokens.Sign(security.Claims{
		Subject: user.ID,
		Role:    user.Role,
		Email:   user.Email,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign token, %w", err)
	}

	return token, nil
}

// clearOtp burns a used code: empty value, epoch expiry
func clearOtp(user *model.User) {
	user.Otp = model.Otp{
		Value:     "",
		ExpiresAt: time.Unix(0, 0),
	}
}

func sanitize(u *model.User) Profile {
	return Profile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
