package account

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"userhub/account-api/model"
	"userhub/account-api/pkg/security"

	"github.com/stretchr/testify/require"
)

// --- fakes ---

type memStore struct {
	users map[string]*model.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*model.User)}
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) Create(_ context.Context, u *model.User) error {
	cp := *u
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) Save(_ context.Context, u *model.User) error {
	cp := *u
	cp.UpdatedAt = time.Now()
	m.users[u.ID] = &cp
	return nil
}

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(to, subject, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, HTML: html})
	return nil
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(context.Context, []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newTestService(t *testing.T) (*Service, *memStore, *fakeMailer, *fakeUploader) {
	t.Helper()

	store := newMemStore()
	mailer := &fakeMailer{}
	uploader := &fakeUploader{url: "https://img.example.com/pic.png"}

	svc := NewService(
		store,
		security.NewArgon(),
		security.NewTokenIssuer("test-secret", time.Hour),
		mailer,
		uploader,
	)

	return svc, store, mailer, uploader
}

func register(t *testing.T, svc *Service, email string) {
	t.Helper()
	err := svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "secret-123",
		Name:     "Ann",
	})
	require.NoError(t, err)
}

func pendingOtp(t *testing.T, store *memStore, email string) string {
	t.Helper()
	u, err := store.FindByEmail(context.Background(), NormalizeEmail(email))
	require.NoError(t, err)
	require.NotEmpty(t, u.Otp.Value)
	return u.Otp.Value
}

// --- tests ---

func TestRegisterCreatesUnverifiedAccountWithOtp(t *testing.T) {
	t.Parallel()

	svc, store, mailer, _ := newTestService(t)

	register(t, svc, "a@x.com")

	u, err := store.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.False(t, u.EmailVerified)
	require.Equal(t, model.RoleUser, u.Role)
	require.NotEmpty(t, u.ID)

	require.Len(t, u.Otp.Value, security.OtpLength)
	for _, r := range u.Otp.Value {
		require.True(t, r >= '0' && r <= '9')
	}
	require.True(t, u.Otp.ExpiresAt.After(time.Now()))

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "a@x.com", mailer.sent[0].To)
	require.Equal(t, "Your OTP Code", mailer.sent[0].Subject)
	require.Contains(t, mailer.sent[0].HTML, u.Otp.Value)
}

func TestRegisterHashesPassword(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newTestService(t)

	register(t, svc, "a@x.com")

	u, err := store.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u.PasswordHash, "$argon2id$"))
	require.NotContains(t, u.PasswordHash, "secret-123")
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)

	register(t, svc, "foo@bar.com")

	err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Foo@Bar.Com ",
		Password: "secret-123",
		Name:     "Imposter",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

// raceStore simulates a concurrent registration winning the unique
// index between the duplicate check and the insert
type raceStore struct {
	*memStore
}

func (r *raceStore) Create(context.Context, *model.User) error {
	return ErrEmailTaken
}

func TestRegisterDuplicateRaceAtCreate(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	svc := NewService(
		&raceStore{newMemStore()},
		security.NewArgon(),
		security.NewTokenIssuer("test-secret", time.Hour),
		mailer,
		&fakeUploader{},
	)

	err := svc.Register(context.Background(), RegisterInput{
		Email:    "a@x.com",
		Password: "secret-123",
		Name:     "Ann",
	})

	// The insert-time conflict surfaces as the same error the
	// pre-insert check produces, and no OTP mail goes out
	require.ErrorIs(t, err, ErrEmailTaken)
	require.Empty(t, mailer.sent)
}

func TestRegisterSucceedsWhenMailFails(t *testing.T) {
	t.Parallel()

	svc, store, mailer, _ := newTestService(t)
	mailer.err = errors.New("smtp down")

	register(t, svc, "a@x.com")

	// The OTP is committed even though the notification failed
	u, err := store.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, u.Otp.Value)
}

func TestVerifyRegistrationOtp(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newTestService(t)

	register(t, svc, "a@x.com")
	otp := pendingOtp(t, store, "a@x.com")

	err := svc.VerifyRegistrationOtp(context.Background(), "nobody@x.com", otp)
	require.ErrorIs(t, err, ErrNotFound)

	wrong := "0000"
	if otp == wrong {
		wrong = "1111"
	}
	err = svc.VerifyRegistrationOtp(context.Background(), "a@x.com", wrong)
	require.ErrorIs(t, err, ErrOtpMismatch)

	err = svc.VerifyRegistrationOtp(context.Background(), "A@X.com", otp)
	require.NoError(t, err)

	u, err := store.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.True(t, u.EmailVerified)
	require.Empty(t, u.Otp.Value)
	require.Equal(t, time.Unix(0, 0), u.Otp.ExpiresAt)

	// Single use: the same code fails the second time
	err = svc.VerifyRegistrationOtp(context.Background(), "a@x.com", otp)
	require.ErrorIs(t, err, ErrOtpMismatch)
}

func TestVerifyOtpExpiry(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newTestService(t)

	start := time.Now()
	svc.now = func() time.Time { return start }

	register(t, svc, "slow@x.com")
	otp := pendingOtp(t, store, "slow@x.com")

	// One second past the 10 minute window
	svc.now = func() time.Time { return start.Add(10*time.Minute + time.Second) }
	err := svc.VerifyRegistrationOtp(context.Background(), "slow@x.com", otp)
	require.ErrorIs(t, err, ErrOtpExpired)

	// Just inside the window it still works
	svc.now = func() time.Time { return start.Add(9*time.Minute + 59*time.Second) }
	err = svc.VerifyRegistrationOtp(context.Background(), "slow@x.com", otp)
	require.NoError(t, err)
}

func TestResendOtp(t *testing.T) {
	t.Parallel()

	svc, store, mailer, _ := newTestService(t)

	err := svc.ResendOtp(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, ErrNotFound)

	register(t, svc, "a@x.com")
	first := pendingOtp(t, store, "a@x.com")

	err = svc.ResendOtp(context.Background(), "a@x.com")
	require.NoError(t, err)

	second := pendingOtp(t, store, "a@x.com")
	require.Len(t, second, security.OtpLength)
	require.Len(t, mailer.sent, 2)

	// The old code is gone; only the latest one verifies
	if first != second {
		err = svc.VerifyRegistrationOtp(context.Background(), "a@x.com", first)
		require.ErrorIs(t, err, ErrOtpMismatch)
	}

	err = svc.VerifyRegistrationOtp(context.Background(), "a@x.com", second)
	require.NoError(t, err)

	err = svc.ResendOtp(context.Background(), "a@x.com")
	require.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "nobody@x.com", "whatever-1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	register(t, svc, "a@x.com")

	// Correct password, but the email gate comes first
	_, err = svc.Login(context.Background(), "a@x.com", "secret-123")
	require.ErrorIs(t, err, ErrEmailNotVerified)

	otp := pendingOtp(t, store, "a@x.com")
	require.NoError(t, svc.VerifyRegistrationOtp(context.Background(), "a@x.com", otp))

	_, err = svc.Login(context.Background(), "a@x.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Mixed-case address still matches the stored account
	result, err := svc.Login(context.Background(), "A@X.Com", "secret-123")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, "a@x.com", result.User.Email)
	require.Equal(t, "Ann", result.User.Name)
	require.Equal(t, model.RoleUser, result.User.Role)

	claims, err := security.NewTokenIssuer("test-secret", time.Hour).Verify(result.Token)
	require.NoError(t, err)
	require.Equal(t, result.User.ID, claims.Subject)
	require.Equal(t, model.RoleUser, claims.Role)
	require.Equal(t, "a@x.com", claims.Email)
}

func TestForgotPasswordFlow(t *testing.T) {
	t.Parallel()

	svc, store, mailer, _ := newTestService(t)

	err := svc.RequestPasswordResetOtp(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, ErrNotFound)

	register(t, svc, "a@x.com")
	otp := pendingOtp(t, store, "a@x.com")
	require.NoError(t, svc.VerifyRegistrationOtp(context.Background(), "a@x.com", otp))

	err = svc.RequestPasswordResetOtp(context.Background(), "a@x.com")
	require.NoError(t, err)

	require.Len(t, mailer.sent, 2)
	require.Equal(t, "Your OTP Code for Password Reset", mailer.sent[1].Subject)

	resetOtp := pendingOtp(t, store, "a@x.com")

	wrong := "0000"
	if resetOtp == wrong {
		wrong = "1111"
	}
	_, err = svc.VerifyPasswordResetOtp(context.Background(), "a@x.com", wrong)
	require.ErrorIs(t, err, ErrOtpMismatch)

	token, err := svc.VerifyPasswordResetOtp(context.Background(), "a@x.com", resetOtp)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Code burned on use
	_, err = svc.VerifyPasswordResetOtp(context.Background(), "a@x.com", resetOtp)
	require.ErrorIs(t, err, ErrOtpMismatch)

	claims, err := security.NewTokenIssuer("test-secret", time.Hour).Verify(token)
	require.NoError(t, err)

	// Reset requires no old password, only the token identity
	err = svc.ResetPassword(context.Background(), claims.Subject, "brand-new-pass")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "a@x.com", "secret-123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "a@x.com", "brand-new-pass")
	require.NoError(t, err)
}

func TestResetPasswordUnknownIdentity(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)

	err := svc.ResetPassword(context.Background(), "ghost-id", "whatever-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newTestService(t)

	err := svc.UpdatePassword(context.Background(), "ghost-id", "a", "b")
	require.ErrorIs(t, err, ErrNotFound)

	register(t, svc, "a@x.com")
	otp := pendingOtp(t, store, "a@x.com")
	require.NoError(t, svc.VerifyRegistrationOtp(context.Background(), "a@x.com", otp))

	u, err := store.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	err = svc.UpdatePassword(context.Background(), u.ID, "wrong-old", "new-password-1")
	require.ErrorIs(t, err, ErrWrongPassword)

	err = svc.UpdatePassword(context.Background(), u.ID, "secret-123", "new-password-1")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "a@x.com", "new-password-1")
	require.NoError(t, err)
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	svc, store, _, _ := newTestService(t)

	_, err := svc.GetProfile(context.Background(), "ghost-id")
	require.ErrorIs(t, err, ErrNotFound)

	register(t, svc, "a@x.com")

	u, err := store.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	profile, err := svc.GetProfile(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, profile.ID)
	require.Equal(t, "Ann", profile.Name)
	require.Equal(t, "a@x.com", profile.Email)
}

func TestUpdateProfileImage(t *testing.T) {
	t.Parallel()

	svc, store, _, uploader := newTestService(t)

	_, err := svc.UpdateProfileImage(context.Background(), "ghost-id", []byte("img"))
	require.ErrorIs(t, err, ErrNotFound)

	register(t, svc, "a@x.com")

	u, err := store.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	url, err := svc.UpdateProfileImage(context.Background(), u.ID, []byte("img"))
	require.NoError(t, err)
	require.Equal(t, "https://img.example.com/pic.png", url)

	profile, err := svc.GetProfile(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, url, profile.ProfileImage)

	uploader.err = errors.New("bucket unavailable")
	_, err = svc.UpdateProfileImage(context.Background(), u.ID, []byte("img"))
	require.ErrorIs(t, err, ErrUploadFailed)
}
