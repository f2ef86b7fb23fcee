package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-chipstore/internal/apperr"
	"github.com/ariefcatur/go-chipstore/internal/catalog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu       sync.Mutex
	users    map[string]*User
	otp      map[string]otpEntry
	reset    map[string]otpEntry
	wishlist map[string][]string
}

type otpEntry struct {
	value  string
	userID string
	expiry time.Time
}

func newMemUsers() *memUsers {
	return &memUsers{
		users:    map[string]*User{},
		otp:      map[string]otpEntry{},
		reset:    map[string]otpEntry{},
		wishlist: map[string][]string{},
	}
}

func (m *memUsers) byEmail(email string) *User {
	for _, u := range m.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (m *memUsers) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byEmail(u.Email) != nil {
		return ErrEmailTaken
	}
	u.ID = uuid.NewString()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byEmail(email)
	if u == nil {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if other := m.byEmail(u.Email); other != nil && other.ID != u.ID {
		return ErrEmailTaken
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) SetResetOTP(_ context.Context, userID, otp string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otp[userID] = otpEntry{value: otp, userID: userID, expiry: expiry}
	return nil
}

func (m *memUsers) ExchangeOTP(_ context.Context, email, otp string, now time.Time, token string, tokenExpiry time.Time) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byEmail(email)
	if u == nil {
		return nil, ErrInvalidOTP
	}
	e, ok := m.otp[u.ID]
	if !ok || e.value != otp || !now.Before(e.expiry) {
		return nil, ErrInvalidOTP
	}
	delete(m.otp, u.ID)
	m.reset[token] = otpEntry{value: token, userID: u.ID, expiry: tokenExpiry}
	cp := *u
	return &cp, nil
}

func (m *memUsers) ResetPassword(_ context.Context, token, hash string, now time.Time) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.reset[token]
	if !ok || !now.Before(e.expiry) {
		return nil, ErrInvalidReset
	}
	delete(m.reset, token)
	u := m.users[e.userID]
	u.PasswordHash = hash
	cp := *u
	return &cp, nil
}

func (m *memUsers) ToggleWishlist(_ context.Context, userID, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.wishlist[userID]
	for i, id := range ids {
		if id == productID {
			m.wishlist[userID] = append(ids[:i], ids[i+1:]...)
			return false, nil
		}
	}
	m.wishlist[userID] = append(ids, productID)
	return true, nil
}

func (m *memUsers) Wishlist(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.wishlist[userID]...), nil
}

type sentMail struct {
	kind, to, otp string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (r *recordingMailer) SendResetOTP(_ context.Context, to, _ string, otp string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{kind: "otp", to: to, otp: otp})
	return r.fail
}

func (r *recordingMailer) SendPasswordChanged(_ context.Context, to, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{kind: "changed", to: to})
	return r.fail
}

type fixedProducts map[string]catalog.Product

func (f fixedProducts) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := f[id]
	if !ok {
		return nil, apperr.NotFound("product not found")
	}
	return &p, nil
}

func (f fixedProducts) GetMany(_ context.Context, ids []string) ([]catalog.Product, error) {
	out := []catalog.Product{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type AuthServiceSuite struct {
	suite.Suite
	users    *memUsers
	mailer   *recordingMailer
	issuer   *TokenIssuer
	products fixedProducts
	now      time.Time
	svc      *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.users = newMemUsers()
	s.mailer = &recordingMailer{}
	s.issuer = NewTokenIssuer("test-secret")
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.products = fixedProducts{
		"p1": {ID: "p1", Name: "Salted Classic"},
		"p2": {ID: "p2", Name: "Masala Twist"},
	}
	s.svc = NewService(s.users, s.issuer, s.mailer, s.products, zap.NewNop(), Options{
		Now: func() time.Time { return s.now },
	})
}

func (s *AuthServiceSuite) register(email string) *Session {
	sess, err := s.svc.Register(context.Background(), RegisterRequest{
		Name: "Asha Rao", Email: email, Password: "Secret1", Phone: "98765 43210",
	})
	s.Require().NoError(err)
	return sess
}

func (s *AuthServiceSuite) TestRegister_IssuesToken() {
	sess := s.register("Asha@Example.com ")
	s.Equal("asha@example.com", sess.User.Email)
	s.Equal("9876543210", sess.User.Phone)
	s.Equal(RoleUser, sess.User.Role)

	p, err := s.issuer.Parse(sess.Token)
	s.Require().NoError(err)
	s.Equal(sess.User.ID, p.ID)
}

func (s *AuthServiceSuite) TestRegister_Duplicate() {
	s.register("asha@example.com")
	_, err := s.svc.Register(context.Background(), RegisterRequest{
		Name: "Asha Two", Email: "ASHA@example.com", Password: "Secret1", Phone: "9876543210",
	})
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
}

func (s *AuthServiceSuite) TestRegister_ValidationFields() {
	_, err := s.svc.Register(context.Background(), RegisterRequest{
		Name: "A1", Email: "a@example.com", Password: "weak", Phone: "123",
	})
	s.Require().Error(err)
	_, fields := apperr.Public(err)
	s.Contains(fields, "name")
	s.Contains(fields, "password")
	s.Contains(fields, "phone")
}

func (s *AuthServiceSuite) TestLogin() {
	s.register("asha@example.com")

	sess, err := s.svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "Secret1"})
	s.Require().NoError(err)
	s.NotEmpty(sess.Token)

	_, err = s.svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "Wrong1"})
	s.Equal(apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = s.svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "Secret1"})
	s.Equal(apperr.KindInvalidArgument, apperr.KindOf(err))
}

func (s *AuthServiceSuite) TestAdminLogin() {
	hash, err := bcrypt.GenerateFromPassword([]byte("Admin123"), bcrypt.MinCost)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(context.Background(), &User{
		Name: "Admin", Email: "admin@chipsstore.com", Role: RoleAdmin, PasswordHash: string(hash),
	}))

	sess, err := s.svc.AdminLogin(context.Background(), AdminLoginRequest{Username: "admin", Password: "Admin123"})
	s.Require().NoError(err)
	p, err := s.issuer.Parse(sess.Token)
	s.Require().NoError(err)
	s.True(p.IsAdmin())

	s.register("asha@example.com")
	_, err = s.svc.AdminLogin(context.Background(), AdminLoginRequest{Username: "asha@example.com", Password: "Secret1"})
	s.Equal(apperr.KindUnauthorized, apperr.KindOf(err))
}

func (s *AuthServiceSuite) TestUpdateProfile_PartialFields() {
	sess := s.register("asha@example.com")

	u, err := s.svc.UpdateProfile(context.Background(), sess.User.ID, ProfileUpdate{Name: "Asha Menon"})
	s.Require().NoError(err)
	s.Equal("Asha Menon", u.Name)
	s.Equal("asha@example.com", u.Email)
	s.Equal("9876543210", u.Phone)

	s.register("ravi@example.com")
	_, err = s.svc.UpdateProfile(context.Background(), sess.User.ID, ProfileUpdate{Email: "ravi@example.com"})
	s.Equal(apperr.KindConflict, apperr.KindOf(err))
}

func (s *AuthServiceSuite) TestPasswordResetFlow() {
	ctx := context.Background()
	s.register("asha@example.com")

	s.Require().NoError(s.svc.ForgotPassword(ctx, "asha@example.com"))
	s.Require().Len(s.mailer.sent, 1)
	otp := s.mailer.sent[0].otp
	s.Len(otp, 6)

	_, err := s.svc.VerifyOTP(ctx, "asha@example.com", "000000x")
	s.Equal(apperr.KindInvalidArgument, apperr.KindOf(err))

	token, err := s.svc.VerifyOTP(ctx, "asha@example.com", otp)
	s.Require().NoError(err)
	s.Len(token, 64)

	// the OTP is single use
	_, err = s.svc.VerifyOTP(ctx, "asha@example.com", otp)
	s.Equal(apperr.KindInvalidArgument, apperr.KindOf(err))

	s.Require().NoError(s.svc.ResetPassword(ctx, token, "NewPass9"))
	s.Equal("changed", s.mailer.sent[len(s.mailer.sent)-1].kind)

	_, err = s.svc.Login(ctx, LoginRequest{Email: "asha@example.com", Password: "NewPass9"})
	s.NoError(err)

	err = s.svc.ResetPassword(ctx, token, "Another9")
	s.Equal(apperr.KindInvalidArgument, apperr.KindOf(err))
}

func (s *AuthServiceSuite) TestVerifyOTP_Expired() {
	ctx := context.Background()
	s.register("asha@example.com")
	s.Require().NoError(s.svc.ForgotPassword(ctx, "asha@example.com"))
	otp := s.mailer.sent[0].otp

	s.now = s.now.Add(6 * time.Minute)
	_, err := s.svc.VerifyOTP(ctx, "asha@example.com", otp)
	s.Equal(apperr.KindInvalidArgument, apperr.KindOf(err))
}

func (s *AuthServiceSuite) TestForgotPassword_UnknownAndMailFailure() {
	ctx := context.Background()
	err := s.svc.ForgotPassword(ctx, "nobody@example.com")
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))

	s.register("asha@example.com")
	s.mailer.fail = context.DeadlineExceeded
	s.NoError(s.svc.ForgotPassword(ctx, "asha@example.com"))
}

func (s *AuthServiceSuite) TestResetPassword_WeakPassword() {
	err := s.svc.ResetPassword(context.Background(), "tok", "weak")
	s.Equal(apperr.KindInvalidArgument, apperr.KindOf(err))
}

func (s *AuthServiceSuite) TestWishlistToggle() {
	ctx := context.Background()
	sess := s.register("asha@example.com")

	added, list, err := s.svc.ToggleWishlist(ctx, sess.User.ID, "p1")
	s.Require().NoError(err)
	s.True(added)
	s.Len(list, 1)

	added, list, err = s.svc.ToggleWishlist(ctx, sess.User.ID, "p1")
	s.Require().NoError(err)
	s.False(added)
	s.Empty(list)

	_, _, err = s.svc.ToggleWishlist(ctx, sess.User.ID, "missing")
	s.Equal(apperr.KindNotFound, apperr.KindOf(err))
}
