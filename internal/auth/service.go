// Package auth registers customers, issues JWTs, runs the OTP password reset
// flow and decides who may call admin endpoints.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ariefcatur/go-chipstore/internal/apperr"
	"github.com/ariefcatur/go-chipstore/internal/catalog"
	"github.com/ariefcatur/go-chipstore/internal/logx"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var tracer = otel.Tracer("auth")

const bcryptCost = 10

type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, u *User) error
	SetResetOTP(ctx context.Context, userID, otp string, expiry time.Time) error
	ExchangeOTP(ctx context.Context, email, otp string, now time.Time, token string, tokenExpiry time.Time) (*User, error)
	ResetPassword(ctx context.Context, token, hash string, now time.Time) (*User, error)
	ToggleWishlist(ctx context.Context, userID, productID string) (bool, error)
	Wishlist(ctx context.Context, userID string) ([]string, error)
}

var _ UserStore = (*Repo)(nil)

type AccountMailer interface {
	SendResetOTP(ctx context.Context, to, name, otp string, ttl time.Duration) error
	SendPasswordChanged(ctx context.Context, to, name string) error
}

type Products interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	GetMany(ctx context.Context, ids []string) ([]catalog.Product, error)
}

type Options struct {
	TokenTTL      time.Duration
	AdminTokenTTL time.Duration
	OTPTTL        time.Duration
	ResetTokenTTL time.Duration
	Now           func() time.Time
}

type Service struct {
	users    UserStore
	tokens   *TokenIssuer
	mailer   AccountMailer
	products Products
	logger   *zap.Logger
	validate *validator.Validate
	opts     Options
}

func NewService(users UserStore, tokens *TokenIssuer, mailer AccountMailer, products Products, logger *zap.Logger, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 7 * 24 * time.Hour
	}
	if opts.AdminTokenTTL <= 0 {
		opts.AdminTokenTTL = 24 * time.Hour
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 5 * time.Minute
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = 15 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		mailer:   mailer,
		products: products,
		logger:   logger,
		validate: apperr.NewValidator(),
		opts:     opts,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.FromValidation("please provide all required fields", err)
	}
	fields := map[string]string{}
	if msg := validateName(req.Name); msg != "" {
		fields["name"] = msg
	}
	if msg := validatePassword(req.Password); msg != "" {
		fields["password"] = msg
	}
	phone := normalizePhone(req.Phone)
	if msg := validatePhone(phone); msg != "" {
		fields["phone"] = msg
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid("invalid registration", fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, apperr.Internal("failed to register", err)
	}
	u := &User{Name: req.Name, Email: req.Email, Phone: phone, Role: RoleUser, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperr.Conflict("user already exists with this email")
		}
		logx.Error(ctx, s.logger, "create user failed", zap.Error(err))
		return nil, apperr.Internal("failed to register", err)
	}
	logx.Info(ctx, s.logger, "user registered", zap.String("user_id", u.ID))
	return s.session(u, s.opts.TokenTTL)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.FromValidation("please provide email and password", err)
	}
	u, err := s.checkPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.session(u, s.opts.TokenTTL)
}

func (s *Service) AdminLogin(ctx context.Context, req AdminLoginRequest) (*Session, error) {
	ctx, span := tracer.Start(ctx, "AuthService.AdminLogin")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.FromValidation("please provide username and password", err)
	}
	u, err := s.checkPassword(ctx, adminLoginEmail(req.Username), req.Password)
	if err != nil {
		return nil, apperr.Unauthorized("invalid admin credentials")
	}
	if u.Role != RoleAdmin {
		return nil, apperr.Unauthorized("invalid admin credentials")
	}
	return s.session(u, s.opts.AdminTokenTTL)
}

func (s *Service) checkPassword(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.InvalidArgument("invalid credentials")
	}
	if err != nil {
		logx.Error(ctx, s.logger, "load user failed", zap.Error(err))
		return nil, apperr.Internal("failed to log in", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperr.InvalidArgument("invalid credentials")
	}
	return u, nil
}

func (s *Service) session(u *User, ttl time.Duration) (*Session, error) {
	tok, err := s.tokens.Issue(u.Principal(), ttl)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}
	return &Session{Token: tok, User: *u}, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load profile", err)
	}
	return u, nil
}

// UpdateProfile changes only the fields that are present.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error) {
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Email = normalizeEmail(upd.Email)
	if err := s.validate.Struct(upd); err != nil {
		return nil, apperr.FromValidation("invalid profile", err)
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Name != "" {
		if msg := validateName(upd.Name); msg != "" {
			return nil, apperr.Invalid("invalid profile", map[string]string{"name": msg})
		}
		u.Name = upd.Name
	}
	if upd.Email != "" {
		u.Email = upd.Email
	}
	if upd.Phone != "" {
		phone := normalizePhone(upd.Phone)
		if msg := validatePhone(phone); msg != "" {
			return nil, apperr.Invalid("invalid profile", map[string]string{"phone": msg})
		}
		u.Phone = phone
	}
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			return nil, apperr.Conflict("email already in use")
		case errors.Is(err, ErrUserNotFound):
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to update profile", err)
	}
	return u, nil
}

// ForgotPassword stores a fresh OTP and mails it. A mail failure is logged, not returned.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "AuthService.ForgotPassword")
	defer span.End()

	email = normalizeEmail(email)
	if email == "" {
		return apperr.InvalidArgument("email is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return apperr.NotFound("no account found with this email")
	}
	if err != nil {
		return apperr.Internal("failed to start password reset", err)
	}

	otp, err := newOTP()
	if err != nil {
		return apperr.Internal("failed to start password reset", err)
	}
	if err := s.users.SetResetOTP(ctx, u.ID, otp, s.opts.Now().Add(s.opts.OTPTTL)); err != nil {
		logx.Error(ctx, s.logger, "store otp failed", zap.String("user_id", u.ID), zap.Error(err))
		return apperr.Internal("failed to start password reset", err)
	}
	if err := s.mailer.SendResetOTP(ctx, u.Email, u.Name, otp, s.opts.OTPTTL); err != nil {
		logx.Warn(ctx, s.logger, "otp email failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	return nil
}

// VerifyOTP trades a valid OTP for a single-use reset token.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	email, otp = normalizeEmail(email), strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return "", apperr.InvalidArgument("email and otp are required")
	}
	token, err := newResetToken()
	if err != nil {
		return "", apperr.Internal("failed to verify otp", err)
	}
	now := s.opts.Now()
	if _, err := s.users.ExchangeOTP(ctx, email, otp, now, token, now.Add(s.opts.ResetTokenTTL)); err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			return "", apperr.InvalidArgument("invalid or expired otp")
		}
		return "", apperr.Internal("failed to verify otp", err)
	}
	return token, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	ctx, span := tracer.Start(ctx, "AuthService.ResetPassword")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.InvalidArgument("reset token is required")
	}
	if msg := validatePassword(password); msg != "" {
		return apperr.Invalid("invalid password", map[string]string{"password": msg})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return apperr.Internal("failed to reset password", err)
	}
	u, err := s.users.ResetPassword(ctx, token, string(hash), s.opts.Now())
	if err != nil {
		if errors.Is(err, ErrInvalidReset) {
			return apperr.InvalidArgument("invalid or expired reset token")
		}
		return apperr.Internal("failed to reset password", err)
	}
	if err := s.mailer.SendPasswordChanged(ctx, u.Email, u.Name); err != nil {
		logx.Warn(ctx, s.logger, "password changed email failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	logx.Info(ctx, s.logger, "password reset", zap.String("user_id", u.ID))
	return nil
}

func (s *Service) ToggleWishlist(ctx context.Context, userID, productID string) (bool, []catalog.Product, error) {
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return false, nil, err
	}
	added, err := s.users.ToggleWishlist(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, ErrUnknownRef) {
			return false, nil, apperr.NotFound("user or product not found")
		}
		return false, nil, apperr.Internal("failed to update wishlist", err)
	}
	list, err := s.Wishlist(ctx, userID)
	return added, list, err
}

func (s *Service) Wishlist(ctx context.Context, userID string) ([]catalog.Product, error) {
	ids, err := s.users.Wishlist(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load wishlist", err)
	}
	return s.products.GetMany(ctx, ids)
}

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
