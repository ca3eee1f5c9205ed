// Package accounts covers customer and vendor sign-up and login, guest
// checkout profiles and customer addresses.
//
// Sign-up is OTP first: RequestOTP creates an unverified account and mails
// a code, VerifyOTP marks it verified, Register sets the password.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/apperr"
	"storefront/auth"
	"storefront/globals"
	"storefront/models"
	"storefront/notify"
	"storefront/rdx"
	"storefront/store"
	"storefront/utils"
)

var (
	emailRe   = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
	phoneRe   = regexp.MustCompile(`^\d{10}$`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile("[*@#$!~^()_\\-+=<>?;:'\",`\\[\\]{}.]")
)

const otpLength = 6

// OTPStore holds one-time codes with a TTL. rdx.Client satisfies it;
// missing keys come back as rdx.ErrNil.
type OTPStore interface {
	RdxSet(ctx context.Context, key, value string, ttl time.Duration) error
	RdxGet(ctx context.Context, key string) (string, error)
	RdxDel(ctx context.Context, key string) error
}

type TokenIssuer interface {
	Issue(s auth.Subject) (string, time.Time, error)
}

type Service struct {
	store  store.Store
	otps   OTPStore
	tokens TokenIssuer
	sender notify.Sender
	log    *zap.Logger
	otpTTL time.Duration
	cost   int
	now    func() time.Time
}

func NewService(st store.Store, otps OTPStore, tokens TokenIssuer, sender notify.Sender, log *zap.Logger, otpTTL time.Duration) *Service {
	return &Service{
		store:  st,
		otps:   otps,
		tokens: tokens,
		sender: sender,
		log:    log,
		otpTTL: otpTTL,
		cost:   bcrypt.DefaultCost,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type LoginResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        models.Account `json:"user"`
}

func otpKey(role, email string) string {
	return fmt.Sprintf("otp:%s:%s", role, email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return apperr.Validation("Invalid email format.")
	}
	return nil
}

func validatePhone(phone string) error {
	if !phoneRe.MatchString(phone) {
		return apperr.Validation("Phone number must be 10 digits long.")
	}
	return nil
}

func validatePassword(pw string) error {
	if n := len(pw); n < 8 || n > 12 {
		return apperr.Validation("Password must be between 8 and 12 characters long.")
	}
	return nil
}

func validateStrongPassword(pw string) error {
	if validatePassword(pw) != nil || !upperRe.MatchString(pw) || !lowerRe.MatchString(pw) ||
		!digitRe.MatchString(pw) || !specialRe.MatchString(pw) {
		return apperr.Validation("Password must contain at least one uppercase letter, one lowercase letter, one number, one special character, and must be between 8-12 characters.")
	}
	return nil
}

func checkRole(role string) error {
	if role != globals.RoleCustomer && role != globals.RoleVendor {
		return apperr.Validation("unknown role %q", role)
	}
	return nil
}

// RequestOTP mails a sign-up code, creating the unverified account on first use.
func (s *Service) RequestOTP(ctx context.Context, role, email string) error {
	email = normalizeEmail(email)
	if err := checkRole(role); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		acct, err := tx.Accounts().ByEmail(ctx, role, email)
		switch {
		case errors.Is(err, store.ErrNotFound):
			now := s.now()
			return tx.Accounts().Insert(ctx, models.Account{
				ID: utils.GetUUID(), Role: role, Email: email, CreatedAt: now, UpdatedAt: now,
			})
		case err != nil:
			return err
		case acct.OTPVerified && acct.Registered():
			return apperr.Conflict("Email already registered.")
		}
		acct.OTPVerified = false
		acct.UpdatedAt = s.now()
		return tx.Accounts().Update(ctx, acct)
	})
	if err != nil {
		return err
	}
	return s.issueOTP(ctx, role, email)
}

func (s *Service) VerifyOTP(ctx context.Context, role, email, otp string) error {
	email = normalizeEmail(email)
	if err := checkRole(role); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		acct, err := s.byEmail(ctx, tx, role, email, "Email not found.")
		if err != nil {
			return err
		}
		if err := s.checkOTP(ctx, role, email, otp); err != nil {
			return err
		}
		acct.OTPVerified = true
		acct.UpdatedAt = s.now()
		return tx.Accounts().Update(ctx, acct)
	})
	if err != nil {
		return err
	}
	s.dropOTP(ctx, role, email)
	return nil
}

// Register completes sign-up for a verified email.
func (s *Service) Register(ctx context.Context, role string, req RegisterRequest) (models.Account, error) {
	email := normalizeEmail(req.Email)
	if err := checkRole(role); err != nil {
		return models.Account{}, err
	}
	if err := validateEmail(email); err != nil {
		return models.Account{}, err
	}
	if err := validatePassword(req.Password); err != nil {
		return models.Account{}, err
	}
	if req.PhoneNumber != "" {
		if err := validatePhone(req.PhoneNumber); err != nil {
			return models.Account{}, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	var acct models.Account
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		acct, err = tx.Accounts().ByEmail(ctx, role, email)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !acct.OTPVerified) {
			return apperr.Validation("OTP not verified for this email.")
		}
		if err != nil {
			return err
		}
		if acct.Registered() {
			return apperr.Conflict("User already registered.")
		}
		acct.Name = req.Name
		acct.PhoneNumber = req.PhoneNumber
		acct.PasswordHash = string(hash)
		acct.UpdatedAt = s.now()
		return tx.Accounts().Update(ctx, acct)
	})
	if err != nil {
		return models.Account{}, err
	}
	s.log.Info("account registered", zap.String("role", role), zap.String("account_id", acct.ID))
	return acct, nil
}

func (s *Service) Login(ctx context.Context, role, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	if err := checkRole(role); err != nil {
		return LoginResult{}, err
	}

	var acct models.Account
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		acct, err = tx.Accounts().ByEmail(ctx, role, email)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, apperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !acct.Registered() || bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, apperr.Unauthorized("Invalid credentials")
	}

	token, exp, err := s.tokens.Issue(auth.Subject{ID: acct.ID, Email: acct.Email, Name: acct.Name, Role: role})
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: token, TokenType: "bearer", ExpiresAt: exp, User: acct}, nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, role, email string) error {
	email = normalizeEmail(email)
	if err := checkRole(role); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		acct, err := s.byEmail(ctx, tx, role, email, "User with this email not found.")
		if err != nil {
			return err
		}
		acct.OTPVerified = false
		acct.UpdatedAt = s.now()
		return tx.Accounts().Update(ctx, acct)
	})
	if err != nil {
		return err
	}
	return s.issueOTP(ctx, role, email)
}

func (s *Service) ResetPassword(ctx context.Context, role, email, otp, newPassword string) error {
	email = normalizeEmail(email)
	if err := checkRole(role); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		acct, err := s.byEmail(ctx, tx, role, email, "User with this email not found.")
		if err != nil {
			return err
		}
		if err := s.checkOTP(ctx, role, email, otp); err != nil {
			return err
		}
		if err := validateStrongPassword(newPassword); err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		acct.PasswordHash = string(hash)
		acct.OTPVerified = true
		acct.UpdatedAt = s.now()
		return tx.Accounts().Update(ctx, acct)
	})
	if err != nil {
		return err
	}
	s.dropOTP(ctx, role, email)
	return nil
}

func (s *Service) Account(ctx context.Context, role, id string) (models.Account, error) {
	var acct models.Account
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		acct, err = getAccount(ctx, tx, role, id)
		return err
	})
	return acct, err
}

func (s *Service) Accounts(ctx context.Context, role string) ([]models.Account, error) {
	if err := checkRole(role); err != nil {
		return nil, err
	}
	var out []models.Account
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.Accounts().List(ctx, role)
		return err
	})
	if out == nil {
		out = []models.Account{}
	}
	return out, err
}

func (s *Service) UpdateAccount(ctx context.Context, role, id string, p models.AccountPatch) (models.Account, error) {
	if p.PhoneNumber != nil && *p.PhoneNumber != "" {
		if err := validatePhone(*p.PhoneNumber); err != nil {
			return models.Account{}, err
		}
	}
	var acct models.Account
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if acct, err = getAccount(ctx, tx, role, id); err != nil {
			return err
		}
		p.Apply(&acct)
		acct.UpdatedAt = s.now()
		return tx.Accounts().Update(ctx, acct)
	})
	if err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

func (s *Service) DeleteAccount(ctx context.Context, role, id string) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		err := tx.Accounts().Delete(ctx, role, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return err
	})
}

// issueOTP stores a fresh code and mails it. A failed send is logged; the
// code stays valid so the caller can ask again.
func (s *Service) issueOTP(ctx context.Context, role, email string) error {
	otp, err := utils.GenerateRandomDigitString(otpLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.otps.RdxSet(ctx, otpKey(role, email), otp, s.otpTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if err := s.sender.Send(ctx, "Your OTP Code", fmt.Sprintf("Your OTP is %s.", otp), email); err != nil {
		s.log.Warn("otp email failed", zap.String("email", email), zap.Error(err))
	}
	return nil
}

func (s *Service) checkOTP(ctx context.Context, role, email, otp string) error {
	want, err := s.otps.RdxGet(ctx, otpKey(role, email))
	if errors.Is(err, rdx.ErrNil) {
		return apperr.Validation("Invalid OTP.")
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}
	if otp == "" || otp != want {
		return apperr.Validation("Invalid OTP.")
	}
	return nil
}

func (s *Service) dropOTP(ctx context.Context, role, email string) {
	if err := s.otps.RdxDel(ctx, otpKey(role, email)); err != nil {
		s.log.Warn("drop otp", zap.String("email", email), zap.Error(err))
	}
}

func (s *Service) byEmail(ctx context.Context, tx store.Tx, role, email, notFound string) (models.Account, error) {
	acct, err := tx.Accounts().ByEmail(ctx, role, email)
	if errors.Is(err, store.ErrNotFound) {
		return acct, apperr.NotFound("%s", notFound)
	}
	return acct, err
}

func getAccount(ctx context.Context, tx store.Tx, role, id string) (models.Account, error) {
	acct, err := tx.Accounts().Get(ctx, role, id)
	if errors.Is(err, store.ErrNotFound) {
		return acct, apperr.NotFound("User not found")
	}
	return acct, err
}
