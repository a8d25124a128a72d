// Package auth provides admin accounts, session tokens and authentication
// middleware.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/agroscan/agroscan/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Mode selects how logins are checked.
type Mode string

const (
	// ModeLocal verifies passwords against stored accounts.
	ModeLocal Mode = "local"
	// ModeDemo accepts any non-empty username and password.
	ModeDemo Mode = "demo"
)

var (
	ErrMissingFields      = errors.New("all fields are required")
	ErrMissingCredentials = errors.New("please enter both username and password")
	ErrInvalidEmail       = errors.New("please enter a valid email address")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameTaken      = store.ErrUsernameTaken
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Registration is the admin register form.
type Registration struct {
	FullName string
	Email    string
	Username string
	Password string
	Confirm  string
}

// Validate checks the form without touching storage.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.FullName) == "" ||
		strings.TrimSpace(r.Email) == "" ||
		strings.TrimSpace(r.Username) == "" ||
		strings.TrimSpace(r.Password) == "" {
		return ErrMissingFields
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ErrInvalidEmail
	}
	if r.Password != r.Confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// Session is an issued login.
type Session struct {
	Token    string
	Expires  time.Time
	Username string
}

// Service registers and logs in admin accounts.
type Service struct {
	accounts store.Accounts
	tokens   *Tokens
	mode     Mode
	cost     int
}

// NewService creates an account service.
func NewService(accounts store.Accounts, tokens *Tokens, mode Mode) *Service {
	if mode == "" {
		mode = ModeLocal
	}
	return &Service{accounts: accounts, tokens: tokens, mode: mode, cost: bcrypt.DefaultCost}
}

// Mode returns the login mode.
func (s *Service) Mode() Mode {
	return s.mode
}

// Tokens returns the session token signer.
func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// Register validates the form and creates the account.
func (s *Service) Register(ctx context.Context, r Registration) (*store.Account, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	a := &store.Account{
		FullName:     strings.TrimSpace(r.FullName),
		Email:        strings.TrimSpace(r.Email),
		Username:     strings.TrimSpace(r.Username),
		PasswordHash: hash,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, ErrMissingCredentials
	}

	name, email := username, ""
	if s.mode != ModeDemo {
		a, err := s.accounts.GetByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("failed to load account: %w", err)
		}
		if a == nil {
			return nil, ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		username, name, email = a.Username, a.FullName, a.Email
	}

	token, expires, err := s.tokens.Issue(username, name, email)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Expires: expires, Username: username}, nil
}
