package service

import (
	"context"
	"errors"
	"fmt"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/internal/store"
	"hungrypanda/hub-api/pkg/security"
	"hungrypanda/hub-api/pkg/validators"
	"strings"
)

var (
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("incorrect email or password")
)

type SignupRequest struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

// Accounts handles the password based signup and login flow
type Accounts struct {
	users store.Users
	argon *security.ArgonHash
}

func NewAccounts(users store.Users, argon *security.ArgonHash) *Accounts {
	return &Accounts{users: users, argon: argon}
}

func (a *Accounts) Signup(ctx context.Context, r *SignupRequest) (*model.User, error) {
	email := store.NormalizeEmail(r.Email)
	username := strings.TrimSpace(r.Username)

	if err := validators.EmailValidator(email); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := validators.UsernameValidator(username); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := validators.PasswordValidator(r.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	hash, err := a.argon.Hash(r.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	u := &model.User{
		Email:        email,
		Username:     username,
		FullName:     r.FullName,
		PasswordHash: hash,
		IsActive:     true,
	}

	if err := a.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user, %w", err)
	}

	return u, nil
}

// Login checks the password of the user registered under email. Users that
// only ever used magic links have no password and always fail.
func (a *Accounts) Login(ctx context.Context, email, password string) (*model.User, error) {
	u, err := a.users.GetByEmail(ctx, store.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	if u.PasswordHash == "" || !u.IsActive {
		return nil, ErrBadCredentials
	}

	ok, err := a.argon.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, ErrBadCredentials
	}

	return u, nil
}
