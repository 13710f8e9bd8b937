package domain

import (
	"context"
	"errors"
)

type SignUpRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Tenants  []string `json:"tenants"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResult struct {
	Token         string   `json:"token"`
	User          UserView `json:"user"`
	Tenants       []string `json:"tenants"`
	DefaultTenant string   `json:"defaultTenant"`
}

type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (*User, error)
	SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error)
	// Authenticate verifies a bearer token and returns its claims.
	Authenticate(token string) (*Claims, error)
}

var (
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
)
