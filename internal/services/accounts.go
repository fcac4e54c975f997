package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/geocoder89/socialfeed/internal/actorctx"
	"github.com/geocoder89/socialfeed/internal/domain/user"
	"github.com/geocoder89/socialfeed/internal/security"
	"github.com/geocoder89/socialfeed/internal/validation"
)

type TokenIssuer interface {
	GenerateAccessToken(userID, email string) (string, error)
}

// Session is what register and login hand back: who you are plus the bearer
// token to send on later requests.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type AccountService struct {
	users  UserStore
	tokens TokenIssuer
}

func NewAccountService(users UserStore, tokens TokenIssuer) *AccountService {
	return &AccountService{users: users, tokens: tokens}
}

func (s *AccountService) Register(ctx context.Context, req user.RegisterRequest) (Session, error) {
	name := strings.TrimSpace(req.Name)
	email := user.NormalizeEmail(req.Email)

	var check validation.Checker
	check.Var("name", name, "required")
	check.Var("email", email, "required,email")
	check.Var("password", req.Password, "required,min=6")
	// max counts runes; bcrypt's limit is in bytes
	check.Var("password", len(req.Password), "max="+strconv.Itoa(user.MaxPasswordBytes))
	if err := check.Err(); err != nil {
		return Session{}, err
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	u := user.New(name, email, hash)

	if err := s.users.Create(ctx, u); err != nil {
		return Session{}, storageErr("users.create", err)
	}

	return s.session(u)
}

func (s *AccountService) Login(ctx context.Context, req user.LoginRequest) (Session, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, storageErr("users.get_by_email", err)
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	return s.session(u)
}

// Me returns the caller's own record.
func (s *AccountService) Me(ctx context.Context) (user.User, error) {
	callerID, ok := actorctx.UserIDFrom(ctx)
	if !ok {
		return user.User{}, ErrUnauthenticated
	}

	u, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return user.User{}, storageErr("users.get_by_id", err)
	}

	return u, nil
}

func (s *AccountService) session(u user.User) (Session, error) {
	token, err := s.tokens.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return Session{}, err
	}

	return Session{ID: u.ID, Name: u.Name, Email: u.Email, Token: token}, nil
}
