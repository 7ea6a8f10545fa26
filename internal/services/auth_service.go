package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kilometri/internal/auth"
	"kilometri/internal/core"
	"kilometri/internal/log"
)

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords so login failures are indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// RegisterInput carries the fields of a signup request.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Company   string
	Phone     string
}

// AuthService handles signup and login.
type AuthService struct {
	users  UserStore
	tokens *auth.Manager
	logger *log.Logger
}

func NewAuthService(users UserStore, tokens *auth.Manager, logger *log.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// Register creates a user and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (core.User, string, error) {
	if errs := validateRegister(in); len(errs) > 0 {
		return core.User{}, "", errs
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user := core.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Company:      in.Company,
		Phone:        in.Phone,
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		return core.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.IssueToken(user.ID, user.Username)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, user.ID)
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh token.
func (s *AuthService) Login(ctx context.Context, username, password string) (core.User, string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, "", ErrInvalidCredentials
		}
		return core.User{}, "", fmt.Errorf("load user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.WarnContext(ctx, "login rejected",
			log.FieldUserID, user.ID)
		return core.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(user.ID, user.Username)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", log.FieldUserID, user.ID)
	return user, token, nil
}

// Profile returns the account of the authenticated user.
func (s *AuthService) Profile(ctx context.Context, userID int64) (core.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// ProfileInput carries the editable account fields. Username and password
// are fixed at registration.
type ProfileInput struct {
	Email     string
	FirstName string
	LastName  string
	Company   string
	Phone     string
}

// UpdateProfile changes the contact fields that feed the report header.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (core.User, error) {
	if !strings.Contains(in.Email, "@") {
		return core.User{}, core.ValidationErrors{{
			Field: "email", Code: "email_invalid", Message: "enter a valid email address",
		}}
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return core.User{}, err
	}

	user.Email = strings.TrimSpace(in.Email)
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Company = in.Company
	user.Phone = in.Phone

	if err := s.users.UpdateUserProfile(ctx, user); err != nil {
		return core.User{}, fmt.Errorf("update profile: %w", err)
	}

	s.logger.InfoContext(ctx, "profile updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldUserID, userID)
	return user, nil
}

func validateRegister(in RegisterInput) core.ValidationErrors {
	var errs core.ValidationErrors
	if strings.TrimSpace(in.Username) == "" {
		errs = append(errs, &core.ValidationError{
			Field: "username", Code: "username_required", Message: "username is required",
		})
	}
	if !strings.Contains(in.Email, "@") {
		errs = append(errs, &core.ValidationError{
			Field: "email", Code: "email_invalid", Message: "enter a valid email address",
		})
	}
	if len(in.Password) < 8 {
		errs = append(errs, &core.ValidationError{
			Field: "password", Code: "password_too_short", Message: "password must be at least 8 characters",
		})
	}
	return errs
}
