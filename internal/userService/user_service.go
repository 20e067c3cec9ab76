package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/auth"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"

	"github.com/patrickmn/go-cache"
)

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt input limit
	maxNameLength     = 255
	maxAddressLength  = 255
	maxIdentityLength = 20
	maxBioLength      = 1000

	profileTTL = 5 * time.Minute
)

// TokenGenerator issues and revokes bearer tokens for authenticated users
type TokenGenerator interface {
	Generate(user models.User) (string, error)
	Revoke(tokenID string, expiresAt time.Time) error
}

// UserService handles registration, login and profiles
type UserService struct {
	repo     repository.UserDB
	tokens   TokenGenerator
	profiles *cache.Cache
	now      func() time.Time
}

// NewUserService creates a new UserService instance
func NewUserService(repo repository.UserDB, tokens TokenGenerator) *UserService {
	return &UserService{
		repo:     repo,
		tokens:   tokens,
		profiles: cache.New(profileTTL, 2*profileTTL),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
	Name     string
}

// LoginResult is a signed token together with the user it identifies
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register creates an account with a fixed role
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if err := validateRegistration(in); err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("service: register %s: %w", in.Username, err)
	}

	now := s.now()
	user := models.User{
		UserID:       utils.GenerateID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Name:         in.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.Name == "" {
		user.Name = user.Username
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("service: register %s: %w", in.Username, err)
	}
	return user, nil
}

func validateRegistration(in RegisterInput) error {
	if in.Username == "" || utf8.RuneCountInString(in.Username) > maxNameLength {
		return fmt.Errorf("service: %w - username must be 1 to %d characters", auctionerrors.ErrInvalidUser, maxNameLength)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return fmt.Errorf("service: %w - invalid email %q", auctionerrors.ErrInvalidUser, in.Email)
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return fmt.Errorf("service: %w - password must be at least %d characters", auctionerrors.ErrInvalidUser, minPasswordLength)
	}
	if len(in.Password) > maxPasswordBytes {
		return fmt.Errorf("service: %w - password longer than %d bytes", auctionerrors.ErrInvalidUser, maxPasswordBytes)
	}
	if !in.Role.Valid() {
		return fmt.Errorf("service: %w - unknown role %q", auctionerrors.ErrInvalidUser, in.Role)
	}
	if utf8.RuneCountInString(in.Name) > maxNameLength {
		return fmt.Errorf("service: %w - name longer than %d characters", auctionerrors.ErrInvalidUser, maxNameLength)
	}
	return nil
}

// Login checks credentials and issues a token.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, auctionerrors.ErrUserNotFound) {
		return LoginResult{}, fmt.Errorf("service: login %s: %w", username, auctionerrors.ErrInvalidCredentials)
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("service: login %s: %w", username, err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, fmt.Errorf("service: login %s: %w", username, err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("service: login %s: %w", username, err)
	}
	return LoginResult{Token: token, User: user}, nil
}

// Logout revokes the token the caller authenticated with
func (s *UserService) Logout(ctx context.Context, actor models.Actor, session models.Session) error {
	if err := s.tokens.Revoke(session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("service: logout %s: %w", actor.UserID, err)
	}
	utils.Info("user logged out", map[string]any{"user_id": actor.UserID})
	return nil
}

// GetProfile returns the account of userID
func (s *UserService) GetProfile(ctx context.Context, userID string) (models.User, error) {
	if userID == "" {
		return models.User{}, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidUser)
	}
	if cached, ok := s.profiles.Get(userID); ok {
		return cached.(models.User), nil
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("service: get profile %s: %w", userID, err)
	}
	s.profiles.SetDefault(userID, user)
	return user, nil
}

// UpdateProfile overwrites the editable profile of userID; only the owner may do so
func (s *UserService) UpdateProfile(ctx context.Context, actor models.Actor, userID string, profile models.Profile) (models.User, error) {
	if actor.UserID == "" || actor.UserID != userID {
		return models.User{}, fmt.Errorf("service: %w - profile belongs to another user", auctionerrors.ErrForbidden)
	}

	profile = trimProfile(profile)
	if err := validateProfile(profile); err != nil {
		return models.User{}, err
	}

	user, err := s.repo.UpdateProfile(ctx, userID, profile, s.now())
	if err != nil {
		return models.User{}, fmt.Errorf("service: update profile %s: %w", userID, err)
	}
	s.profiles.Delete(userID)
	return user, nil
}

func trimProfile(p models.Profile) models.Profile {
	return models.Profile{
		Name:           strings.TrimSpace(p.Name),
		Address:        strings.TrimSpace(p.Address),
		IdentityNumber: strings.TrimSpace(p.IdentityNumber),
		Bio:            strings.TrimSpace(p.Bio),
		PhotoURL:       strings.TrimSpace(p.PhotoURL),
	}
}

func validateProfile(p models.Profile) error {
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"address", p.Address, maxAddressLength},
		{"identity_number", p.IdentityNumber, maxIdentityLength},
		{"bio", p.Bio, maxBioLength},
	}

	if p.Name == "" || utf8.RuneCountInString(p.Name) > maxNameLength {
		return fmt.Errorf("service: %w - name must be 1 to %d characters", auctionerrors.ErrInvalidUser, maxNameLength)
	}
	for _, c := range checks {
		if utf8.RuneCountInString(c.value) > c.max {
			return fmt.Errorf("service: %w - %s longer than %d characters", auctionerrors.ErrInvalidUser, c.field, c.max)
		}
	}
	return nil
}
