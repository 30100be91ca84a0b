package service

import (
	"context"
	"fmt"
	"strings"

	"app/internal/authgate"
	"app/internal/model"
	"app/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// defaultDisplayName is shown until the user picks a name.
const defaultDisplayName = "New User"

// UserService drives the authentication flows and mirrors the resolved
// profile into the user store.
type UserService interface {
	// CreateUser registers an email/password account and loads its profile.
	CreateUser(ctx context.Context, newUser model.NewUser) error
	// SignIn authenticates with email/password and loads the profile.
	SignIn(ctx context.Context, info model.SignInInfo) error
	// LogOut ends the session and clears the cached profile.
	LogOut(ctx context.Context) error
	// FetchUserProfile re-reads the provider profile, resolves the icon URL
	// and mirrors the result into the user store.
	FetchUserProfile(ctx context.Context) error
	// CheckIfEmailExists reports whether any sign-in method is registered.
	CheckIfEmailExists(ctx context.Context, email string) (bool, error)
	// SignInViaEmailLink sends a one-time sign-in link.
	SignInViaEmailLink(ctx context.Context, email string) error
	// CompleteSignInViaEmailLink redeems the link code and loads the profile.
	CompleteSignInViaEmailLink(ctx context.Context, email, oobCode string) error
	// SendResetPasswordEmail triggers the provider's password reset mail.
	SendResetPasswordEmail(ctx context.Context, email string) error
	// CanUserSignInWithEmailPassword reports whether the password method is
	// registered for the email.
	CanUserSignInWithEmailPassword(ctx context.Context, email string) (bool, error)
	// UpdateNameAndIcon patches the profile fields that are set, then
	// refetches the profile.
	UpdateNameAndIcon(ctx context.Context, patch model.ProfilePatch) error
}

type userService struct {
	gate     authgate.Gate
	users    *store.UserStore
	storage  StorageService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	gate authgate.Gate,
	users *store.UserStore,
	storage StorageService,
	validate *validator.Validate,
	logger zerolog.Logger,
) UserService {
	return &userService{
		gate:     gate,
		users:    users,
		storage:  storage,
		validate: validate,
		logger:   logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) CreateUser(ctx context.Context, newUser model.NewUser) error {
	if err := s.validate.Struct(&newUser); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}
	if err := s.gate.CreateUser(ctx, newUser.Email, newUser.Password, newUser.Name, newUser.Icon); err != nil {
		return err
	}
	return s.FetchUserProfile(ctx)
}

func (s *userService) SignIn(ctx context.Context, info model.SignInInfo) error {
	if err := s.validate.Struct(&info); err != nil {
		return fmt.Errorf("invalid sign-in info: %w", err)
	}
	if err := s.gate.SignIn(ctx, info.Email, info.Password); err != nil {
		return err
	}
	return s.FetchUserProfile(ctx)
}

func (s *userService) LogOut(ctx context.Context) error {
	if err := s.gate.SignOut(ctx); err != nil {
		return err
	}
	s.users.Clear()
	return nil
}

func (s *userService) FetchUserProfile(ctx context.Context) error {
	acc, err := s.gate.AccountInfo(ctx)
	if err != nil {
		return err
	}

	iconFullPath := acc.PhotoURL
	if iconFullPath == "" {
		iconFullPath = s.storage.DefaultIconFullPath()
	}
	// Absolute URLs pass through; storage paths are resolved to a signed URL.
	iconURL := iconFullPath
	if !strings.HasPrefix(iconFullPath, "http") {
		iconURL, err = s.storage.DownloadURL(ctx, iconFullPath)
		if err != nil {
			return err
		}
	}

	name := acc.DisplayName
	if name == "" {
		name = defaultDisplayName
	}

	s.users.Set(&model.User{
		ID:            acc.ID,
		Name:          name,
		Email:         acc.Email,
		EmailVerified: acc.EmailVerified,
		Icon: model.Icon{
			URL:      iconURL,
			FullPath: iconFullPath,
		},
	})
	return nil
}

func (s *userService) CheckIfEmailExists(ctx context.Context, email string) (bool, error) {
	methods, err := s.gate.FetchSignInMethods(ctx, email)
	if err != nil {
		return false, err
	}
	return len(methods) > 0, nil
}

func (s *userService) SignInViaEmailLink(ctx context.Context, email string) error {
	return s.gate.SendSignInLinkToEmail(ctx, email)
}

func (s *userService) CompleteSignInViaEmailLink(ctx context.Context, email, oobCode string) error {
	if err := s.gate.SignInWithEmailLink(ctx, email, oobCode); err != nil {
		return err
	}
	return s.FetchUserProfile(ctx)
}

func (s *userService) SendResetPasswordEmail(ctx context.Context, email string) error {
	return s.gate.SendPasswordResetEmail(ctx, email)
}

func (s *userService) CanUserSignInWithEmailPassword(ctx context.Context, email string) (bool, error) {
	methods, err := s.gate.FetchSignInMethods(ctx, email)
	if err != nil {
		return false, err
	}
	for _, m := range methods {
		if m == "password" {
			return true, nil
		}
	}
	return false, nil
}

func (s *userService) UpdateNameAndIcon(ctx context.Context, patch model.ProfilePatch) error {
	if patch.Name == nil && patch.Icon == nil {
		return nil
	}
	if err := s.gate.UpdateProfile(ctx, patch.Name, patch.Icon); err != nil {
		return err
	}
	return s.FetchUserProfile(ctx)
}
