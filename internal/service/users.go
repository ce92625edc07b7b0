package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/atinyakov/SyslogKeeper/internal/credential"
	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// UserRepository defines the persistence operations required by UserService.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	GetByName(ctx context.Context, name string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// UserService manages operator accounts. The password mode is fixed when the
// service is built and applies to every account it touches.
type UserService struct {
	repo         UserRepository
	passwordMode credential.Mode
	logger       *zap.Logger
}

// NewUserService constructs a UserService. logger may be nil.
func NewUserService(repo UserRepository, passwordMode credential.Mode, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, passwordMode: passwordMode, logger: logger}
}

// PasswordMode returns the mode used for account passwords.
func (s *UserService) PasswordMode() credential.Mode {
	return s.passwordMode
}

// Create validates fields and stores a new account.
func (s *UserService) Create(ctx context.Context, fields map[string]string) (*models.User, error) {
	u, err := models.NewUser(fields, s.passwordMode)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user", u.Name))
	return u, nil
}

// Update applies changes to the named account and stores the result.
func (s *UserService) Update(ctx context.Context, name string, changes map[string]string) (*models.User, error) {
	u, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := u.Update(changes, s.passwordMode); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user updated", zap.String("user", u.Name), zap.Strings("fields", fieldNames(changes)))
	return u, nil
}

// CheckPassword reports whether candidate matches the account password.
func (s *UserService) CheckPassword(ctx context.Context, name, candidate string) (bool, error) {
	u, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return false, err
	}
	return u.CheckPassword(candidate, s.passwordMode), nil
}

// SecretPassword recovers the device-facing secret of an account.
func (s *UserService) SecretPassword(ctx context.Context, name string) (string, error) {
	u, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return "", err
	}
	secret, err := u.SecretPassword()
	if err != nil {
		return "", err
	}
	s.logger.Info("user secret password revealed", zap.String("user", u.Name))
	return secret, nil
}

// List returns every account.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.repo.List(ctx)
}
