package service

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// AAARepository defines the persistence operations required by AAAService.
type AAARepository interface {
	Create(ctx context.Context, s *models.AAAServer) error
	Update(ctx context.Context, s *models.AAAServer) error
	GetByAddress(ctx context.Context, address string) (*models.AAAServer, error)
	List(ctx context.Context) ([]*models.AAAServer, error)
}

// AAAService manages TACACS+ server records.
type AAAService struct {
	repo   AAARepository
	logger *zap.Logger
}

// NewAAAService constructs an AAAService. logger may be nil.
func NewAAAService(repo AAARepository, logger *zap.Logger) *AAAService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AAAService{repo: repo, logger: logger}
}

// Create validates fields and stores a new server.
func (s *AAAService) Create(ctx context.Context, fields map[string]string) (*models.AAAServer, error) {
	srv, err := models.NewAAAServer(fields)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, srv); err != nil {
		return nil, err
	}
	s.logger.Info("aaa server created", zap.String("address", srv.Address))
	return srv, nil
}

// Update applies changes to the server registered under address.
func (s *AAAService) Update(ctx context.Context, address string, changes map[string]string) (*models.AAAServer, error) {
	srv, err := s.repo.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := srv.Update(changes); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, srv); err != nil {
		return nil, err
	}
	s.logger.Info("aaa server updated", zap.String("address", srv.Address), zap.Strings("fields", fieldNames(changes)))
	return srv, nil
}

// Password recovers the shared key of the server registered under address.
func (s *AAAService) Password(ctx context.Context, address string) (string, error) {
	srv, err := s.repo.GetByAddress(ctx, address)
	if err != nil {
		return "", err
	}
	key, err := srv.Password()
	if err != nil {
		return "", err
	}
	s.logger.Info("aaa shared key revealed", zap.String("address", srv.Address))
	return key, nil
}

// List returns every server.
func (s *AAAService) List(ctx context.Context) ([]*models.AAAServer, error) {
	return s.repo.List(ctx)
}

// fieldNames lists the changed fields for logging. Values are never logged.
func fieldNames(changes map[string]string) []string {
	var keys []string
	for k := range changes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
