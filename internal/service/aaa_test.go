package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/SyslogKeeper/internal/models"
	"github.com/atinyakov/SyslogKeeper/internal/repository"
)

type mockAAARepo struct {
	CreateFunc       func(ctx context.Context, s *models.AAAServer) error
	UpdateFunc       func(ctx context.Context, s *models.AAAServer) error
	GetByAddressFunc func(ctx context.Context, address string) (*models.AAAServer, error)
	ListFunc         func(ctx context.Context) ([]*models.AAAServer, error)
}

func (m *mockAAARepo) Create(ctx context.Context, s *models.AAAServer) error {
	return m.CreateFunc(ctx, s)
}
func (m *mockAAARepo) Update(ctx context.Context, s *models.AAAServer) error {
	return m.UpdateFunc(ctx, s)
}
func (m *mockAAARepo) GetByAddress(ctx context.Context, address string) (*models.AAAServer, error) {
	return m.GetByAddressFunc(ctx, address)
}
func (m *mockAAARepo) List(ctx context.Context) ([]*models.AAAServer, error) {
	return m.ListFunc(ctx)
}

func TestAAACreateAndPassword(t *testing.T) {
	var stored *models.AAAServer
	repo := &mockAAARepo{
		CreateFunc: func(ctx context.Context, s *models.AAAServer) error {
			stored = s
			return nil
		},
		GetByAddressFunc: func(ctx context.Context, address string) (*models.AAAServer, error) {
			if stored == nil || address != stored.Address {
				return nil, repository.ErrNotFound
			}
			return stored, nil
		},
	}
	svc := NewAAAService(repo, nil)

	_, err := svc.Create(context.Background(), map[string]string{
		models.AAAFieldAddress:  "10.0.0.9",
		models.AAAFieldPassword: "tac_key",
		models.AAAFieldPort:     "49",
		models.AAAFieldTimeout:  "5",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "tac_key", stored.EncodedPassword())

	key, err := svc.Password(context.Background(), "10.0.0.9")
	require.NoError(t, err)
	assert.Equal(t, "tac_key", key)

	_, err = svc.Password(context.Background(), "10.0.0.10")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAAAUpdate_InvalidPort(t *testing.T) {
	repo := &mockAAARepo{
		GetByAddressFunc: func(ctx context.Context, address string) (*models.AAAServer, error) {
			return models.RestoreAAAServer("s1", address, 49, 5, ""), nil
		},
		UpdateFunc: func(ctx context.Context, s *models.AAAServer) error {
			t.Fatal("Update must not be called when validation fails")
			return nil
		},
	}
	svc := NewAAAService(repo, nil)

	_, err := svc.Update(context.Background(), "10.0.0.9", map[string]string{models.AAAFieldPort: "forty-nine"})
	assert.ErrorIs(t, err, models.ErrInvalidFormat)
}

func TestAAAUpdate_Success(t *testing.T) {
	var updated *models.AAAServer
	repo := &mockAAARepo{
		GetByAddressFunc: func(ctx context.Context, address string) (*models.AAAServer, error) {
			return models.RestoreAAAServer("s1", address, 49, 5, ""), nil
		},
		UpdateFunc: func(ctx context.Context, s *models.AAAServer) error {
			updated = s
			return nil
		},
	}
	svc := NewAAAService(repo, nil)

	_, err := svc.Update(context.Background(), "10.0.0.9", map[string]string{
		models.AAAFieldTimeout:  "30",
		models.AAAFieldPassword: "rotated",
	})
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Timeout)
	key, err := updated.Password()
	require.NoError(t, err)
	assert.Equal(t, "rotated", key)
}
