// Package service implements the operator-facing operations on listeners,
// user accounts and AAA servers, delegating persistence to repositories and
// socket lifecycle to the syslog listener manager.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/SyslogKeeper/internal/models"
	"github.com/atinyakov/SyslogKeeper/internal/repository"
	"github.com/atinyakov/SyslogKeeper/internal/syslog"
)

// ListenerRepository defines the persistence operations required by
// ListenerService.
type ListenerRepository interface {
	// Create stores cfg and returns it with its assigned ID.
	// Returns repository.ErrDuplicate if the address and port are taken.
	Create(ctx context.Context, cfg models.ListenerConfig) (models.ListenerConfig, error)
	Get(ctx context.Context, id string) (models.ListenerConfig, error)
	List(ctx context.Context) ([]models.ListenerConfig, error)
	Delete(ctx context.Context, id string) error
}

// ListenerRuntime starts and stops live UDP listeners.
type ListenerRuntime interface {
	Start(ctx context.Context, cfg models.ListenerConfig) (*syslog.Listener, error)
	Stop(l *syslog.Listener)
	List() []*syslog.Listener
}

// ListenerStatus is a stored listener record and its runtime state.
type ListenerStatus struct {
	models.ListenerConfig
	// Active reports whether a socket is currently bound for the record.
	Active bool `json:"active"`
	// BoundAddress is the local address of the socket when Active.
	BoundAddress string `json:"bound_address,omitempty"`
}

// ListenerService keeps stored listener records and running sockets in step.
type ListenerService struct {
	repo    ListenerRepository
	runtime ListenerRuntime
	logger  *zap.Logger
}

// NewListenerService constructs a ListenerService. logger may be nil.
func NewListenerService(repo ListenerRepository, runtime ListenerRuntime, logger *zap.Logger) *ListenerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListenerService{repo: repo, runtime: runtime, logger: logger}
}

// Add persists a listener record and then starts it. If the socket cannot be
// bound the record is removed again and the bind error returned, so a stored
// record always had a successful start. Port 0 is rejected: a stored
// ephemeral port would rebind somewhere else on every restart.
func (s *ListenerService) Add(ctx context.Context, address string, port uint16) (ListenerStatus, error) {
	ip := net.ParseIP(strings.TrimSpace(address))
	if ip == nil {
		return ListenerStatus{}, &syslog.BindError{Address: address, Port: port, Err: syslog.ErrInvalidAddress}
	}
	if port == 0 {
		return ListenerStatus{}, &syslog.BindError{
			Address: ip.String(),
			Port:    port,
			Err:     fmt.Errorf("%w: port must be between 1 and 65535", syslog.ErrInvalidAddress),
		}
	}

	cfg, err := s.repo.Create(ctx, models.ListenerConfig{Address: ip.String(), Port: port})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ListenerStatus{}, &syslog.BindError{
				Address: ip.String(),
				Port:    port,
				Err:     fmt.Errorf("%w: %w", syslog.ErrBindConflict, err),
			}
		}
		return ListenerStatus{}, fmt.Errorf("store listener: %w", err)
	}

	l, err := s.runtime.Start(ctx, cfg)
	if err != nil {
		if delErr := s.repo.Delete(ctx, cfg.ID); delErr != nil {
			s.logger.Error("failed to roll back listener record",
				zap.String("id", cfg.ID),
				zap.Error(delErr),
			)
		}
		return ListenerStatus{}, err
	}

	return ListenerStatus{ListenerConfig: cfg, Active: true, BoundAddress: l.Addr().String()}, nil
}

// Remove stops the listener for the record id, if running, and deletes the
// record.
func (s *ListenerService) Remove(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if l := s.active(id); l != nil {
		s.runtime.Stop(l)
	}
	return s.repo.Delete(ctx, id)
}

// List returns every stored record annotated with its runtime state.
func (s *ListenerService) List(ctx context.Context) ([]ListenerStatus, error) {
	configs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	running := make(map[string]*syslog.Listener)
	for _, l := range s.runtime.List() {
		running[l.Config().ID] = l
	}

	statuses := make([]ListenerStatus, 0, len(configs))
	for _, cfg := range configs {
		st := ListenerStatus{ListenerConfig: cfg}
		if l, ok := running[cfg.ID]; ok {
			st.Active = true
			st.BoundAddress = l.Addr().String()
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Bootstrap makes sure the default listener record exists and starts every
// stored record that is not running yet. Bind failures are logged and
// skipped. It returns how many listeners were started.
func (s *ListenerService) Bootstrap(ctx context.Context, defaults models.ListenerConfig) (int, error) {
	if _, err := s.repo.Create(ctx, defaults); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		s.logger.Warn("failed to store default listener",
			zap.String("address", defaults.HostPort()),
			zap.Error(err),
		)
	}

	configs, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load listeners: %w", err)
	}

	started := 0
	for _, cfg := range configs {
		if s.active(cfg.ID) != nil {
			continue
		}
		if _, err := s.runtime.Start(ctx, cfg); err != nil {
			s.logger.Warn("failed to start stored listener",
				zap.String("id", cfg.ID),
				zap.String("address", cfg.HostPort()),
				zap.Error(err),
			)
			continue
		}
		started++
	}
	return started, nil
}

func (s *ListenerService) active(id string) *syslog.Listener {
	for _, l := range s.runtime.List() {
		if l.Config().ID == id {
			return l
		}
	}
	return nil
}
