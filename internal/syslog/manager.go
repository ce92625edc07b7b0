// Package syslog receives syslog datagrams over UDP and hands them to a log
// store. Manager owns the set of running listeners; each listener runs one
// goroutine that feeds its own Handler.
package syslog

import (
	"context"
	"net"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// Manager starts and stops UDP listeners. It is safe for concurrent use.
type Manager struct {
	handler *Handler
	logger  *zap.Logger
	metrics *Metrics
	lc      net.ListenConfig

	mu     sync.Mutex
	active []*Listener
}

// NewManager creates a manager whose listeners append to store. logger and
// metrics may be nil.
func NewManager(store LogStore, logger *zap.Logger, metrics *Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		handler: NewHandler(store, logger, metrics),
		logger:  logger,
		metrics: metrics,
		lc:      net.ListenConfig{Control: reuseAddrControl},
	}
}

// Start binds cfg and starts its receive loop. cfg.Address must be an IP
// literal. Port 0 binds an ephemeral port. Errors are *BindError values
// wrapping ErrInvalidAddress, ErrBindConflict or the underlying OS error.
func (m *Manager) Start(ctx context.Context, cfg models.ListenerConfig) (*Listener, error) {
	ip := net.ParseIP(strings.TrimSpace(cfg.Address))
	if ip == nil {
		m.metrics.bindFailed()
		return nil, &BindError{Address: cfg.Address, Port: cfg.Port, Err: ErrInvalidAddress}
	}
	cfg.Address = ip.String()

	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg.Port != 0 && m.lookupLocked(cfg.Address, cfg.Port) != nil {
		m.metrics.bindFailed()
		return nil, &BindError{Address: cfg.Address, Port: cfg.Port, Err: ErrBindConflict}
	}

	conn, err := m.lc.ListenPacket(ctx, network(ip), cfg.HostPort())
	if err != nil {
		m.metrics.bindFailed()
		return nil, &BindError{Address: cfg.Address, Port: cfg.Port, Err: classifyBindError(err)}
	}

	l := &Listener{
		cfg:     cfg,
		conn:    conn,
		metrics: m.metrics,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cfg.Port == 0 && m.lookupLocked(cfg.Address, l.Port()) != nil {
		conn.Close()
		m.metrics.bindFailed()
		return nil, &BindError{Address: cfg.Address, Port: l.Port(), Err: ErrBindConflict}
	}
	l.name = conn.LocalAddr().String()
	l.logger = m.logger.With(zap.String("listener", l.name))
	l.handler = m.handler.forListener(l.name)

	m.active = append(m.active, l)
	m.metrics.listenerStarted()

	// In-flight writes finish even if the caller's context is cancelled;
	// Stop is the only way to end the loop.
	go l.serve(context.WithoutCancel(ctx))

	l.logger.Info("syslog listener started", zap.String("id", cfg.ID))
	return l, nil
}

// Stop closes l and waits for its receive loop to exit. Stopping a listener
// that is already stopped is a no-op.
func (m *Manager) Stop(l *Listener) {
	if l == nil {
		return
	}

	m.mu.Lock()
	removed := false
	if i := slices.Index(m.active, l); i >= 0 {
		m.active = slices.Delete(m.active, i, i+1)
		removed = true
	}
	m.mu.Unlock()

	l.close()
	<-l.done

	if removed {
		m.metrics.listenerStopped()
		l.logger.Info("syslog listener stopped")
	}
}

// StopAll stops every active listener.
func (m *Manager) StopAll() {
	m.mu.Lock()
	active := m.active
	m.active = nil
	m.mu.Unlock()

	for _, l := range active {
		l.close()
	}
	for _, l := range active {
		<-l.done
		m.metrics.listenerStopped()
	}
	if len(active) > 0 {
		m.logger.Info("all syslog listeners stopped", zap.Int("count", len(active)))
	}
}

// List returns the active listeners in start order.
func (m *Manager) List() []*Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.active)
}

func (m *Manager) lookupLocked(address string, port uint16) *Listener {
	for _, l := range m.active {
		if l.cfg.Address == address && l.Port() == port {
			return l
		}
	}
	return nil
}

// network pins IPv4 literals to udp4 so 0.0.0.0 does not become a dual-stack
// socket.
func network(ip net.IP) string {
	if ip.To4() != nil {
		return "udp4"
	}
	return "udp6"
}
