package syslog

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/SyslogKeeper/internal/models"
)

const (
	maxDatagramSize = 65536
	maxReadBackoff  = time.Second
)

// Listener is one bound UDP socket and the goroutine reading from it.
// Listeners are created by Manager.Start and stopped by Manager.Stop.
type Listener struct {
	name    string
	cfg     models.ListenerConfig
	conn    net.PacketConn
	handler *Handler
	logger  *zap.Logger
	metrics *Metrics

	closeOnce sync.Once
	quit      chan struct{}
	done      chan struct{}
}

// Config returns the configuration the listener was started with.
func (l *Listener) Config() models.ListenerConfig {
	return l.cfg
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Port returns the bound UDP port, which differs from Config().Port when an
// ephemeral port was requested.
func (l *Listener) Port() uint16 {
	if a, ok := l.conn.LocalAddr().(*net.UDPAddr); ok {
		return uint16(a.Port)
	}
	return l.cfg.Port
}

// Done is closed once the receive loop has exited.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

func (l *Listener) String() string {
	return l.name
}

// close unblocks ReadFrom. Safe to call more than once.
func (l *Listener) close() {
	l.closeOnce.Do(func() {
		close(l.quit)
		if err := l.conn.Close(); err != nil {
			l.logger.Warn("failed to close listener socket", zap.Error(err))
		}
	})
}

// serve reads datagrams until the socket is closed. Each datagram is handled
// inline, so a single listener preserves socket delivery order.
func (l *Listener) serve(ctx context.Context) {
	defer close(l.done)

	buf := make([]byte, maxDatagramSize)
	var backoff time.Duration
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.metrics.socketFailed(l.name)
			l.logger.Warn("udp read failed", zap.Error(err))

			backoff = min(max(2*backoff, 10*time.Millisecond), maxReadBackoff)
			select {
			case <-l.quit:
				return
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		l.metrics.received(l.name, n)
		l.handler.Handle(ctx, buf[:n], from)
	}
}
