package syslog

import (
	"context"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// WriteTimeout bounds a single LogStore.Append call.
const WriteTimeout = 5 * time.Second

// LogStore persists ingested entries. Implementations must be safe for
// concurrent use; every listener goroutine calls Append.
type LogStore interface {
	Append(ctx context.Context, entry models.LogEntry) error
}

// Handler turns one datagram into one LogEntry.
type Handler struct {
	store    LogStore
	logger   *zap.Logger
	metrics  *Metrics
	listener string
}

// NewHandler creates a handler writing to store. logger may be nil.
func NewHandler(store LogStore, logger *zap.Logger, metrics *Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger, metrics: metrics}
}

func (h *Handler) forListener(name string) *Handler {
	c := *h
	c.listener = name
	c.logger = h.logger.With(zap.String("listener", name))
	return &c
}

// Handle decodes payload and appends it to the store. Invalid UTF-8 is
// replaced with U+FFFD. Store failures and panics are logged and swallowed
// so the receive loop keeps running.
func (h *Handler) Handle(ctx context.Context, payload []byte, from net.Addr) {
	var entry models.LogEntry
	defer func() {
		if r := recover(); r != nil {
			h.metrics.panicked(h.listener)
			h.logger.Error("panic while handling datagram",
				zap.Any("panic", r),
				zap.String("source", entry.Source),
			)
		}
	}()

	entry.Source = sourceHost(from)
	entry.Content = decodePayload(payload)

	ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()

	if err := h.store.Append(ctx, entry); err != nil {
		h.metrics.storeFailed(h.listener)
		h.logger.Error("failed to store syslog message",
			zap.String("source", entry.Source),
			zap.Int("size", len(payload)),
			zap.Error(err),
		)
	}
}

// decodePayload turns a datagram into storable text. Invalid UTF-8 and NUL
// bytes become U+FFFD; PostgreSQL TEXT cannot hold NUL, and some senders
// terminate every message with one.
func decodePayload(payload []byte) string {
	text := strings.ToValidUTF8(string(payload), "\uFFFD")
	text = strings.TrimRight(text, "\x00")
	text = strings.ReplaceAll(text, "\x00", "\uFFFD")
	return strings.TrimSpace(text)
}

// sourceHost returns the sender IP without the port.
func sourceHost(addr net.Addr) string {
	switch a := addr.(type) {
	case nil:
		return ""
	case *net.UDPAddr:
		if a == nil {
			return ""
		}
		return a.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
