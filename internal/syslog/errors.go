package syslog

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
)

var (
	// ErrBindConflict is returned when the address and port are already bound
	// by this process or the operating system refuses the bind.
	ErrBindConflict = errors.New("address already in use")
	// ErrInvalidAddress is returned when the listener address is not an IP
	// literal or, for operator-added listeners, the port is 0.
	ErrInvalidAddress = errors.New("invalid listener address")
)

// BindError describes a failed Start.
type BindError struct {
	Address string
	Port    uint16
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind udp %s: %v", net.JoinHostPort(e.Address, strconv.Itoa(int(e.Port))), e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// classifyBindError maps OS bind failures onto ErrBindConflict while keeping
// the original error in the chain.
func classifyBindError(err error) error {
	if errors.Is(err, syscall.EADDRINUSE) || errors.Is(err, syscall.EACCES) {
		return fmt.Errorf("%w: %w", ErrBindConflict, err)
	}
	return err
}
