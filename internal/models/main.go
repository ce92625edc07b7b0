// Package models defines the records managed by the syslog keeper: listener
// endpoints, ingested log entries, operator accounts and AAA servers.
package models

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultListenerAddress and DefaultListenerPort describe the listener created
// at first startup.
const (
	DefaultListenerAddress = "0.0.0.0"
	DefaultListenerPort    = 514
)

// ListenerConfig describes one UDP syslog endpoint.
type ListenerConfig struct {
	// ID is the record identifier assigned when the config is persisted.
	ID string `json:"id"`
	// Address is the IP literal to bind.
	Address string `json:"address"`
	// Port is the UDP port. Zero binds an ephemeral port.
	Port uint16 `json:"port"`
}

// HostPort returns the address in host:port form.
func (c ListenerConfig) HostPort() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(int(c.Port)))
}

// DefaultListener returns the bootstrap listener config.
func DefaultListener() ListenerConfig {
	return ListenerConfig{Address: DefaultListenerAddress, Port: DefaultListenerPort}
}

// LogEntry is a single ingested datagram.
type LogEntry struct {
	// ID is assigned by the store.
	ID string `json:"id"`
	// Source is the sender IP address.
	Source string `json:"source"`
	// Content is the decoded datagram text.
	Content string `json:"content"`
	// CreatedAt is set by the store at write time.
	CreatedAt time.Time `json:"created_at"`
}

// Field validation errors.
var (
	// ErrInvalidFormat indicates a field value that could not be parsed.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrUnknownField indicates a change for a field the entity does not have.
	ErrUnknownField = errors.New("unknown field")
	// ErrRequired indicates a missing mandatory field.
	ErrRequired = errors.New("required")
)

// FieldError reports which field of an update was rejected.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}

func parseInt(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fieldErr(field, fmt.Errorf("%w: %q is not a number", ErrInvalidFormat, value))
	}
	return n, nil
}

func parseIP(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fieldErr(field, ErrRequired)
	}
	ip := net.ParseIP(value)
	if ip == nil {
		return "", fieldErr(field, fmt.Errorf("%w: %q is not an IP address", ErrInvalidFormat, value))
	}
	return ip.String(), nil
}

// sortedKeys keeps update order deterministic so the first failing field is
// stable across runs.
func sortedKeys(m map[string]string) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
