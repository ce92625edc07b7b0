package models

import (
	"github.com/atinyakov/SyslogKeeper/internal/credential"
)

// AAAServer field names accepted by NewAAAServer and Update.
const (
	AAAFieldAddress  = "address"
	AAAFieldPassword = "password"
	AAAFieldPort     = "port"
	AAAFieldTimeout  = "timeout"
)

// AAAServer is a TACACS+ server that devices delegate logins to.
// Its shared key must be recoverable, so it is always reversibly encoded.
type AAAServer struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Port    int    `json:"port"`
	Timeout int    `json:"timeout"`

	password string
}

// NewAAAServer builds a server record from operator-supplied fields.
// address, password, port and timeout are all required.
func NewAAAServer(fields map[string]string) (*AAAServer, error) {
	for _, f := range []string{AAAFieldAddress, AAAFieldPassword, AAAFieldPort, AAAFieldTimeout} {
		if _, ok := fields[f]; !ok {
			return nil, fieldErr(f, ErrRequired)
		}
	}
	s := &AAAServer{}
	if err := s.Update(fields); err != nil {
		return nil, err
	}
	return s, nil
}

// RestoreAAAServer rebuilds a server from stored values.
func RestoreAAAServer(id, address string, port, timeout int, encodedPassword string) *AAAServer {
	return &AAAServer{
		ID:       id,
		Address:  address,
		Port:     port,
		Timeout:  timeout,
		password: encodedPassword,
	}
}

// Update applies changes atomically. Numeric fields are parsed from their
// string form; the password is obfuscated with the reversible scheme.
func (s *AAAServer) Update(changes map[string]string) error {
	next := *s
	for _, field := range sortedKeys(changes) {
		value := changes[field]
		switch field {
		case AAAFieldAddress:
			addr, err := parseIP(field, value)
			if err != nil {
				return err
			}
			next.Address = addr
		case AAAFieldPassword:
			encoded, err := credential.Encode(value, credential.Reversible)
			if err != nil {
				return fieldErr(field, err)
			}
			next.password = encoded
		case AAAFieldPort:
			port, err := parseInt(field, value)
			if err != nil {
				return err
			}
			if port < 1 || port > 65535 {
				return fieldErr(field, ErrInvalidFormat)
			}
			next.Port = port
		case AAAFieldTimeout:
			timeout, err := parseInt(field, value)
			if err != nil {
				return err
			}
			if timeout < 0 {
				return fieldErr(field, ErrInvalidFormat)
			}
			next.Timeout = timeout
		default:
			return fieldErr(field, ErrUnknownField)
		}
	}
	*s = next
	return nil
}

// EncodedPassword returns the stored form of the shared key.
func (s *AAAServer) EncodedPassword() string { return s.password }

// Password recovers the shared key for hand-off to the AAA protocol.
func (s *AAAServer) Password() (string, error) {
	return credential.Decode(s.password)
}

func (s *AAAServer) String() string {
	return s.Address
}
