// Package config loads server options from defaults, command-line flags, an
// optional YAML file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/atinyakov/SyslogKeeper/internal/credential"
	"github.com/atinyakov/SyslogKeeper/internal/models"
)

// DefaultConfigPath is read when present and no other path is given.
const DefaultConfigPath = "config.yaml"

// Options holds the configuration values for the server.
type Options struct {
	// HTTPAddress is the admin API listen address (ip:port).
	HTTPAddress string `yaml:"http_address"`

	// Database selects the SQL driver and connection string.
	Database DatabaseOptions `yaml:"database"`

	// Production selects irreversible hashing for operator passwords.
	Production bool `yaml:"production"`

	// LogLevel is a zap level name.
	LogLevel string `yaml:"log_level"`

	// DefaultListener is started at boot in addition to stored listeners.
	DefaultListener ListenerOptions `yaml:"default_listener"`

	// TLS enables mutual TLS on the admin API when Cert and Key are set.
	TLS TLSOptions `yaml:"tls"`

	// Config is the path to the YAML file.
	Config string `yaml:"-"`
}

// DatabaseOptions configures the relational store.
type DatabaseOptions struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ListenerOptions configures the bootstrap syslog listener.
type ListenerOptions struct {
	Address string `yaml:"address"`
	Port    uint16 `yaml:"port"`
}

// TLSOptions holds PEM file paths for the admin API.
type TLSOptions struct {
	Cert  string `yaml:"cert"`
	Key   string `yaml:"key"`
	CA    string `yaml:"ca"`
	CAKey string `yaml:"ca_key"`
}

// Parse builds Options from args (without the program name), the YAML file
// and the environment.
func Parse(args []string) (*Options, error) {
	options := &Options{}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVarP(&options.HTTPAddress, "address", "a", "localhost:8080", "admin API ip:port")
	fs.StringVar(&options.Database.Driver, "database-driver", "sqlite", "database driver: postgres or sqlite")
	fs.StringVarP(&options.Database.DSN, "database-dsn", "d", "syslogkeeper.db", "database connection string")
	fs.BoolVar(&options.Production, "production", true, "hash operator passwords irreversibly")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&options.DefaultListener.Address, "listener-address", models.DefaultListenerAddress, "default syslog listener address")
	fs.Uint16Var(&options.DefaultListener.Port, "listener-port", models.DefaultListenerPort, "default syslog listener port")
	fs.StringVar(&options.TLS.Cert, "tls-cert", "", "server certificate PEM")
	fs.StringVar(&options.TLS.Key, "tls-key", "", "server key PEM")
	fs.StringVar(&options.TLS.CA, "tls-ca", "", "CA certificate PEM used to verify operators")
	fs.StringVar(&options.TLS.CAKey, "tls-ca-key", "", "CA key PEM used to issue operator certificates")
	fs.StringVarP(&options.Config, "config", "c", "", "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := options.loadFile(); err != nil {
		return nil, err
	}
	if err := options.loadEnv(); err != nil {
		return nil, err
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func (o *Options) loadFile() error {
	path, required := o.Config, true
	if path == "" {
		path, required = DefaultConfigPath, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	o.Config = path
	return nil
}

func (o *Options) loadEnv() error {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		o.HTTPAddress = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		o.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		o.Database.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}
	if v := os.Getenv("PRODUCTION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PRODUCTION: %w", err)
		}
		o.Production = b
	}
	return nil
}

// Validate checks option combinations that cannot work.
func (o *Options) Validate() error {
	switch o.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", o.Database.Driver)
	}
	if (o.TLS.Cert == "") != (o.TLS.Key == "") {
		return errors.New("tls cert and key must be set together")
	}
	if o.TLS.CAKey != "" && o.TLS.CA == "" {
		return errors.New("tls ca_key requires tls ca")
	}
	return nil
}

// TLSEnabled reports whether the admin API serves HTTPS.
func (o *Options) TLSEnabled() bool {
	return o.TLS.Cert != "" && o.TLS.Key != ""
}

// UserPasswordMode maps the deployment mode onto the operator password
// encoding.
func (o *Options) UserPasswordMode() credential.Mode {
	return credential.ForUserPassword(o.Production)
}

// DefaultListenerConfig returns the bootstrap listener.
func (o *Options) DefaultListenerConfig() models.ListenerConfig {
	return models.ListenerConfig{Address: o.DefaultListener.Address, Port: o.DefaultListener.Port}
}
