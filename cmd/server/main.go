// Package main initializes and starts the syslog keeper: the UDP syslog
// listeners, the log store and the HTTPS admin API.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/SyslogKeeper/internal/certgen"
	"github.com/atinyakov/SyslogKeeper/internal/config"
	"github.com/atinyakov/SyslogKeeper/internal/db"
	"github.com/atinyakov/SyslogKeeper/internal/logger"
	"github.com/atinyakov/SyslogKeeper/internal/repository"
	"github.com/atinyakov/SyslogKeeper/internal/server/handler/http"
	"github.com/atinyakov/SyslogKeeper/internal/service"
	"github.com/atinyakov/SyslogKeeper/internal/syslog"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, file and environment configuration.
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	buildVersion, buildDateStr := version, buildDate
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDateStr == "" {
		buildDateStr = "N/A"
	}
	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDateStr)

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel, !options.Production); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, log.Log); err != nil {
		log.Log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	// Open the relational store.
	database, err := db.Init(options.Database.Driver, options.Database.DSN)
	if err != nil {
		return fmt.Errorf("cannot init database: %w", err)
	}
	defer database.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Repositories.
	logRepo := repository.NewLogRepository(database)
	listenerRepo := repository.NewListenerRepository(database)
	userRepo := repository.NewUserRepository(database)
	aaaRepo := repository.NewAAARepository(database)

	// Listener runtime and business-logic services.
	manager := syslog.NewManager(logRepo, zapLogger, syslog.NewMetrics(registry))
	defer manager.StopAll()

	listenerService := service.NewListenerService(listenerRepo, manager, zapLogger)
	userService := service.NewUserService(userRepo, options.UserPasswordMode(), zapLogger)
	aaaService := service.NewAAAService(aaaRepo, zapLogger)

	started, err := listenerService.Bootstrap(ctx, options.DefaultListenerConfig())
	if err != nil {
		return fmt.Errorf("bootstrap listeners: %w", err)
	}
	zapLogger.Info("syslog listeners started",
		zap.Int("count", started),
		zap.Stringer("password_mode", userService.PasswordMode()),
	)

	userHandler := &http.UserHandler{Service: userService}
	if options.TLS.CAKey != "" {
		issuer, err := certgen.LoadIssuer(options.TLS.CA, options.TLS.CAKey)
		if err != nil {
			return fmt.Errorf("load operator CA: %w", err)
		}
		userHandler.Issuer = issuer
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Listeners:         &http.ListenerHandler{Service: listenerService},
		Logs:              &http.LogHandler{Store: logRepo},
		Users:             userHandler,
		AAA:               &http.AAAHandler{Service: aaaService},
		Metrics:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		RequireClientCert: options.TLSEnabled() && options.TLS.CA != "",
	}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if options.TLSEnabled() {
		tlsConfig, err := serverTLSConfig(options.TLS)
		if err != nil {
			return err
		}
		server.TLSConfig = tlsConfig
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("starting admin server",
			zap.String("addr", options.HTTPAddress),
			zap.Bool("tls", options.TLSEnabled()),
		)
		if options.TLSEnabled() {
			errCh <- server.ListenAndServeTLS("", "")
		} else {
			errCh <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("admin server: %w", err)
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("admin server shutdown", zap.Error(err))
		}
	}
	return nil
}

// serverTLSConfig loads the server key pair and, when a CA is configured,
// verifies operator client certificates against it.
func serverTLSConfig(opts config.TLSOptions) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(opts.Cert, opts.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load server TLS cert/key: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if opts.CA == "" {
		return tlsConfig, nil
	}

	caCert, err := os.ReadFile(opts.CA)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		return nil, errors.New("failed to append CA cert to pool")
	}
	tlsConfig.ClientAuth = tls.VerifyClientCertIfGiven
	tlsConfig.ClientCAs = caCertPool
	return tlsConfig, nil
}
