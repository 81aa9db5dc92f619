// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dalemusser/formguard/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// certWarmTimeout bounds how long startup waits for the first ACME
// certificate before serving anyway.
const certWarmTimeout = 60 * time.Second

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM.
// The returned cancel also stops signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler over plain HTTP, HTTPS with
// Let's Encrypt (http-01), or HTTPS with certificate files, depending on cfg.
// In HTTPS modes port 80 answers ACME challenges and redirects everything
// else. It blocks until ctx is canceled or a server fails.
func ListenAndServeWithContext(ctx context.Context, cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) error {
	if cfg == nil {
		return errors.New("server: cfg is nil")
	}
	if handler == nil {
		return errors.New("server: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newHTTPServer(cfg, handler, logger)

	ln, aux, err := listen(ctx, cfg, srv, logger)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- ignoreClosed(srv.Serve(ln)) }()

	var auxErr chan error
	if aux != nil {
		auxErr = make(chan error, 1)
		go func() { auxErr <- ignoreClosed(aux.ListenAndServe()) }()
		logger.Info("redirect server listening", zap.String("addr", aux.Addr))
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server…")
			// ctx is already done; shutdown gets its own window.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if aux != nil {
				_ = aux.Shutdown(shutdownCtx)
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = ln.Close()
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			if aux != nil {
				_ = aux.Shutdown(context.Background())
			}
			_ = ln.Close()
			if err != nil {
				return fmt.Errorf("primary server error: %w", err)
			}
			return nil

		case err := <-auxErr:
			if err != nil {
				_ = srv.Close()
				_ = ln.Close()
				return fmt.Errorf("redirect server error: %w", err)
			}
			aux, auxErr = nil, nil
		}
	}
}

func newHTTPServer(cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}
	return srv
}

// listen opens the primary listener for the configured mode and, for HTTPS,
// builds the port 80 server without starting it.
func listen(ctx context.Context, cfg *config.CoreConfig, srv *http.Server, logger *zap.Logger) (net.Listener, *http.Server, error) {
	httpAddr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
	httpsAddr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)

	if !cfg.HTTP.UseHTTPS {
		ln, err := net.Listen("tcp", httpAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("listen http %s: %w", httpAddr, err)
		}
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
		return ln, nil, nil
	}

	var (
		tlsCfg   *tls.Config
		redirect = httpRedirectHandler()
		mode     string
	)

	if cfg.TLS.UseLetsEncrypt {
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
			Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
			Email:      cfg.TLS.LetsEncryptEmail,
		}
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, GetCertificate: m.GetCertificate}
		redirect = m.HTTPHandler(redirect)
		mode = "lets_encrypt"
	} else {
		if err := validateTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
			var perm *permissionError
			if !errors.As(err, &perm) || cfg.Env == "prod" {
				return nil, nil, err
			}
			logger.Warn("TLS key file permissions would be rejected in prod", zap.Error(err))
		}
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load TLS cert/key: %w", err)
		}
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}}
		mode = "manual"
	}

	aux := newHTTPServer(cfg, redirect, logger)
	aux.Addr = httpAddr

	if cfg.TLS.UseLetsEncrypt {
		// Challenges are answered once the caller starts aux; polling
		// covers the gap.
		go func() {
			if err := waitForCert(ctx, tlsCfg.GetCertificate, cfg.TLS.Domain, certWarmTimeout); err != nil {
				logger.Warn("certificate pre-warm failed; first HTTPS requests may fail", zap.Error(err))
			}
		}()
	}

	srv.TLSConfig = tlsCfg
	base, err := net.Listen("tcp", httpsAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen https %s: %w", httpsAddr, err)
	}
	logger.Info("HTTPS server listening",
		zap.String("addr", httpsAddr),
		zap.String("tls_mode", mode),
		zap.String("domain", cfg.TLS.Domain))
	return tls.NewListener(base, tlsCfg), aux, nil
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// waitForCert polls getCert for host until it succeeds, the timeout passes,
// or ctx is done.
func waitForCert(ctx context.Context, getCert func(*tls.ClientHelloInfo) (*tls.Certificate, error), host string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		_, err := getCert(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for certificate for %q: %w", host, err)
		case <-ticker.C:
		}
	}
}
