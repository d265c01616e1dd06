package remote

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/junioryono/bindr"
)

// Config holds the settings of a remote endpoint.
type Config struct {
	// Addr is the listen address of the server.
	Addr string `env:"BINDR_REMOTE_ADDR" envDefault:":8765"`

	// URL is the base URL clients send calls to.
	URL string `env:"BINDR_REMOTE_URL" envDefault:"http://localhost:8765"`

	ReadTimeout     time.Duration `env:"BINDR_REMOTE_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"BINDR_REMOTE_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"BINDR_REMOTE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CallTimeout     time.Duration `env:"BINDR_REMOTE_CALL_TIMEOUT" envDefault:"30s"`
	MaxBodyBytes    int64         `env:"BINDR_REMOTE_MAX_BODY_BYTES" envDefault:"1048576"`
}

// LoadConfig loads .env style files, then parses the environment. Missing
// files are skipped. Variables already set in the environment win over
// the files. With no files, ".env" is tried.
func LoadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewClientFromConfig creates a Client for cfg.URL bounded by cfg.CallTimeout.
func NewClientFromConfig(cfg Config, opts ...ClientOption) *Client {
	return NewClient(cfg.URL, append([]ClientOption{WithTimeout(cfg.CallTimeout)}, opts...)...)
}

// ListenAndServe serves c on cfg.Addr until ctx is done, then shuts down
// gracefully within cfg.ShutdownTimeout.
func ListenAndServe(ctx context.Context, c *bindr.Container, cfg Config, opts ...ServerOption) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	return Serve(ctx, ln, c, cfg, opts...)
}

// Serve is like ListenAndServe on an existing listener.
func Serve(ctx context.Context, ln net.Listener, c *bindr.Container, cfg Config, opts ...ServerOption) error {
	if cfg.MaxBodyBytes > 0 {
		opts = append([]ServerOption{WithMaxBodyBytes(cfg.MaxBodyBytes)}, opts...)
	}
	srv := NewServer(c, opts...)

	httpServer := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.WithField("addr", ln.Addr().String()).Info("server listening")
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	srv.logger.Info("server stopped")
	return nil
}
