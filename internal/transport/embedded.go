package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nao1215/tornago"
)

// DefaultTorStartupTimeout is how long an embedded Tor daemon may take to
// bootstrap. Building the first circuits usually takes one to three minutes.
const DefaultTorStartupTimeout = 3 * time.Minute

// EmbeddedTor runs a Tor daemon inside the process through tornago and
// exposes its SOCKS5 listener.
type EmbeddedTor struct {
	process        *tornago.TorProcess
	socksAddr      string
	startupTimeout time.Duration
}

// EmbeddedTorOption configures an EmbeddedTor.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets the maximum bootstrap time.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		if timeout > 0 {
			e.startupTimeout = timeout
		}
	}
}

// NewEmbeddedTor creates a stopped daemon manager. Call Start to launch it.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{startupTimeout: DefaultTorStartupTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the daemon on OS-assigned ports and blocks until it has
// bootstrapped, the startup timeout expires or ctx is cancelled.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	type started struct {
		process *tornago.TorProcess
		err     error
	}
	done := make(chan started, 1)
	go func() {
		process, err := tornago.StartTorDaemon(launchCfg)
		done <- started{process, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("failed to start embedded Tor daemon: %w", r.err)
		}
		e.process = r.process
		e.socksAddr = r.process.SocksAddr()
		return nil
	case <-ctx.Done():
		// The daemon may still come up; stop it once it does.
		go func() {
			if r := <-done; r.err == nil {
				_ = r.process.Stop() //nolint:errcheck // best effort
			}
		}()
		return ctx.Err()
	}
}

// Stop shuts the daemon down. Calling it on a stopped instance is a no-op.
func (e *EmbeddedTor) Stop() error {
	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	e.socksAddr = ""
	return err
}

// SocksAddr returns the SOCKS5 listener, or "" when not running.
func (e *EmbeddedTor) SocksAddr() string {
	return e.socksAddr
}

// IsRunning reports whether the daemon has been started and not stopped.
func (e *EmbeddedTor) IsRunning() bool {
	return e.process != nil
}

// NewHTTPClient returns a client routed through the running daemon.
func (e *EmbeddedTor) NewHTTPClient(opts ...Option) (*http.Client, error) {
	if !e.IsRunning() {
		return nil, ErrTorNotRunning
	}
	return NewHTTPClient(append(opts, WithSOCKS5(e.socksAddr))...)
}
