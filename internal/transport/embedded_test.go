package transport

import (
	"errors"
	"testing"
	"time"
)

func TestNewEmbeddedTor(t *testing.T) {
	t.Parallel()

	t.Run("default timeout", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedTor()
		if e.startupTimeout != DefaultTorStartupTimeout {
			t.Errorf("expected %v, got %v", DefaultTorStartupTimeout, e.startupTimeout)
		}
	})

	t.Run("custom timeout", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedTor(WithStartupTimeout(5 * time.Minute))
		if e.startupTimeout != 5*time.Minute {
			t.Errorf("expected 5m, got %v", e.startupTimeout)
		}
	})
}

func TestEmbeddedTorNotStarted(t *testing.T) {
	t.Parallel()

	e := NewEmbeddedTor()
	if e.IsRunning() {
		t.Error("expected not running")
	}
	if e.SocksAddr() != "" {
		t.Error("expected empty SocksAddr")
	}
	if err := e.Stop(); err != nil {
		t.Errorf("Stop on unstarted daemon: %v", err)
	}
	if _, err := e.NewHTTPClient(); !errors.Is(err, ErrTorNotRunning) {
		t.Errorf("expected ErrTorNotRunning, got %v", err)
	}
}
