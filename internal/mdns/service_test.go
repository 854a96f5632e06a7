package mdns

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstants(t *testing.T) {
	t.Run("service type is correct", func(t *testing.T) {
		assert.Equal(t, "_scoredeck._tcp", ServiceType)
	})

	t.Run("API version is v1", func(t *testing.T) {
		assert.Equal(t, "v1", APIVersion)
	})

	t.Run("server version is set", func(t *testing.T) {
		assert.NotEmpty(t, ServerVersion)
	})
}

func TestNewService(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	service := NewService(logger)

	require.NotNil(t, service)
	assert.Nil(t, service.server, "server should be nil before Start")
}

func TestServiceStop(t *testing.T) {
	t.Run("stop when not started is safe", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		service := NewService(logger)

		// Should not panic
		service.Stop()
		assert.Nil(t, service.server)
	})

	t.Run("stop can be called multiple times", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		service := NewService(logger)

		// Should not panic
		service.Stop()
		service.Stop()
		service.Stop()
	})
}

func TestServiceLifecycle(t *testing.T) {
	// Note: may fail in environments without multicast support
	// (e.g., Docker containers, CI without network access)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	service := NewService(logger)
	require.NotNil(t, service)

	err := service.Start("Test ScoreDeck", 8080)
	if err != nil {
		t.Skipf("mDNS not available: %v", err)
	}
	assert.NotNil(t, service.server)
	assert.Contains(t, buf.String(), "mDNS advertisement started")

	// Restart on a new port replaces the running server.
	err = service.Start("Test ScoreDeck", 8081)
	require.NoError(t, err)
	assert.NotNil(t, service.server)

	service.Stop()
	assert.Nil(t, service.server)
	assert.Contains(t, buf.String(), "mDNS advertisement stopped")
}

func TestServiceConcurrentStops(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	service := NewService(logger)

	err := service.Start("Concurrent Test", 8080)
	if err != nil {
		t.Skipf("mDNS not available: %v", err)
	}

	done := make(chan struct{})
	for range 10 {
		go func() {
			service.Stop()
			done <- struct{}{}
		}()
	}
	for range 10 {
		<-done
	}

	assert.Nil(t, service.server)
}
