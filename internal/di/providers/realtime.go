package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/scoredeck/scoredeck-server/internal/logger"
	"github.com/scoredeck/scoredeck-server/internal/realtime"
)

// HubHandle wraps the realtime hub with its context for lifecycle management.
type HubHandle struct {
	*realtime.Hub
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *HubHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideHub provides the realtime event hub.
func ProvideHub(i do.Injector) (*HubHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	hub := realtime.NewHub(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	log.Info("Realtime hub started")

	return &HubHandle{
		Hub:    hub,
		cancel: cancel,
	}, nil
}
