package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/scoredeck/scoredeck-server/internal/config"
	"github.com/scoredeck/scoredeck-server/internal/logger"
	"github.com/scoredeck/scoredeck-server/internal/ranking"
	"github.com/scoredeck/scoredeck-server/internal/service"
)

// SweeperHandle wraps the tombstone sweeper with shutdown capability.
type SweeperHandle struct {
	*service.Sweeper
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SweeperHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideSweeper provides the background tombstone sweeper.
func ProvideSweeper(i do.Injector) (*SweeperHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	index := do.MustInvoke[*ranking.Index](i)
	log := do.MustInvoke[*logger.Logger](i)

	sw := service.NewSweeper(storeHandle.Store, index, cfg.Sweep.Interval, cfg.Sweep.Retention, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go sw.Run(ctx)

	log.Info("Tombstone sweeper started",
		"interval", cfg.Sweep.Interval,
		"retention", cfg.Sweep.Retention,
	)

	return &SweeperHandle{Sweeper: sw, cancel: cancel}, nil
}

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		// Initial cleanup on startup
		if count, err := sessionService.DeleteExpiredSessions(ctx); err != nil {
			log.Warn("Initial session cleanup failed", "error", err)
		} else if count > 0 {
			log.Info("Initial session cleanup completed", "deleted", count)
		}

		for {
			select {
			case <-ticker.C:
				if count, err := sessionService.DeleteExpiredSessions(ctx); err != nil {
					log.Warn("Session cleanup failed", "error", err)
				} else if count > 0 {
					log.Info("Session cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started")

	return &SessionCleanupJob{cancel: cancel}, nil
}

// ConfigWatcherHandle wraps the config file watcher with shutdown capability.
type ConfigWatcherHandle struct {
	*config.Watcher
}

// Shutdown implements do.Shutdownable.
func (h *ConfigWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	return h.Stop()
}

// ProvideConfigWatcher watches the .env file and applies log level changes
// at runtime without a restart.
func ProvideConfigWatcher(i do.Injector) (*ConfigWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	w, err := config.NewWatcher(cfg.EnvFile, log.Logger, func() {
		level, ok := config.LookupEnvFile(cfg.EnvFile, "SCOREDECK_LOG_LEVEL")
		if !ok {
			return
		}
		log.SetLevel(logger.ParseLevel(level))
		log.Info("Log level updated", "level", level)
	})
	if err != nil {
		// Non-fatal: the watcher needs the .env file's directory to exist
		log.Warn("Config watcher unavailable", "error", err)
		return &ConfigWatcherHandle{Watcher: nil}, nil
	}

	log.Info("Config watcher started", "path", cfg.EnvFile)

	return &ConfigWatcherHandle{Watcher: w}, nil
}
