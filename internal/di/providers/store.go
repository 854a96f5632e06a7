package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/scoredeck/scoredeck-server/internal/audit"
	"github.com/scoredeck/scoredeck-server/internal/config"
	"github.com/scoredeck/scoredeck-server/internal/logger"
	"github.com/scoredeck/scoredeck-server/internal/ranking"
	"github.com/scoredeck/scoredeck-server/internal/service"
	"github.com/scoredeck/scoredeck-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the entry store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Entry store initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// ProvideRankingIndex provides the in-memory ranking projections.
func ProvideRankingIndex(i do.Injector) (*ranking.Index, error) {
	return ranking.NewIndex(), nil
}

// ProvideCatalog provides the in-memory scoreboard catalog.
func ProvideCatalog(i do.Injector) (*ranking.Catalog, error) {
	return ranking.NewCatalog(), nil
}

// AuditLogHandle wraps the audit log with shutdown capability.
type AuditLogHandle struct {
	*audit.Log
}

// Shutdown implements do.Shutdownable.
func (h *AuditLogHandle) Shutdown() error {
	return h.Close()
}

// ProvideAuditLog provides the SQLite-backed audit log.
func ProvideAuditLog(i do.Injector) (*AuditLogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := filepath.Join(cfg.Data.BasePath, "audit.db")
	auditLog, err := audit.Open(path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Audit log opened", "path", path)

	return &AuditLogHandle{Log: auditLog}, nil
}

// Bootstrap holds the startup projection rebuild result. Providing it
// before the HTTP server guarantees the ranking views are warm when the
// first request lands.
type Bootstrap struct {
	Scoreboards int
}

// ProvideBootstrap rebuilds the catalog and ranking views from the entry store.
func ProvideBootstrap(i do.Injector) (*Bootstrap, error) {
	scoreboardService := do.MustInvoke[*service.ScoreboardService](i)
	catalog := do.MustInvoke[*ranking.Catalog](i)

	if err := scoreboardService.WarmProjections(context.Background()); err != nil {
		return nil, err
	}

	return &Bootstrap{Scoreboards: catalog.Len()}, nil
}
