package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/scoredeck/scoredeck-server/internal/config"
	"github.com/scoredeck/scoredeck-server/internal/logger"
	"github.com/scoredeck/scoredeck-server/internal/search"
	"github.com/scoredeck/scoredeck-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability. The
// wrapped index is nil when search is disabled by configuration.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.SearchIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Search index disabled by configuration")
		return &SearchIndexHandle{SearchIndex: nil}, nil
	}

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSearchIndexer provides the indexer the scoreboard service writes
// through. A no-op indexer stands in when search is disabled.
func ProvideSearchIndexer(i do.Injector) (service.SearchIndexer, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	if indexHandle.SearchIndex == nil {
		return service.NewNoopIndexer(), nil
	}
	return indexHandle.SearchIndex, nil
}

// SyncSearchIndexIfNeeded reconciles the search index with the entry store.
// Should be called after projections are warm.
func SyncSearchIndexIfNeeded(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.Search.Enabled {
		return
	}

	scoreboardService := do.MustInvoke[*service.ScoreboardService](i)
	log := do.MustInvoke[*logger.Logger](i)

	go func() {
		if err := scoreboardService.SyncSearchIndex(context.Background()); err != nil {
			log.Error("Search index sync failed", "error", err)
		}
	}()
}
