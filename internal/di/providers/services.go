package providers

import (
	"github.com/samber/do/v2"

	"github.com/scoredeck/scoredeck-server/internal/auth"
	"github.com/scoredeck/scoredeck-server/internal/logger"
	"github.com/scoredeck/scoredeck-server/internal/ranking"
	"github.com/scoredeck/scoredeck-server/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	auditHandle := do.MustInvoke[*AuditLogHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, auditHandle.Log, log.Logger), nil
}

// ProvideScoreboardService provides the scoreboard service.
func ProvideScoreboardService(i do.Injector) (*service.ScoreboardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	index := do.MustInvoke[*ranking.Index](i)
	catalog := do.MustInvoke[*ranking.Catalog](i)
	indexer := do.MustInvoke[service.SearchIndexer](i)
	hubHandle := do.MustInvoke[*HubHandle](i)
	auditHandle := do.MustInvoke[*AuditLogHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewScoreboardService(
		storeHandle.Store,
		index,
		catalog,
		indexer,
		hubHandle.Hub,
		auditHandle.Log,
		log.Logger,
	), nil
}
