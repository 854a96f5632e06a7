package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scoredeck/scoredeck-server/internal/audit"
	domainerrors "github.com/scoredeck/scoredeck-server/internal/errors"
)

func (s *Server) registerAuditRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getScoreboardAudit",
		Method:      http.MethodGet,
		Path:        "/api/scoreboards/{id}/audit",
		Summary:     "Scoreboard audit trail",
		Description: "Returns a scoreboard's audit entries, newest first. Answers for deleted scoreboards too.",
		Tags:        []string{"Audit"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetAudit)
}

// AuditEntryResponse contains one audit trail entry.
type AuditEntryResponse struct {
	ID        string    `json:"id" doc:"Entry ID"`
	Actor     string    `json:"actor" doc:"User who performed the action"`
	Action    string    `json:"action" doc:"Action performed"`
	Detail    string    `json:"detail,omitempty" doc:"Human-readable detail"`
	CreatedAt time.Time `json:"createdAt" doc:"When the action happened"`
}

// GetAuditInput contains parameters for the audit trail endpoint. The
// before/beforeId pair is the keyset cursor: pass the last entry of the
// previous page to fetch the next one.
type GetAuditInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Scoreboard ID"`
	Limit         int    `query:"limit" doc:"Maximum entries, clamped to [1,200]"`
	Before        string `query:"before" doc:"RFC 3339 cursor timestamp"`
	BeforeID      string `query:"beforeId" doc:"Cursor entry ID, breaks timestamp ties"`
}

// AuditTrailResponse contains a page of audit entries.
type AuditTrailResponse struct {
	Entries []AuditEntryResponse `json:"entries" doc:"Audit entries, newest first"`
}

// AuditTrailOutput wraps the audit trail response for Huma.
type AuditTrailOutput struct {
	Body AuditTrailResponse
}

func (s *Server) handleGetAudit(ctx context.Context, input *GetAuditInput) (*AuditTrailOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	var before *time.Time
	if input.Before != "" {
		t, err := time.Parse(time.RFC3339Nano, input.Before)
		if err != nil {
			return nil, domainerrors.Validationf("invalid before cursor %q: must be RFC 3339", input.Before)
		}
		before = &t
	}

	entries, err := s.services.Scoreboard.AuditTrail(ctx, input.ID, input.Limit, before, input.BeforeID)
	if err != nil {
		return nil, err
	}

	resp := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = auditEntryResponse(e)
	}

	return &AuditTrailOutput{Body: AuditTrailResponse{Entries: resp}}, nil
}

func auditEntryResponse(e *audit.Entry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        e.ID,
		Actor:     e.Actor,
		Action:    e.Action,
		Detail:    e.Detail,
		CreatedAt: e.CreatedAt,
	}
}
