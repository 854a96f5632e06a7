package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scoredeck/scoredeck-server/internal/domain"
	"github.com/scoredeck/scoredeck-server/internal/service"
)

func (s *Server) registerScoreboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listScoreboards",
		Method:      http.MethodGet,
		Path:        "/api/scoreboards",
		Summary:     "List scoreboards",
		Description: "Returns a paginated list of scoreboards",
		Tags:        []string{"Scoreboards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListScoreboards)

	huma.Register(s.api, huma.Operation{
		OperationID: "createScoreboard",
		Method:      http.MethodPost,
		Path:        "/api/scoreboards",
		Summary:     "Create scoreboard",
		Description: "Creates a new scoreboard owned by the authenticated user",
		Tags:        []string{"Scoreboards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateScoreboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "getScoreboard",
		Method:      http.MethodGet,
		Path:        "/api/scoreboards/{id}",
		Summary:     "Get scoreboard",
		Description: "Returns a scoreboard by ID",
		Tags:        []string{"Scoreboards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetScoreboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateScoreboard",
		Method:      http.MethodPut,
		Path:        "/api/scoreboards/{id}",
		Summary:     "Rename scoreboard",
		Description: "Updates a scoreboard's name",
		Tags:        []string{"Scoreboards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateScoreboard)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteScoreboard",
		Method:        http.MethodDelete,
		Path:          "/api/scoreboards/{id}",
		Summary:       "Delete scoreboard",
		Description:   "Soft-deletes a scoreboard; its items become invisible to listing",
		Tags:          []string{"Scoreboards"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteScoreboard)
}

// === DTOs ===

// ScoreboardResponse contains scoreboard data in API responses.
type ScoreboardResponse struct {
	ID        string    `json:"id" doc:"Scoreboard ID"`
	Name      string    `json:"name" doc:"Display name"`
	Slug      string    `json:"slug,omitempty" doc:"URL-safe slug derived from the name"`
	AuthorID  string    `json:"authorId" doc:"ID of the owning user"`
	CreatedAt time.Time `json:"createdAt" doc:"Creation time"`
	UpdatedAt time.Time `json:"updatedAt" doc:"Last update time"`
}

func scoreboardResponse(sb *domain.Scoreboard) ScoreboardResponse {
	return ScoreboardResponse{
		ID:        sb.ID,
		Name:      sb.Name,
		Slug:      sb.Slug,
		AuthorID:  sb.AuthorID,
		CreatedAt: sb.CreatedAt,
		UpdatedAt: sb.UpdatedAt,
	}
}

// ListScoreboardsInput contains pagination parameters for listing scoreboards.
type ListScoreboardsInput struct {
	Authorization string `header:"Authorization"`
	Page          int    `query:"page" doc:"1-based page number"`
	Size          int    `query:"size" doc:"Page size, clamped to [1,100]"`
	Sort          string `query:"sort" doc:"Sort direction: asc or desc"`
	SortBy        string `query:"sortBy" doc:"Sort field: createdAt or name"`
}

// ScoreboardPageOutput wraps a page of scoreboards for Huma.
type ScoreboardPageOutput struct {
	Body domain.PaginatedResponse[ScoreboardResponse]
}

// CreateScoreboardRequest is the request body for creating a scoreboard.
type CreateScoreboardRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"200" doc:"Scoreboard name"`
}

// CreateScoreboardInput wraps the create request for Huma.
type CreateScoreboardInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateScoreboardRequest
}

// ScoreboardOutput wraps a single scoreboard response for Huma.
type ScoreboardOutput struct {
	Body ScoreboardResponse
}

// GetScoreboardInput contains parameters for fetching a scoreboard.
type GetScoreboardInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Scoreboard ID"`
}

// UpdateScoreboardRequest is the request body for renaming a scoreboard.
type UpdateScoreboardRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"200" doc:"New scoreboard name"`
}

// UpdateScoreboardInput wraps the rename request for Huma.
type UpdateScoreboardInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Scoreboard ID"`
	Body          UpdateScoreboardRequest
}

// DeleteScoreboardInput contains parameters for deleting a scoreboard.
type DeleteScoreboardInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Scoreboard ID"`
}

// === Handlers ===

func (s *Server) handleListScoreboards(ctx context.Context, input *ListScoreboardsInput) (*ScoreboardPageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	params, err := pageParams(input.Page, input.Size, input.Sort, input.SortBy)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Scoreboard.ListScoreboards(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]ScoreboardResponse, len(page.Items))
	for i, sb := range page.Items {
		items[i] = scoreboardResponse(sb)
	}

	return &ScoreboardPageOutput{Body: domain.PaginatedResponse[ScoreboardResponse]{
		Items:       items,
		TotalPages:  page.TotalPages,
		TotalItems:  page.TotalItems,
		CurrentPage: page.CurrentPage,
		PageSize:    page.PageSize,
		HasNextPage: page.HasNextPage,
	}}, nil
}

func (s *Server) handleCreateScoreboard(ctx context.Context, input *CreateScoreboardInput) (*ScoreboardOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	sb, err := s.services.Scoreboard.CreateScoreboard(ctx, userID, service.CreateScoreboardRequest{
		Name: input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &ScoreboardOutput{Body: scoreboardResponse(sb)}, nil
}

func (s *Server) handleGetScoreboard(ctx context.Context, input *GetScoreboardInput) (*ScoreboardOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	sb, err := s.services.Scoreboard.GetScoreboard(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ScoreboardOutput{Body: scoreboardResponse(sb)}, nil
}

func (s *Server) handleUpdateScoreboard(ctx context.Context, input *UpdateScoreboardInput) (*ScoreboardOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	sb, err := s.services.Scoreboard.UpdateScoreboard(ctx, userID, input.ID, service.UpdateScoreboardRequest{
		Name: input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &ScoreboardOutput{Body: scoreboardResponse(sb)}, nil
}

func (s *Server) handleDeleteScoreboard(ctx context.Context, input *DeleteScoreboardInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Scoreboard.DeleteScoreboard(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &struct{}{}, nil
}
