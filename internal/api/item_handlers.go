package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scoredeck/scoredeck-server/internal/domain"
	"github.com/scoredeck/scoredeck-server/internal/service"
)

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listScoreboardItems",
		Method:      http.MethodGet,
		Path:        "/api/scoreboards/{id}/items",
		Summary:     "List scoreboard items",
		Description: "Returns a paginated, sorted ranking of a scoreboard's items",
		Tags:        []string{"Items"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "createScoreboardItem",
		Method:      http.MethodPost,
		Path:        "/api/scoreboards/{id}/items",
		Summary:     "Submit score",
		Description: "Adds a scored item to a scoreboard",
		Tags:        []string{"Items"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateItem)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteScoreboardItem",
		Method:        http.MethodDelete,
		Path:          "/api/scoreboards/{id}/items/{itemId}",
		Summary:       "Delete item",
		Description:   "Soft-deletes a scoreboard item",
		Tags:          []string{"Items"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteItem)
}

// === DTOs ===

// ItemResponse contains scoreboard item data in API responses. The
// parent scoreboard is addressed through the URL, never the payload.
type ItemResponse struct {
	ID        string    `json:"id" doc:"Item ID"`
	UserID    string    `json:"userId" doc:"Submitting user ID"`
	Username  string    `json:"username" doc:"Username snapshot taken at submission"`
	Score     int32     `json:"score" doc:"Score value"`
	CreatedAt time.Time `json:"createdAt" doc:"Submission time"`
	UpdatedAt time.Time `json:"updatedAt" doc:"Last update time"`
}

func itemResponse(item *domain.ScoreboardItem) ItemResponse {
	return ItemResponse{
		ID:        item.ID,
		UserID:    item.UserID,
		Username:  item.Username,
		Score:     item.Score,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

// ListItemsInput contains pagination parameters for listing items.
type ListItemsInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Scoreboard ID"`
	Page          int    `query:"page" doc:"1-based page number"`
	Size          int    `query:"size" doc:"Page size, clamped to [1,100]"`
	Sort          string `query:"sort" doc:"Sort direction: asc or desc"`
	SortBy        string `query:"sortBy" doc:"Sort field: createdAt, score or username"`
}

// ItemPageOutput wraps a page of items for Huma.
type ItemPageOutput struct {
	Body domain.PaginatedResponse[ItemResponse]
}

// CreateItemRequest is the request body for submitting a score.
type CreateItemRequest struct {
	UserID   string `json:"userId" minLength:"1" maxLength:"100" doc:"Submitting user ID"`
	Username string `json:"username" minLength:"1" maxLength:"100" doc:"Username to display"`
	Score    int32  `json:"score" doc:"Score value"`
}

// CreateItemInput wraps the create item request for Huma.
type CreateItemInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Scoreboard ID"`
	Body          CreateItemRequest
}

// ItemOutput wraps a single item response for Huma.
type ItemOutput struct {
	Body ItemResponse
}

// DeleteItemInput contains parameters for deleting an item.
type DeleteItemInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Scoreboard ID"`
	ItemID        string `path:"itemId" doc:"Item ID"`
}

// === Handlers ===

func (s *Server) handleListItems(ctx context.Context, input *ListItemsInput) (*ItemPageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	params, err := pageParams(input.Page, input.Size, input.Sort, input.SortBy)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Scoreboard.ListItems(ctx, input.ID, params)
	if err != nil {
		return nil, err
	}

	items := make([]ItemResponse, len(page.Items))
	for i, item := range page.Items {
		items[i] = itemResponse(item)
	}

	return &ItemPageOutput{Body: domain.PaginatedResponse[ItemResponse]{
		Items:       items,
		TotalPages:  page.TotalPages,
		TotalItems:  page.TotalItems,
		CurrentPage: page.CurrentPage,
		PageSize:    page.PageSize,
		HasNextPage: page.HasNextPage,
	}}, nil
}

func (s *Server) handleCreateItem(ctx context.Context, input *CreateItemInput) (*ItemOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Scoreboard.CreateItem(ctx, userID, input.ID, service.CreateItemRequest{
		UserID:   input.Body.UserID,
		Username: input.Body.Username,
		Score:    input.Body.Score,
	})
	if err != nil {
		return nil, err
	}

	return &ItemOutput{Body: itemResponse(item)}, nil
}

func (s *Server) handleDeleteItem(ctx context.Context, input *DeleteItemInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Scoreboard.DeleteItem(ctx, userID, input.ID, input.ItemID); err != nil {
		return nil, err
	}

	return &struct{}{}, nil
}
