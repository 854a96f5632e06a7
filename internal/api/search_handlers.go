package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchScoreboards",
		Method:      http.MethodGet,
		Path:        "/api/scoreboards/search",
		Summary:     "Search scoreboards",
		Description: "Full-text search over scoreboard names",
		Tags:        []string{"Scoreboards"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchScoreboards)
}

// SearchScoreboardsInput contains full-text search parameters.
type SearchScoreboardsInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" minLength:"1" maxLength:"200" doc:"Search query"`
	Limit         int    `query:"limit" doc:"Maximum results, clamped to [1,100]"`
}

// SearchScoreboardsResponse contains full-text matches.
type SearchScoreboardsResponse struct {
	Items  []ScoreboardResponse `json:"items" doc:"Matching live scoreboards"`
	Total  uint64               `json:"total" doc:"Total matches in the index"`
	TookMs int64                `json:"tookMs" doc:"Query time in milliseconds"`
}

// SearchScoreboardsOutput wraps the search response for Huma.
type SearchScoreboardsOutput struct {
	Body SearchScoreboardsResponse
}

func (s *Server) handleSearchScoreboards(ctx context.Context, input *SearchScoreboardsInput) (*SearchScoreboardsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	result, err := s.services.Scoreboard.SearchScoreboards(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}

	items := make([]ScoreboardResponse, len(result.Scoreboards))
	for i, sb := range result.Scoreboards {
		items[i] = scoreboardResponse(sb)
	}

	return &SearchScoreboardsOutput{Body: SearchScoreboardsResponse{
		Items:  items,
		Total:  result.Total,
		TookMs: result.TookMs,
	}}, nil
}
