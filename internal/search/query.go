package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/scoredeck/scoredeck-server/internal/domain"
)

// Params configures a search query.
type Params struct {
	Query  string // User's search query
	Limit  int
	Offset int
}

// Result holds the ranked hits for a query. The service hydrates hits from
// the store before anything reaches the API, so hits carry just enough to
// identify and order scoreboards.
type Result struct {
	Total  uint64
	TookMs int64
	Hits   []Hit
}

// Hit is a single ranked match.
type Hit struct {
	ID    string
	Score float64
	Name  string
	Slug  string
}

// Search executes a search query ordered by relevance.
func (s *SearchIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score", "_id"})
	searchRequest.Fields = []string{"name", "slug"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if n, ok := hit.Fields["name"].(string); ok {
			searchHit.Name = n
		}
		if sl, ok := hit.Fields["slug"].(string); ok {
			searchHit.Slug = sl
		}
		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
// Name matches rank highest, then slug prefixes (the query is slugified
// first so "Friday Night!" still matches "friday-night-bowling"), then
// fuzzy and prefix matches on the name for typo tolerance and
// search-as-you-type.
func buildSearchQuery(params Params) query.Query {
	if params.Query == "" {
		return bleve.NewMatchAllQuery()
	}

	textQueries := []query.Query{}

	nameMatch := bleve.NewMatchQuery(params.Query)
	nameMatch.SetField("name")
	nameMatch.SetBoost(3.0)
	textQueries = append(textQueries, nameMatch)

	if slug := domain.Slugify(params.Query); slug != "" {
		slugPrefix := bleve.NewPrefixQuery(slug)
		slugPrefix.SetField("slug")
		slugPrefix.SetBoost(1.5)
		textQueries = append(textQueries, slugPrefix)
	}

	fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
	fuzzyQuery.SetFuzziness(1)
	fuzzyQuery.SetField("name")
	fuzzyQuery.SetBoost(0.8)
	textQueries = append(textQueries, fuzzyQuery)

	if len(params.Query) >= 2 {
		prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
		prefixQuery.SetField("name")
		prefixQuery.SetBoost(0.5)
		textQueries = append(textQueries, prefixQuery)
	}

	return bleve.NewDisjunctionQuery(textQueries...)
}
