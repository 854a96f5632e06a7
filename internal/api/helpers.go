package api

import (
	"strings"

	"github.com/scoredeck/scoredeck-server/internal/domain"
	domainerrors "github.com/scoredeck/scoredeck-server/internal/errors"
)

// pageParams converts raw listing query values into normalized
// PageParams. Absent values take defaults and numeric ranges are
// clamped, but a present sort literal outside {asc, desc} is rejected
// so the pagination math stays auditable rather than silently coerced.
func pageParams(page, size int, sort, sortBy string) (domain.PageParams, error) {
	if sort != "" && sort != string(domain.DirectionAsc) && sort != string(domain.DirectionDesc) {
		return domain.PageParams{}, domainerrors.Validationf("invalid sort direction %q: must be asc or desc", sort)
	}

	params := domain.PageParams{
		Page:   page,
		Size:   size,
		Sort:   domain.ParseDirection(sort),
		SortBy: sortBy,
	}
	params.Normalize()
	return params, nil
}

// clientIP extracts the client address from proxy headers. X-Forwarded-For
// may carry a chain; the first entry is the client.
func clientIP(forwardedFor, realIP string) string {
	if forwardedFor != "" {
		if i := strings.IndexByte(forwardedFor, ','); i >= 0 {
			return strings.TrimSpace(forwardedFor[:i])
		}
		return strings.TrimSpace(forwardedFor)
	}
	return realIP
}
