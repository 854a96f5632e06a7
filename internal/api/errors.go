package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/scoredeck/scoredeck-server/internal/errors"
	"github.com/scoredeck/scoredeck-server/internal/store"
)

// RegisterErrorHandler points huma's error constructor at the domain
// error taxonomy so every failure is served as an RFC 7807 problem
// document: {type, title, status, detail, instance}. Schema validation
// failures are reported as 400, not huma's default 422 - the contract
// declares no 422 branch.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		details := make([]*huma.ErrorDetail, 0, len(errs))
		for _, err := range errs {
			if err == nil {
				continue
			}

			// Domain errors carry their own status and message.
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				status = domainErr.HTTPStatus()
				message = domainErr.Message
				continue
			}

			// Store sentinels that escaped the service layer unwrapped.
			if isNotFoundError(err) {
				status = http.StatusNotFound
				message = err.Error()
				continue
			}

			var detailer huma.ErrorDetailer
			if errors.As(err, &detailer) {
				details = append(details, detailer.ErrorDetail())
			} else {
				details = append(details, &huma.ErrorDetail{Message: err.Error()})
			}
		}

		return &huma.ErrorModel{
			Status: status,
			Title:  http.StatusText(status),
			Detail: message,
			Errors: details,
		}
	}
}

// isNotFoundError checks if the error is a "not found" sentinel from the store.
func isNotFoundError(err error) bool {
	return errors.Is(err, store.ErrScoreboardNotFound) ||
		errors.Is(err, store.ErrItemNotFound) ||
		errors.Is(err, store.ErrUserNotFound) ||
		errors.Is(err, store.ErrSessionNotFound)
}
