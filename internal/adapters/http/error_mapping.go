package httpadapter

import (
	"net/http"

	"github.com/docucompare/backend/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	// Checked before the not-found kinds: an unknown-id callback wraps
	// ErrOutOfOrderCallback around ErrFileNotFound and must answer 409.
	case domain.IsKind(err, domain.ErrOutOfOrderCallback):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrFileNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrConversationNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
