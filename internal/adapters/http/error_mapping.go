package httpadapter

import (
	"net/http"

	"github.com/yhchiang/medrag/internal/core/domain"
)

// mapErrorToHTTPStatus translates pipeline error kinds to response codes.
// Generation failures are checked before temporary ones: a failed
// generation call may wrap a temporary upstream error, and the client
// should see 502 for it.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrArticleNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrGeneration):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrNotReady):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
