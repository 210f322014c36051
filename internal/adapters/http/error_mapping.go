package httpadapter

import (
	"net/http"

	"github.com/visionops/camsight/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrEmptyCorpus), domain.IsKind(err, domain.ErrEmptyContext):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrSourceUnavailable), domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
