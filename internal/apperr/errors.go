// Package apperr holds the error kinds surfaced by the suggestion engine.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrValidation                  = errors.New("validation error")
	ErrNotFound                    = errors.New("not found")
	ErrUpstreamRateLimited         = errors.New("upstream rate limited")
	ErrUpstream                    = errors.New("upstream error")
	ErrMalformedGenerationResponse = errors.New("malformed generation response")
	ErrStorage                     = errors.New("storage error")
)

// Kind returns the kind err belongs to, or nil when it carries none.
func Kind(err error) error {
	for _, kind := range []error{
		ErrValidation,
		ErrNotFound,
		ErrUpstreamRateLimited,
		ErrUpstream,
		ErrMalformedGenerationResponse,
		ErrStorage,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

func HTTPStatus(err error) int {
	switch Kind(err) {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUpstreamRateLimited:
		return http.StatusServiceUnavailable
	case ErrUpstream, ErrMalformedGenerationResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Label is a metric-friendly name for err's kind.
func Label(err error) string {
	kind := Kind(err)
	if kind == nil {
		return "internal"
	}
	return strings.ReplaceAll(kind.Error(), " ", "_")
}
