// Package server provides the HTTP API that presentation clients use to
// resolve, search and compare profiles.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/profile-compare/internal/compare"
	"github.com/jonathan/profile-compare/internal/resolver"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrComparisonNotFound indicates an unknown saved comparison
type ErrComparisonNotFound struct {
	ID uuid.UUID
}

func (e *ErrComparisonNotFound) Error() string {
	return fmt.Sprintf("comparison not found: %s", e.ID)
}

// ErrArchiveDisabled indicates the comparison archive is not configured
type ErrArchiveDisabled struct{}

func (e *ErrArchiveDisabled) Error() string {
	return "comparison archive is not configured"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		missing    *ErrComparisonNotFound
		disabled   *ErrArchiveDisabled
		notFound   *resolver.NotFoundError
		upstream   *resolver.UpstreamError
		compareErr *compare.Error
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &missing), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &disabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.As(err, &compareErr):
		if errors.Is(err, context.Canceled) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text returned to clients.
func publicMessage(err error) string {
	var notFound *resolver.NotFoundError
	if errors.As(err, &notFound) {
		return compare.SideMessage(err)
	}
	switch HTTPStatus(err) {
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return "Profile unavailable, try again later"
	case http.StatusInternalServerError:
		return "internal server error"
	default:
		return err.Error()
	}
}
