package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceErrorKind classifies failures of external collaborators.
type ServiceErrorKind string

const (
	KindUnavailable   ServiceErrorKind = "unavailable"
	KindRateLimited   ServiceErrorKind = "rate_limited"
	KindAuth          ServiceErrorKind = "auth"
	KindModelNotFound ServiceErrorKind = "model_not_found"
	KindConnection    ServiceErrorKind = "connection"
	KindUpstream      ServiceErrorKind = "upstream"
)

// ServiceError is returned by completion providers and other HTTP integrations.
type ServiceError struct {
	Provider   string
	Kind       ServiceErrorKind
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatusCode exposes the upstream status, zero when the request never got one.
func (e *ServiceError) HTTPStatusCode() int {
	return e.StatusCode
}

// NewServiceError builds a ServiceError without an upstream status.
func NewServiceError(provider string, kind ServiceErrorKind, err error) *ServiceError {
	return &ServiceError{Provider: provider, Kind: kind, Err: err}
}

// KindForStatus maps an upstream HTTP status to an error kind.
func KindForStatus(status int) ServiceErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindModelNotFound
	case status == http.StatusServiceUnavailable:
		return KindUnavailable
	default:
		return KindUpstream
	}
}

// KindOf returns the kind carried by err, or KindUpstream when err is not a ServiceError.
func KindOf(err error) ServiceErrorKind {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindUpstream
}
