package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit indicates the service returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrUnavailable indicates the service is down or unreachable (5xx).
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service unavailable: %v", e.Err)
	}
	return "service unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the model returned content that does not
// conform to the requested schema, or is not valid JSON at all.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrCredentialMissing indicates no usable API credential was found.
// Never retried; the caller must obstruct with a connect prompt.
type ErrCredentialMissing struct{}

func (e *ErrCredentialMissing) Error() string {
	return "no API credential configured"
}

// ErrCredentialRejected indicates the service refused the configured
// credential: invalid key, access or billing denial, or an entity the
// key cannot see. Retrying cannot change an authorization outcome, so
// this always propagates on first occurrence.
type ErrCredentialRejected struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *ErrCredentialRejected) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("credential rejected (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("credential rejected (%d): %v", e.StatusCode, e.Err)
}

func (e *ErrCredentialRejected) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "model response truncated: max tokens exceeded"
}

// Kind is the coarse failure classification used above the provider
// boundary. Callers branch on Kind instead of matching error strings.
type Kind string

const (
	KindTransient          Kind = "transient"
	KindCredentialMissing  Kind = "credential_missing"
	KindCredentialRejected Kind = "credential_rejected"
	KindMalformed          Kind = "malformed_response"
	KindUnknown            Kind = "unknown"
)

// Classify maps an error from a Provider into its Kind.
func Classify(err error) Kind {
	var (
		rateLimit *ErrRateLimit
		unavail   *ErrUnavailable
		invalid   *ErrInvalidResponse
		missing   *ErrCredentialMissing
		rejected  *ErrCredentialRejected
	)
	switch {
	case errors.As(err, &missing):
		return KindCredentialMissing
	case errors.As(err, &rejected):
		return KindCredentialRejected
	case errors.As(err, &rateLimit), errors.As(err, &unavail):
		return KindTransient
	case errors.As(err, &invalid):
		return KindMalformed
	default:
		return KindUnknown
	}
}

// retryable reports whether an error may be retried. Only transient
// signals qualify; context settlement and everything else propagate
// to the caller on first occurrence.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return Classify(err) == KindTransient
}
