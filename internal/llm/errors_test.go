package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"rate limit", &ErrRateLimit{Err: errors.New("429")}, KindTransient},
		{"unavailable", &ErrUnavailable{}, KindTransient},
		{"credential missing", &ErrCredentialMissing{}, KindCredentialMissing},
		{"credential rejected", &ErrCredentialRejected{StatusCode: 403}, KindCredentialRejected},
		{"invalid response", &ErrInvalidResponse{Err: errors.New("not json")}, KindMalformed},
		{"plain error", errors.New("boom"), KindUnknown},
		{"wrapped rate limit", fmt.Errorf("call failed: %w", &ErrRateLimit{}), KindTransient},
		{"wrapped rejection", fmt.Errorf("call failed: %w", &ErrCredentialRejected{StatusCode: 404}), KindCredentialRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestMapStatusCode(t *testing.T) {
	base := errors.New("api error")

	cases := []struct {
		code int
		want Kind
	}{
		{http.StatusTooManyRequests, KindTransient},
		{http.StatusServiceUnavailable, KindTransient},
		{http.StatusInternalServerError, KindTransient},
		{http.StatusUnauthorized, KindCredentialRejected},
		{http.StatusForbidden, KindCredentialRejected},
		{http.StatusPaymentRequired, KindCredentialRejected},
		{http.StatusNotFound, KindCredentialRejected},
		{http.StatusBadRequest, KindUnknown},
	}

	for _, tc := range cases {
		if got := Classify(mapStatusCode(tc.code, "", base)); got != tc.want {
			t.Errorf("status %d classified as %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !retryable(&ErrRateLimit{}) || !retryable(&ErrUnavailable{}) {
		t.Fatal("transient errors must be retryable")
	}
	if retryable(&ErrCredentialRejected{StatusCode: 403}) {
		t.Fatal("credential rejection must not be retried")
	}
	if retryable(errors.New("boom")) {
		t.Fatal("unknown errors must not be retried")
	}
	if retryable(fmt.Errorf("call: %w", context.DeadlineExceeded)) {
		t.Fatal("deadline exceeded must not be retried")
	}
	if retryable(context.Canceled) {
		t.Fatal("cancellation must not be retried")
	}
}

func TestErrRateLimit_Unwrap(t *testing.T) {
	inner := errors.New("429 too many requests")
	err := &ErrRateLimit{RetryAfter: time.Second, Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("expected Unwrap to expose inner error")
	}
}
