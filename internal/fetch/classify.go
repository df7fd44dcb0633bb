package fetch

import (
	"context"
	"errors"
	"net"
	"net/url"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	kqerr "github.com/hashmap-kz/kubiq/internal/errors"
)

// errClass buckets a list/discovery error for the fetch state machine.
// Classification is purely structural: API status codes and transport error
// types, never message text.
type errClass int

const (
	classFatal errClass = iota
	classTransient
	classSelectorRejected
	classStale
	classCanceled
)

// classify buckets err. selectorsActive widens 400 into the selector-
// rejection path; without selectors a 400 is a fatal validation error.
func classify(err error, selectorsActive bool) errClass {
	if errors.Is(err, context.Canceled) {
		return classCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// Per-request timeout.
		return classTransient
	}
	if apierrors.IsNotFound(err) || apierrors.IsGone(err) || apierrors.IsResourceExpired(err) {
		return classStale
	}
	if apierrors.IsBadRequest(err) || apierrors.IsInvalid(err) {
		if selectorsActive {
			return classSelectorRejected
		}
		return classFatal
	}
	if apierrors.IsTimeout(err) || apierrors.IsServerTimeout(err) ||
		apierrors.IsTooManyRequests(err) || apierrors.IsInternalError(err) ||
		apierrors.IsServiceUnavailable(err) || apierrors.IsUnexpectedServerError(err) {
		return classTransient
	}
	if code := statusCode(err); code >= 500 {
		return classTransient
	}
	if isTransportError(err) {
		return classTransient
	}
	return classFatal
}

func statusCode(err error) int {
	var status apierrors.APIStatus
	if errors.As(err, &status) {
		return int(status.Status().Code)
	}
	return 0
}

func isTransportError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// kindOf names the K8sError kind a classified error maps to, for retry
// summaries and terminal errors.
func kindOf(err error) kqerr.K8sErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded), apierrors.IsTimeout(err), apierrors.IsServerTimeout(err):
		return kqerr.RequestTimeout
	case isTransportError(err):
		return kqerr.ApiUnreachable
	default:
		return kqerr.ListFailed
	}
}
