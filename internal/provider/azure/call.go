// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azure

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/juju/errors"
	"github.com/juju/retry"
)

const (
	retryDelay       = 5 * time.Second
	maxRetryDelay    = 1 * time.Minute
	maxRetryDuration = 5 * time.Minute
)

// callAPI invokes f, retrying with exponential backoff for as long as
// the request is rejected with http.StatusTooManyRequests.
func (p *Provider) callAPI(f func() error) error {
	return retry.Call(retry.CallArgs{
		Func: f,
		IsFatalError: func(err error) bool {
			return !isThrottled(err)
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Debugf("attempt %d: %v", attempt, err)
		},
		Attempts:    -1,
		Delay:       retryDelay,
		MaxDelay:    maxRetryDelay,
		MaxDuration: maxRetryDuration,
		BackoffFunc: retry.DoubleDelay,
		Clock:       p.clock,
	})
}

func isThrottled(err error) bool {
	return statusCode(err) == http.StatusTooManyRequests
}

// IsNotFound reports whether the error is the Resource Manager's 404.
func IsNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

// IsConflict reports whether the error is the Resource Manager's 409,
// returned when a resource exists in a state that rejects the request.
func IsConflict(err error) bool {
	return statusCode(err) == http.StatusConflict
}

func statusCode(err error) int {
	var respErr *azcore.ResponseError
	if stderrors.As(errors.Cause(err), &respErr) {
		return respErr.StatusCode
	}
	return 0
}
