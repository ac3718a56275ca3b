package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"catan-standings/internal/constants"
	"catan-standings/internal/domain"

	"github.com/cenkalti/backoff/v4"
	"github.com/valyala/fasthttp"
)

// StatusError is returned for any non-200 upstream response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %d", e.Status)
}

func newFastHTTPClient() *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:     16,
		ReadTimeout:         constants.ExternalAPITimeout,
		WriteTimeout:        constants.ExternalAPITimeout,
		MaxIdleConnDuration: 1 * time.Minute,
	}
}

func doRequest(ctx context.Context, client *fasthttp.Client, req *fasthttp.Request) ([]byte, error) {
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{URL: string(req.RequestURI()), Status: resp.StatusCode()}
	}

	return append([]byte(nil), resp.Body()...), nil
}

// withTimeoutRetry runs op under ExternalAPITimeout. A timeout is retried
// once; any other failure, or a second timeout, is final and reported as
// domain.ErrUpstreamUnavailable. Malformed payload errors pass through as is.
func withTimeoutRetry(ctx context.Context, what string, op func(ctx context.Context) error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(constants.TimeoutRetryDelay), 1),
		ctx,
	)

	err := backoff.Retry(func() error {
		callCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
		defer cancel()

		err := op(callCtx)
		if err == nil || IsTimeout(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrMalformedReplay), errors.Is(err, domain.ErrUpstreamUnavailable):
		return err
	default:
		return domain.Upstream(what, err)
	}
}

func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, fasthttp.ErrTimeout) ||
		errors.Is(err, fasthttp.ErrDialTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
