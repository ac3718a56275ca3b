package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedReplay rejects a payload with missing fields, a seat count
	// other than four, or dangling seat references. No partial record is kept.
	ErrMalformedReplay = errors.New("malformed replay")

	// ErrUpstreamUnavailable covers failed replay, roster and ledger calls.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrScoringInvariant is unreachable while capping holds and is handled as a malformed replay.
	ErrScoringInvariant = fmt.Errorf("%w: scoring invariant violated", ErrMalformedReplay)

	ErrNoReplayLink = errors.New("no replay link in message")

	// ErrDivisionNotConfigured is returned for a division without its own ledger region.
	ErrDivisionNotConfigured = errors.New("division not configured")
)

func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedReplay, fmt.Sprintf(format, args...))
}

func Upstream(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, what, err)
}

func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
