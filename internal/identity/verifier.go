// Package identity resolves caller-supplied credentials to stable user IDs.
// The server never mints identities itself; it trusts an external identity
// provider whose tokens it can verify offline.
package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidCredential is returned for any credential the verifier rejects:
// malformed, expired, wrong signature, or missing a subject.
var ErrInvalidCredential = errors.New("invalid credential")

// Verifier validates a bearer credential and returns the user it belongs to.
type Verifier interface {
	Verify(ctx context.Context, bearerToken string) (string, error)
}

// Resolution is the capability a confirm call presents to prove who the user
// is. Verified carries a bearer token checked against the Verifier; Trusted
// carries a raw user ID and is only reachable through the dev confirm route,
// which is never mounted in production.
type Resolution interface {
	Resolve(ctx context.Context, v Verifier) (string, error)
}

type verified struct {
	bearer string
}

// Verified wraps a bearer credential for verification at confirm time.
func Verified(bearerToken string) Resolution {
	return verified{bearer: bearerToken}
}

func (r verified) Resolve(ctx context.Context, v Verifier) (string, error) {
	if strings.TrimSpace(r.bearer) == "" {
		return "", ErrInvalidCredential
	}
	return v.Verify(ctx, r.bearer)
}

type trusted struct {
	userID string
}

// Trusted accepts a caller-supplied user ID without verification. Callers
// must gate construction behind a non-production configuration check.
func Trusted(userID string) Resolution {
	return trusted{userID: userID}
}

func (r trusted) Resolve(ctx context.Context, v Verifier) (string, error) {
	if strings.TrimSpace(r.userID) == "" {
		return "", ErrInvalidCredential
	}
	return r.userID, nil
}
