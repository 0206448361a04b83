// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist. On approve/reject
// it also covers "already decided by another reviewer" — callers should
// re-fetch the queue rather than surface a hard failure.
var ErrNotFound = errors.New("not found")

// ErrDuplicateItem indicates an enqueue collision on an existing item id.
// This is a caller bug and is surfaced, not retried.
var ErrDuplicateItem = errors.New("duplicate item")

// ErrApprovalForbidden indicates the item's disposition blocks approval. The
// safety gate is enforced server-side; the reviewer must reject or regenerate.
var ErrApprovalForbidden = errors.New("approval forbidden")

// ErrValidation indicates a request or payload failed validation.
var ErrValidation = errors.New("validation failed")

// ErrUpstreamUnavailable indicates a store or audit-log I/O failure.
// Retryable with backoff.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")
