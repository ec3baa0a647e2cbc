package usecase

import crerr "github.com/cockroachdb/errors"

// ErrDependencyUnavailable marks an upstream provider as down or circuit
// broken. Callers treat it as retryable and keep their sessions alive.
var ErrDependencyUnavailable = crerr.New("dependency unavailable")
