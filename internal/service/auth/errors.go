package auth

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskflow-api/internal/domain"
)

// Token errors. Each wraps domain.ErrUnauthenticated so the boundary maps
// any token failure to the same response.
var (
	// ErrInvalidToken indicates a malformed token or a bad signature.
	ErrInvalidToken = fmt.Errorf("invalid authentication token: %w", domain.ErrUnauthenticated)

	// ErrExpiredToken indicates the token has expired.
	ErrExpiredToken = fmt.Errorf("authentication token has expired: %w", domain.ErrUnauthenticated)

	// ErrTokenNotYetValid indicates the token's issue time is in the future.
	ErrTokenNotYetValid = fmt.Errorf("authentication token not yet valid: %w", domain.ErrUnauthenticated)

	// ErrMissingToken indicates a token was expected but not provided.
	ErrMissingToken = fmt.Errorf("authentication token is missing: %w", domain.ErrUnauthenticated)

	// ErrShortSecret is returned by NewJWTService for secrets under 32 bytes.
	ErrShortSecret = errors.New("jwt secret must be at least 32 characters")
)
