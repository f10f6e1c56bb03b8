package memes

import (
	"errors"
	"fmt"
)

// ErrInvariant marks conditions that correct token construction makes
// unreachable, such as a token pointing at a template that no longer exists.
// It aborts the current interaction only.
var ErrInvariant = errors.New("memes: invariant violated")

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
