package usage

import "errors"

// ErrMissingUser indicates an event or query without a user id.
var ErrMissingUser = errors.New("usage: user id is required")
