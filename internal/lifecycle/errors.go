package lifecycle

import "errors"

// ErrContactNotFound is returned when a contact id does not resolve.
var ErrContactNotFound = errors.New("contact not found")
