package password

import "errors"

// ErrMalformedHash is returned when a stored hash cannot be decoded. It is
// deliberately distinct from a clean mismatch (false, nil): a corrupt stored
// hash is an operator anomaly, not a wrong password, even though both must
// collapse to the same generic response at the API boundary.
var ErrMalformedHash = errors.New("malformed password hash encoding")
