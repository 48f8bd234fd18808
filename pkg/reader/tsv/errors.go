package tsv

import "errors"

// ErrNoHeader is returned when no line qualifies as a header.
var ErrNoHeader = errors.New("no header line found")
