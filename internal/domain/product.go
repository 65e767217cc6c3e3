package domain

import (
	"strings"
	"time"
)

// Product holds the compression results for one CSV row. It belongs to
// exactly one job and is immutable once persisted. OutputURLs is aligned
// positionally with InputURLs: index i holds either an asset reference or
// an error marker for InputURLs[i].
type Product struct {
	ID           int64
	JobID        string
	SerialNumber int
	Name         string
	InputURLs    []string
	OutputURLs   []string
	CreatedAt    time.Time
}

const errorMarkerPrefix = "error: "

// ErrorMarker encodes a per-image failure as an in-band output entry.
// These markers are stored in place of an asset reference and do not
// fail the enclosing job.
func ErrorMarker(err error) string {
	return errorMarkerPrefix + err.Error()
}

// IsErrorMarker reports whether an output entry records a failure
// rather than an asset reference.
func IsErrorMarker(s string) bool {
	return strings.HasPrefix(s, errorMarkerPrefix)
}
