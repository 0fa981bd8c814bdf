package features

import "errors"

// ErrNoMatch marks text that does not contain the required fields, or
// contains a malformed value in a required slot. Distinct from an
// extraction failure: the document was readable, the data was not there.
var ErrNoMatch = errors.New("required fields not found")

// Schema parses a document's raw text into a feature vector. Alternate report
// layouts are added as new implementations; the pipeline stays unchanged.
type Schema interface {
	Name() string
	Parse(text string) (Vector, error)
}
