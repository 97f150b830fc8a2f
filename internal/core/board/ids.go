package board

import (
	"fmt"

	"github.com/google/uuid"
)

// IDSource allocates task identifiers.
type IDSource func() string

// NewIDSource returns a source of time-ordered UUIDv7 strings. Within one
// process the values are strictly increasing.
func NewIDSource() IDSource {
	return func() string {
		id, err := uuid.NewV7()
		if err != nil {
			return uuid.NewString()
		}
		return id.String()
	}
}

// SequentialIDs returns a source producing prefix1, prefix2, ... It is used by
// tests and fixtures that need predictable ids.
func SequentialIDs(prefix string, start int) IDSource {
	n := start
	return func() string {
		id := fmt.Sprintf("%s%d", prefix, n)
		n++
		return id
	}
}
